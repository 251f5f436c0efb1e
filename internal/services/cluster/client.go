package cluster

import (
	"fmt"
	"log/slog"
	"strings"

	consul "github.com/hashicorp/consul/api"
)

// NewConsulClient tenta cada endereço da lista (separada por vírgula) até
// achar um agente que enxergue um líder.
func NewConsulClient(addrs string, logger *slog.Logger) (*consul.Client, string, error) {
	for _, node := range strings.Split(addrs, ",") {
		node = strings.TrimSpace(node)
		if node == "" {
			continue
		}
		cfg := consul.DefaultConfig()
		cfg.Address = node

		client, err := consul.NewClient(cfg)
		if err != nil {
			logger.Warn("[ConsulClient] failed to create client", "node", node, "error", err)
			continue
		}

		// Teste rápido de saúde
		if _, err := client.Status().Leader(); err != nil {
			logger.Warn("[ConsulClient] node did not answer leader check", "node", node, "error", err)
			continue
		}

		logger.Info("[ConsulClient] connected", "node", node)
		return client, node, nil
	}

	return nil, "", fmt.Errorf("no consul node available in %q", addrs)
}
