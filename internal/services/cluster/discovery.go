package cluster

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	consul "github.com/hashicorp/consul/api"
)

type DiscoveryMode int

const (
	ModeAnyHealthy DiscoveryMode = iota
	ModeSpecific
)

type DiscoveryOptions struct {
	Mode       DiscoveryMode
	SpecificID string
}

// Discover devolve "host:porta" de uma instância saudável do serviço, ou "".
func Discover(serviceName string, consulAddrs string, opts DiscoveryOptions, logger *slog.Logger) string {
	client, _, err := NewConsulClient(consulAddrs, logger)
	if err != nil {
		logger.Error("[Discovery] failed to create consul client", "error", err)
		return ""
	}
	return discoverWithClient(client, serviceName, opts, logger)
}

func discoverWithClient(client *consul.Client, serviceName string, opts DiscoveryOptions, logger *slog.Logger) string {
	services, _, err := client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		logger.Error("[Discovery] failed to query service", "service", serviceName, "error", err)
		return ""
	}

	if opts.Mode == ModeSpecific {
		if opts.SpecificID == "" {
			logger.Error("[Discovery] ModeSpecific requires SpecificID")
			return ""
		}
		for _, s := range services {
			if s.Service.ID == opts.SpecificID {
				return entryAddress(s)
			}
		}
		logger.Warn("[Discovery] instance not found or unhealthy", "service", serviceName, "id", opts.SpecificID)
		return ""
	}

	if len(services) == 0 {
		logger.Warn("[Discovery] no healthy instance", "service", serviceName)
		return ""
	}
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return entryAddress(services[r.Intn(len(services))])
}

func entryAddress(s *consul.ServiceEntry) string {
	addr := s.Service.Address
	if addr == "" {
		addr = s.Node.Address
	}
	return fmt.Sprintf("%s:%d", addr, s.Service.Port)
}
