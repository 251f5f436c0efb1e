package cluster

import (
	"fmt"
	"os"

	consul "github.com/hashicorp/consul/api"
)

// Registration descreve como o servidor aparece no catálogo do Consul.
type Registration struct {
	ServiceName string
	Port        int
	// AdvertiseHost é o host que o Consul usa no health check e que os
	// clientes recebem na descoberta. Vazio usa o hostname do container.
	AdvertiseHost string
}

// ServiceID é único por instância: nome do serviço + hostname.
func (r Registration) ServiceID() string {
	return fmt.Sprintf("%s-%s", r.ServiceName, r.host())
}

func (r Registration) host() string {
	if r.AdvertiseHost != "" {
		return r.AdvertiseHost
	}
	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname, _ = os.Hostname()
	}
	return hostname
}

func (r Registration) agentRegistration() *consul.AgentServiceRegistration {
	host := r.host()
	return &consul.AgentServiceRegistration{
		ID:      r.ServiceID(),
		Name:    r.ServiceName,
		Port:    r.Port,
		Address: r.AdvertiseHost,
		Tags:    []string{"pong", "websocket"},
		Check: &consul.AgentServiceCheck{
			HTTP:     fmt.Sprintf("http://%s:%d/health", host, r.Port),
			Timeout:  "5s",
			Interval: "10s",
			// Instância morta some do catálogo depois de 1 minuto crítica.
			DeregisterCriticalServiceAfter: "1m",
		},
	}
}

// RegisterServiceInConsul registra a instância e devolve o ID usado.
func RegisterServiceInConsul(client *consul.Client, reg Registration) (string, error) {
	if err := client.Agent().ServiceRegister(reg.agentRegistration()); err != nil {
		return "", fmt.Errorf("register service %s: %w", reg.ServiceName, err)
	}
	return reg.ServiceID(), nil
}

// DeregisterService tira a instância do catálogo no desligamento.
func DeregisterService(client *consul.Client, serviceID string) error {
	if err := client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("deregister service %s: %w", serviceID, err)
	}
	return nil
}
