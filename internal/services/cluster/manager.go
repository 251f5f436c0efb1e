package cluster

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	consul "github.com/hashicorp/consul/api"
)

// ConsulManager mantém uma conexão viva com o cluster Consul e troca de nó
// quando o atual para de responder.
type ConsulManager struct {
	addrs       string
	currentAddr string
	client      *consul.Client
	mu          sync.RWMutex
	callbacks   []func(*consul.Client)
	interval    time.Duration
	quit        chan struct{}
	stopOnce    sync.Once
	logger      *slog.Logger
}

// NewConsulManager conecta e inicia o monitor.
func NewConsulManager(addrs string, logger *slog.Logger) (*ConsulManager, error) {
	m := &ConsulManager{
		addrs:    addrs,
		interval: 10 * time.Second,
		quit:     make(chan struct{}),
		logger:   logger.With("component", "consul"),
	}

	if err := m.reconnect(); err != nil {
		return nil, err
	}
	go m.monitor()
	return m, nil
}

// OnReconnect registra uma função chamada a cada reconexão bem-sucedida.
// O registro do serviço usa isso para se refazer no nó novo.
func (m *ConsulManager) OnReconnect(callback func(*consul.Client)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// GetClient retorna o cliente atual (nil durante uma reconexão que falhou).
func (m *ConsulManager) GetClient() *consul.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// Check serve de CheckFunc para o HealthAggregator.
func (m *ConsulManager) Check() error {
	client := m.GetClient()
	if client == nil {
		return fmt.Errorf("not connected to consul (%s)", m.addrs)
	}
	if _, err := client.Status().Leader(); err != nil {
		return fmt.Errorf("consul leader check: %w", err)
	}
	return nil
}

func (m *ConsulManager) Stop() {
	m.stopOnce.Do(func() { close(m.quit) })
}

func (m *ConsulManager) reconnect() error {
	m.logger.Info("[ConsulManager] connecting to consul cluster", "addrs", m.addrs)

	client, addr, err := NewConsulClient(m.addrs, m.logger)

	m.mu.Lock()
	m.client = client
	m.currentAddr = addr
	callbacks := append([]func(*consul.Client){}, m.callbacks...)
	m.mu.Unlock()

	if err != nil {
		return err
	}
	for _, cb := range callbacks {
		go cb(client)
	}
	return nil
}

func (m *ConsulManager) monitor() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
		}

		client := m.GetClient()
		if client == nil {
			m.logger.Warn("[ConsulManager] no client, reconnecting")
			_ = m.reconnect()
			continue
		}
		if _, err := client.Status().Leader(); err != nil {
			m.mu.RLock()
			addr := m.currentAddr
			m.mu.RUnlock()
			m.logger.Warn("[ConsulManager] health check failed, trying other nodes", "node", addr, "error", err)
			_ = m.reconnect()
		}
	}
}
