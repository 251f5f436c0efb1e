package cluster

import (
	"encoding/json"
	"net/http"
	"sync"
)

// CheckFunc verifica uma dependência (NATS, Consul). Erro marca o serviço como degradado.
type CheckFunc func() error

// InfoFunc devolve dados extras mostrados no /health (contadores, etc).
type InfoFunc func() any

// HealthAggregator junta checks e contadores num único /health, que é o
// endpoint consultado pelo check HTTP do Consul.
type HealthAggregator struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
	info   map[string]InfoFunc
}

type healthResponse struct {
	Status string            `json:"status"`
	Errors map[string]string `json:"errors,omitempty"`
	Info   map[string]any    `json:"info,omitempty"`
}

func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{
		checks: make(map[string]CheckFunc),
		info:   make(map[string]InfoFunc),
	}
}

func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

func (h *HealthAggregator) AddInfo(name string, info InfoFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.info[name] = info
}

// Handler responde 200 com status "healthy" ou 503 com os checks que falharam.
// Os contadores vão no campo info nos dois casos.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		resp := healthResponse{Status: "healthy"}
		for name, check := range h.checks {
			if err := check(); err != nil {
				if resp.Errors == nil {
					resp.Errors = make(map[string]string)
				}
				resp.Errors[name] = err.Error()
			}
		}
		if len(h.info) > 0 {
			resp.Info = make(map[string]any, len(h.info))
			for name, info := range h.info {
				resp.Info[name] = info()
			}
		}
		h.mu.RUnlock()

		status := http.StatusOK
		if len(resp.Errors) > 0 {
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
