package network

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Server promove conexões HTTP para WebSocket e as entrega ao Hub.
type Server struct {
	hub      *Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger

	startOnce  sync.Once
	mu         sync.Mutex
	httpServer *http.Server
}

// NewServer aceita o EventHandler que recebe os eventos do Hub.
// allowedOrigins vazio (ou com "*") aceita qualquer origem.
func NewServer(handler EventHandler, allowedOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		hub:    NewHub(handler, logger),
		logger: logger.With("component", "network"),
	}
	s.upgrader = websocket.Upgrader{
		CheckOrigin:     originChecker(allowedOrigins),
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	return s
}

// Hub expõe o hub para quem precisa fazer broadcast por grupo.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start inicia a goroutine do Hub. Chamadas repetidas não fazem nada.
func (s *Server) Start() {
	s.startOnce.Do(func() { go s.hub.Run() })
}

// ServeWS é o ponto de entrada das conexões de clientes.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("[Server] websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	client := newClient(conn, s.hub, s.logger)
	if !s.hub.registerClient(client) {
		conn.Close()
		return
	}

	go client.writeLoop()
	go client.readLoop()
}

// Listen registra /ws no mux e serve HTTP até Shutdown. Bloqueante.
func (s *Server) Listen(address string, mux *http.ServeMux) error {
	s.Start()
	mux.HandleFunc("/ws", s.ServeWS)

	srv := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("[Server] websocket server listening", "address", address, "path", "/ws")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown para de aceitar conexões e fecha os clientes.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.hub.Stop()
	return err
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		// Clientes fora do navegador (bots, terminal) não mandam Origin.
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
