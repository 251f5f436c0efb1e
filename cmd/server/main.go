package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"pingpong/internal/config"
	"pingpong/internal/game/pong"
	"pingpong/internal/network"
	"pingpong/internal/services/cluster"
	"pingpong/internal/services/events"
	"pingpong/internal/services/gameroom"
	"pingpong/internal/session"

	consul "github.com/hashicorp/consul/api"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	// 1. CARREGA A CONFIGURAÇÃO
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Info("[Main] config loaded",
		"addr", cfg.Server.Addr, "tick_rate", cfg.Match.TickRate,
		"consul", cfg.Consul.Enabled, "nats", cfg.NATS.URL != "")

	health := cluster.NewHealthAggregator()

	// 2. EVENTOS DE PARTIDA (NATS é opcional)
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsPub, err := events.ConnectNATS(cfg.NATS.URL, cfg.Consul.ServiceName, cfg.NATS.SubjectPrefix, logger)
		if err != nil {
			logger.Error("[Main] failed to connect to NATS", "url", cfg.NATS.URL, "error", err)
			os.Exit(1)
		}
		publisher = natsPub
		health.AddCheck("nats", natsPub.Check)
	}

	// 3. INICIA A LÓGICA DO JOGO
	var handler *session.GameHandler
	manager := gameroom.NewManager(gameroom.Options{
		TickPeriod: cfg.TickPeriod(),
		NewRandom:  newRandomFactory(cfg.Match.Seed),
		Publisher:  publisher,
		OnClose:    func(matchID string) { handler.OnMatchClosed(matchID) },
	}, logger)
	handler = session.NewGameHandler(manager, logger)

	server := network.NewServer(handler, cfg.Server.AllowedOrigins, logger)
	handler.AttachHub(server.Hub())
	health.AddInfo("matches", func() any { return manager.Stats() })
	health.AddInfo("connections", func() any { return server.Hub().ClientCount() })

	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.Handler())
	gameroom.RegisterHandlers(mux, manager)

	// 4. REGISTRA O SERVIÇO NO CONSUL
	var deregister func()
	if cfg.Consul.Enabled {
		deregister = registerInConsul(cfg, health, logger)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Listen(cfg.Server.Addr, mux)
	}()

	// 5. ESPERA SINAL DE DESLIGAMENTO
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("[Main] shutting down", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logger.Error("[Main] server stopped", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if deregister != nil {
		deregister()
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("[Main] http shutdown", "error", err)
	}
	manager.Close()
	publisher.Close()
	logger.Info("[Main] bye")
}

// setupLogger monta o slog conforme nível e formato configurados.
func setupLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(h).With("service", "pingpong-server")
}

// newRandomFactory dá a cada partida sua própria fonte. Com seed fixa as
// partidas são reproduzíveis na ordem em que são criadas.
func newRandomFactory(seed uint64) func() pong.Random {
	if seed == 0 {
		return nil
	}
	var n atomic.Uint64
	return func() pong.Random {
		return pong.NewRandom(seed + n.Add(1) - 1)
	}
}

// registerInConsul conecta, registra e refaz o registro a cada reconexão.
// Devolve a função de desregistro usada no desligamento.
func registerInConsul(cfg *config.Config, health *cluster.HealthAggregator, logger *slog.Logger) func() {
	port, err := cfg.Port()
	if err != nil {
		logger.Error("[Main] invalid server address for consul", "error", err)
		os.Exit(1)
	}
	reg := cluster.Registration{
		ServiceName:   cfg.Consul.ServiceName,
		Port:          port,
		AdvertiseHost: cfg.Consul.AdvertiseHost,
	}

	cm, err := cluster.NewConsulManager(cfg.Consul.Addr, logger)
	if err != nil {
		logger.Error("[Main] failed to connect to consul", "error", err)
		os.Exit(1)
	}
	health.AddCheck("consul", cm.Check)

	register := func(client *consul.Client) {
		id, err := cluster.RegisterServiceInConsul(client, reg)
		if err != nil {
			logger.Error("[Main] consul registration failed", "error", err)
			return
		}
		logger.Info("[Main] registered in consul", "service", reg.ServiceName, "service_id", id)
	}
	cm.OnReconnect(register)
	register(cm.GetClient())

	return func() {
		defer cm.Stop()
		client := cm.GetClient()
		if client == nil {
			return
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := cluster.DeregisterService(client, reg.ServiceID()); err != nil {
				logger.Warn("[Main] consul deregistration failed", "error", err)
			}
		}()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			logger.Warn("[Main] consul deregistration timed out")
		}
	}
}
