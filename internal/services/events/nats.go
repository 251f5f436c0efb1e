package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publica eventos em NATS core (sem JetStream): são
// notificações, não histórico.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// ConnectNATS conecta com reconexão infinita. name aparece no monitoramento do servidor NATS.
func ConnectNATS(url, name, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	logger = logger.With("component", "events")

	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("[NATS] disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("[NATS] reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}

	logger.Info("[NATS] connected", "url", conn.ConnectedUrl(), "prefix", prefix)
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}, nil
}

func (p *NATSPublisher) Publish(ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", ev.Type, err)
	}
	subject := Subject(p.prefix, ev)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Check serve como verificação de saúde.
func (p *NATSPublisher) Check() error {
	if p.conn.IsConnected() {
		return nil
	}
	return errors.New("nats connection status: " + p.conn.Status().String())
}

// Close descarrega o buffer pendente antes de fechar.
func (p *NATSPublisher) Close() {
	if err := p.conn.FlushTimeout(2 * time.Second); err != nil {
		p.logger.Warn("[NATS] flush on close failed", "error", err)
	}
	p.conn.Close()
}
