// Package events publica o ciclo de vida das partidas (criação, entrada,
// pontos, saída, encerramento) para outros serviços via NATS.
package events

import (
	"fmt"
	"strings"
	"time"
)

// Tipos de evento. Viram o último token do subject.
const (
	TypeMatchCreated = "created"
	TypePlayerJoined = "player_joined"
	TypeMatchStarted = "started"
	TypePointScored  = "point_scored"
	TypePlayerLeft   = "player_left"
	TypeMatchClosed  = "closed"
)

// Event é o payload JSON publicado.
type Event struct {
	Type          string    `json:"type"`
	MatchID       string    `json:"matchId"`
	ParticipantID string    `json:"participantId,omitempty"`
	PlayerName    string    `json:"playerName,omitempty"`
	PlayerNumber  int       `json:"playerNumber,omitempty"`
	Player1Score  int       `json:"player1Score"`
	Player2Score  int       `json:"player2Score"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher é o que o gerenciador de partidas enxerga.
type Publisher interface {
	Publish(ev Event) error
	Close()
}

// Subject monta "<prefix>.match.<matchId>.<type>". Pontos e espaços no id
// quebrariam a hierarquia de tokens, então são trocados por "_".
func Subject(prefix string, ev Event) string {
	id := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_").Replace(ev.MatchID)
	if prefix == "" {
		return fmt.Sprintf("match.%s.%s", id, ev.Type)
	}
	return fmt.Sprintf("%s.match.%s.%s", prefix, id, ev.Type)
}

// NopPublisher descarta tudo. Usado quando NATS não está configurado.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) error { return nil }
func (NopPublisher) Close()              {}
