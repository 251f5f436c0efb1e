package session

import (
	"time"

	"pingpong/internal/network"
)

// PlayerSession representa uma conexão do ponto de vista do jogo.
// Só é tocada pela goroutine do Hub.
type PlayerSession struct {
	Client      *network.Client
	Name        string
	MatchID     string
	ConnectedAt time.Time
}

// NewPlayerSession cria e inicializa uma nova sessão de jogador.
func NewPlayerSession(client *network.Client) *PlayerSession {
	return &PlayerSession{
		Client:      client,
		ConnectedAt: time.Now(),
	}
}

// ParticipantID é a identidade usada nas partidas: o id da conexão.
func (s *PlayerSession) ParticipantID() string {
	return s.Client.ID()
}

// Send permite usar a sessão como message.MessageSender.
func (s *PlayerSession) Send(msg network.Message) bool {
	return s.Client.Send(msg)
}
