package session

import (
	"encoding/json"
	"log/slog"

	"pingpong/internal/apperr"
	"pingpong/internal/game/pong"
	"pingpong/internal/network"
	"pingpong/internal/services/gameroom"
	"pingpong/internal/session/message"
)

// CommandHandlerFunc define a assinatura para todas as funções que lidam com comandos.
// Elas recebem o contexto da sessão e o payload bruto da mensagem.
type CommandHandlerFunc func(h *GameHandler, session *PlayerSession, payload json.RawMessage)

// Broadcaster é o que o handler usa do network.Hub.
type Broadcaster interface {
	JoinGroup(group string, c *network.Client)
	LeaveGroup(group string, c *network.Client)
	CloseGroup(group string)
	Broadcast(group string, msg network.Message, except *network.Client) int
}

// GameHandler liga os eventos da rede ao gerenciador de partidas.
// Cada partida é um grupo no Hub com o mesmo id.
type GameHandler struct {
	// Acessado SOMENTE pela goroutine do Hub.
	sessions map[*network.Client]*PlayerSession

	manager *gameroom.Manager
	hub     Broadcaster
	router  map[string]CommandHandlerFunc
	logger  *slog.Logger
}

// NewGameHandler inicializa o handler e registra o roteador de comandos.
// O hub é ligado depois com AttachHub, porque ele nasce junto com o servidor.
func NewGameHandler(manager *gameroom.Manager, logger *slog.Logger) *GameHandler {
	h := &GameHandler{
		sessions: make(map[*network.Client]*PlayerSession),
		manager:  manager,
		router:   make(map[string]CommandHandlerFunc),
		logger:   logger.With("component", "session"),
	}
	h.registerMatchHandlers()
	return h
}

func (h *GameHandler) AttachHub(hub Broadcaster) {
	h.hub = hub
}

// --- Implementação da Interface network.EventHandler ---

// OnConnect é chamado pela goroutine do network.Hub. É seguro modificar o estado aqui.
func (h *GameHandler) OnConnect(c *network.Client) {
	h.sessions[c] = NewPlayerSession(c)
	h.logger.Info("[GameHandler] session created",
		"participant_id", c.ID(), "remote_addr", c.RemoteAddr(), "sessions", len(h.sessions))
}

// OnDisconnect tira o jogador da partida; o Hub já o removeu dos grupos.
func (h *GameHandler) OnDisconnect(c *network.Client) {
	session, ok := h.sessions[c]
	if !ok {
		return
	}
	h.leaveMatch(session)
	delete(h.sessions, c)
	h.logger.Info("[GameHandler] session removed",
		"participant_id", c.ID(), "sessions", len(h.sessions))
}

// OnMessage é um despachante simples.
func (h *GameHandler) OnMessage(c *network.Client, msg network.Message) {
	session, ok := h.sessions[c]
	if !ok {
		return // Ignora mensagens de clientes sem sessão.
	}

	handler, found := h.router[msg.Type]
	if !found {
		message.SendError(session, apperr.ErrUnknownEvent.WithDetails(msg.Type))
		return
	}
	handler(h, session, msg.Payload)
}

// BroadcastState é o TickHandler das partidas. Roda na goroutine do loop.
func (h *GameHandler) BroadcastState(matchID string, state pong.State) {
	h.hub.Broadcast(matchID, message.CreateStateUpdate(state), nil)
}

// OnMatchClosed avisa quem ainda estiver no grupo e desfaz o grupo.
// Pode ser chamado de qualquer goroutine.
func (h *GameHandler) OnMatchClosed(matchID string) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(matchID, message.CreateMatchClosed(matchID), nil)
	h.hub.CloseGroup(matchID)
}
