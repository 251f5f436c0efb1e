package session

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"pingpong/internal/apperr"
	"pingpong/internal/game/pong"
	"pingpong/internal/session/message"
)

func (h *GameHandler) registerMatchHandlers() {
	h.router[message.TypeCreateMatch] = handleCreateMatch
	h.router[message.TypeJoinMatch] = handleJoinMatch
	h.router[message.TypePaddleMove] = handlePaddleMove
	h.router[message.TypeLeaveMatch] = handleLeaveMatch
	h.router[message.TypePing] = handlePing
}

func decodePayload(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return apperr.Wrap(err, apperr.CodeInvalidPayload, "invalid payload")
	}
	return nil
}

func handleCreateMatch(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req message.CreateMatchRequest
	if err := decodePayload(payload, &req); err != nil {
		message.SendError(session, err)
		return
	}

	pid := session.ParticipantID()
	if current, ok := h.manager.MatchOf(pid); ok {
		message.SendError(session, apperr.ErrAlreadyInMatch.WithDetails(current))
		return
	}

	matchID := h.manager.Create()
	side, err := h.manager.Join(matchID, pid, req.PlayerName)
	if err != nil {
		h.manager.Remove(matchID)
		message.SendError(session, err)
		return
	}
	h.seat(session, matchID, side)
	session.Send(message.CreateMatchCreated(matchID, side, session.Name))
	h.hub.JoinGroup(matchID, session.Client)
	h.startAndBroadcast(matchID)
}

func handleJoinMatch(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req message.JoinMatchRequest
	if err := decodePayload(payload, &req); err != nil {
		message.SendError(session, err)
		return
	}
	matchID := strings.TrimSpace(req.MatchID)
	if matchID == "" {
		message.SendError(session, apperr.ErrInvalidPayload.WithDetails("matchId is required"))
		return
	}

	side, err := h.manager.Join(matchID, session.ParticipantID(), req.PlayerName)
	if err != nil {
		h.logger.Debug("[GameHandler] join rejected",
			"participant_id", session.ParticipantID(), "match_id", matchID, "error", err)
		message.SendError(session, err)
		return
	}
	h.seat(session, matchID, side)
	// A resposta sai antes de entrar no grupo: nenhum tick chega antes dela.
	session.Send(message.CreateJoinedMatch(matchID, side, session.Name))
	h.hub.Broadcast(matchID, message.CreatePeerJoined(session.Name, side), nil)
	h.hub.JoinGroup(matchID, session.Client)
	h.startAndBroadcast(matchID)
}

// handlePaddleMove ignora em silêncio tudo que não dá para resolver:
// partida desconhecida, jogador sem assento ou deslocamento inválido.
func handlePaddleMove(h *GameHandler, session *PlayerSession, payload json.RawMessage) {
	var req message.PaddleMoveRequest
	if err := decodePayload(payload, &req); err != nil {
		return
	}

	deltaY := req.DeltaY
	switch req.Direction {
	case message.DirectionUp:
		deltaY = -pong.PaddleStep
	case message.DirectionDown:
		deltaY = pong.PaddleStep
	}
	if math.IsNaN(deltaY) || math.IsInf(deltaY, 0) || deltaY == 0 {
		return
	}

	matchID := req.MatchID
	if matchID == "" {
		matchID = session.MatchID
	}
	h.manager.MovePaddle(matchID, session.ParticipantID(), deltaY)
}

func handleLeaveMatch(h *GameHandler, session *PlayerSession, _ json.RawMessage) {
	matchID, ok := h.manager.MatchOf(session.ParticipantID())
	if !ok {
		return
	}
	h.hub.LeaveGroup(matchID, session.Client)
	h.leaveMatch(session)
	session.Send(message.CreateLeftMatch(matchID))
}

func handlePing(h *GameHandler, session *PlayerSession, _ json.RawMessage) {
	rtt := float64(session.Client.RTT()) / float64(time.Millisecond)
	session.Send(message.CreatePong(time.Now().UnixMilli(), rtt))
}

// seat guarda na sessão a partida e o nome já tratado.
func (h *GameHandler) seat(session *PlayerSession, matchID string, side pong.Side) {
	session.MatchID = matchID
	session.Name = ""
	if match := h.manager.Get(matchID); match != nil {
		if s, ok := match.Seat(session.ParticipantID()); ok {
			session.Name = s.Name
		}
	}
	h.logger.Info("[GameHandler] player seated",
		"participant_id", session.ParticipantID(), "match_id", matchID, "side", side.String(), "name", session.Name)
}

// startAndBroadcast inicia o loop (idempotente) e manda o estado na hora,
// sem esperar o próximo tick.
func (h *GameHandler) startAndBroadcast(matchID string) {
	h.manager.StartLoop(matchID, h.BroadcastState)
	if match := h.manager.Get(matchID); match != nil {
		h.BroadcastState(matchID, match.Snapshot())
	}
}

// leaveMatch tira o jogador da partida e avisa quem ficou.
func (h *GameHandler) leaveMatch(session *PlayerSession) {
	pid := session.ParticipantID()
	matchID, ok := h.manager.MatchOf(pid)
	if !ok {
		session.MatchID = ""
		return
	}

	var seat struct {
		name string
		side pong.Side
	}
	if match := h.manager.Get(matchID); match != nil {
		if s, found := match.Seat(pid); found {
			seat.name, seat.side = s.Name, s.Side
		}
	}

	if _, left := h.manager.Leave(pid); left {
		h.hub.Broadcast(matchID, message.CreatePeerLeft(seat.name, seat.side), session.Client)
	}
	session.MatchID = ""
}
