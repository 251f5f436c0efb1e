package message

// Isso aqui são as mensagens trocadas entre cliente e servidor.
import (
	"errors"

	"pingpong/internal/apperr"
	"pingpong/internal/game/pong"
	"pingpong/internal/network"
)

// Tipos de evento cliente -> servidor.
const (
	TypeCreateMatch = "create-match"
	TypeJoinMatch   = "join-match"
	TypePaddleMove  = "paddle-move"
	TypeLeaveMatch  = "leave-match"
	TypePing        = "ping"
)

// Tipos de evento servidor -> cliente.
const (
	TypeMatchCreated = "match-created"
	TypeJoinedMatch  = "joined-match"
	TypePeerJoined   = "peer-joined"
	TypePeerLeft     = "peer-left"
	TypeLeftMatch    = "left-match"
	TypeStateUpdate  = "state-update"
	TypeMatchClosed  = "match-closed"
	TypePong         = "pong"
	TypeError        = "error"
)

// Direções aceitas em paddle-move.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// --- Payloads de entrada ---

type CreateMatchRequest struct {
	PlayerName string `json:"playerName"`
}

type JoinMatchRequest struct {
	MatchID    string `json:"matchId"`
	PlayerName string `json:"playerName"`
}

// PaddleMoveRequest aceita deslocamento livre (deltaY) ou um passo fixo (direction).
type PaddleMoveRequest struct {
	MatchID   string  `json:"matchId"`
	DeltaY    float64 `json:"deltaY,omitempty"`
	Direction string  `json:"direction,omitempty"`
}

// --- Payloads de saída ---

type MatchJoinedPayload struct {
	MatchID      string    `json:"matchId"`
	PlayerNumber pong.Side `json:"playerNumber"`
	PlayerName   string    `json:"playerName"`
}

type PeerPayload struct {
	PlayerName   string    `json:"playerName"`
	PlayerNumber pong.Side `json:"playerNumber"`
}

type MatchPayload struct {
	MatchID string `json:"matchId"`
}

type PongPayload struct {
	ServerTime int64   `json:"serverTime"`
	RTTMillis  float64 `json:"rttMs"`
}

// ErrorClientPayload define a estrutura de uma resposta de erro.
type ErrorClientPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func CreateMatchCreated(matchID string, side pong.Side, name string) network.Message {
	return network.NewMessage(TypeMatchCreated, MatchJoinedPayload{MatchID: matchID, PlayerNumber: side, PlayerName: name})
}

func CreateJoinedMatch(matchID string, side pong.Side, name string) network.Message {
	return network.NewMessage(TypeJoinedMatch, MatchJoinedPayload{MatchID: matchID, PlayerNumber: side, PlayerName: name})
}

func CreatePeerJoined(name string, side pong.Side) network.Message {
	return network.NewMessage(TypePeerJoined, PeerPayload{PlayerName: name, PlayerNumber: side})
}

func CreatePeerLeft(name string, side pong.Side) network.Message {
	return network.NewMessage(TypePeerLeft, PeerPayload{PlayerName: name, PlayerNumber: side})
}

func CreateLeftMatch(matchID string) network.Message {
	return network.NewMessage(TypeLeftMatch, MatchPayload{MatchID: matchID})
}

func CreateMatchClosed(matchID string) network.Message {
	return network.NewMessage(TypeMatchClosed, MatchPayload{MatchID: matchID})
}

func CreateStateUpdate(state pong.State) network.Message {
	return network.NewMessage(TypeStateUpdate, state)
}

func CreatePong(serverTime int64, rttMillis float64) network.Message {
	return network.NewMessage(TypePong, PongPayload{ServerTime: serverTime, RTTMillis: rttMillis})
}

// CreateErrorResponse usa a mensagem e o código do AppError; outros erros
// viram INTERNAL_ERROR com o texto do erro.
func CreateErrorResponse(err error) network.Message {
	payload := ErrorClientPayload{Message: err.Error(), Code: apperr.CodeInternal}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		payload.Message = appErr.Message
		payload.Code = appErr.Code
	}
	return network.NewMessage(TypeError, payload)
}
