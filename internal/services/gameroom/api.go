package gameroom

import (
	"encoding/json"
	"net/http"

	"pingpong/internal/apperr"
	"pingpong/internal/game/pong"
)

// ============================================================================
// DTOs da API
// ============================================================================

// CreateRoomResponse é devolvido por POST /rooms.
type CreateRoomResponse struct {
	MatchID string `json:"matchId"`
}

// RoomDetails é devolvido por GET /rooms/{id}.
type RoomDetails struct {
	MatchInfo
	State       pong.State `json:"state"`
	LoopRunning bool       `json:"loopRunning"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ============================================================================
// Configuração dos Handlers
// ============================================================================

// RegisterHandlers configura a API de operação das salas.
func RegisterHandlers(mux *http.ServeMux, rm *Manager) {
	mux.HandleFunc("POST /rooms", handleCreateRoom(rm))
	mux.HandleFunc("GET /rooms", handleListRooms(rm))
	mux.HandleFunc("GET /rooms/{id}", handleGetRoom(rm))
	mux.HandleFunc("DELETE /rooms/{id}", handleDeleteRoom(rm))
}

// ============================================================================
// Implementação dos Handlers
// ============================================================================

func handleCreateRoom(rm *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := rm.Create()
		writeJSON(w, http.StatusCreated, CreateRoomResponse{MatchID: id})
	}
}

func handleListRooms(rm *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, rm.List())
	}
}

func handleGetRoom(rm *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		match := rm.Get(id)
		if match == nil {
			writeError(w, http.StatusNotFound, apperr.ErrMatchNotFound)
			return
		}
		writeJSON(w, http.StatusOK, RoomDetails{
			MatchInfo:   match.Info(),
			State:       match.Snapshot(),
			LoopRunning: rm.LoopRunning(id),
		})
	}
}

func handleDeleteRoom(rm *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rm.Remove(r.PathValue("id")) {
			writeError(w, http.StatusNotFound, apperr.ErrMatchNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *apperr.AppError) {
	writeJSON(w, status, errorResponse{Error: err.Message, Code: err.Code})
}
