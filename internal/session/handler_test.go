package session_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"pingpong/internal/apperr"
	"pingpong/internal/game/pong"
	"pingpong/internal/network"
	"pingpong/internal/services/gameroom"
	"pingpong/internal/session"
	"pingpong/internal/session/message"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// newTestServer sobe o servidor completo (hub, handler, manager) num httptest.
func newTestServer(t *testing.T) (*gameroom.Manager, string) {
	t.Helper()
	logger := testLogger()

	var handler *session.GameHandler
	manager := gameroom.NewManager(gameroom.Options{
		TickPeriod: 5 * time.Millisecond,
		NewRandom:  func() pong.Random { return pong.NewSignSequence(1, 1) },
		OnClose:    func(id string) { handler.OnMatchClosed(id) },
	}, logger)
	handler = session.NewGameHandler(manager, logger)

	server := network.NewServer(handler, nil, logger)
	handler.AttachHub(server.Hub())
	server.Start()

	ts := httptest.NewServer(http.HandlerFunc(server.ServeWS))
	t.Cleanup(func() {
		ts.Close()
		server.Hub().Stop()
		manager.Close()
	})
	return manager, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(network.NewMessage(msgType, payload)))
}

// readUntil lê mensagens até achar uma do tipo pedido que satisfaça match.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string, match func(network.Message) bool) network.Message {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg network.Message
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type == msgType && (match == nil || match(msg)) {
			return msg
		}
	}
}

func decode[T any](t *testing.T, msg network.Message) T {
	t.Helper()
	var v T
	require.NoError(t, msg.DecodePayload(&v))
	return v
}

func createMatch(t *testing.T, conn *websocket.Conn, name string) message.MatchJoinedPayload {
	t.Helper()
	send(t, conn, message.TypeCreateMatch, message.CreateMatchRequest{PlayerName: name})
	return decode[message.MatchJoinedPayload](t, readUntil(t, conn, message.TypeMatchCreated, nil))
}

func TestGameHandler_CreateAndJoinFlow(t *testing.T) {
	manager, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	created := createMatch(t, alice, "Alice")
	require.NotEmpty(t, created.MatchID)
	assert.Equal(t, pong.Left, created.PlayerNumber)
	assert.Equal(t, "Alice", created.PlayerName)

	waiting := decode[pong.State](t, readUntil(t, alice, message.TypeStateUpdate, nil))
	assert.Equal(t, pong.StatusWaiting, waiting.Status)
	assert.Equal(t, "Alice", waiting.Player1Name)

	send(t, bob, message.TypeJoinMatch, message.JoinMatchRequest{MatchID: created.MatchID, PlayerName: "Bob"})
	joined := decode[message.MatchJoinedPayload](t, readUntil(t, bob, message.TypeJoinedMatch, nil))
	assert.Equal(t, created.MatchID, joined.MatchID)
	assert.Equal(t, pong.Right, joined.PlayerNumber)

	peer := decode[message.PeerPayload](t, readUntil(t, alice, message.TypePeerJoined, nil))
	assert.Equal(t, "Bob", peer.PlayerName)
	assert.Equal(t, pong.Right, peer.PlayerNumber)

	playing := func(msg network.Message) bool {
		return decode[pong.State](t, msg).Status == pong.StatusPlaying
	}
	for _, conn := range []*websocket.Conn{alice, bob} {
		s := decode[pong.State](t, readUntil(t, conn, message.TypeStateUpdate, playing))
		assert.Equal(t, "Alice", s.Player1Name)
		assert.Equal(t, "Bob", s.Player2Name)
		assert.Equal(t, 800.0, s.GameWidth)
	}

	assert.True(t, manager.LoopRunning(created.MatchID))
	assert.Equal(t, 2, manager.Get(created.MatchID).ParticipantCount())
}

func TestGameHandler_JoinErrors(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)
	carol := dial(t, url)

	created := createMatch(t, alice, "Alice")
	send(t, bob, message.TypeJoinMatch, message.JoinMatchRequest{MatchID: created.MatchID, PlayerName: "Bob"})
	readUntil(t, bob, message.TypeJoinedMatch, nil)

	tests := []struct {
		name     string
		conn     *websocket.Conn
		msgType  string
		payload  any
		wantCode string
	}{
		{
			name:     "match full",
			conn:     carol,
			msgType:  message.TypeJoinMatch,
			payload:  message.JoinMatchRequest{MatchID: created.MatchID, PlayerName: "Carol"},
			wantCode: apperr.CodeMatchFull,
		},
		{
			name:     "already joined",
			conn:     bob,
			msgType:  message.TypeJoinMatch,
			payload:  message.JoinMatchRequest{MatchID: created.MatchID, PlayerName: "Bob"},
			wantCode: apperr.CodeAlreadyJoined,
		},
		{
			name:     "unknown match",
			conn:     carol,
			msgType:  message.TypeJoinMatch,
			payload:  message.JoinMatchRequest{MatchID: "missing", PlayerName: "Carol"},
			wantCode: apperr.CodeMatchNotFound,
		},
		{
			name:     "missing match id",
			conn:     carol,
			msgType:  message.TypeJoinMatch,
			payload:  message.JoinMatchRequest{PlayerName: "Carol"},
			wantCode: apperr.CodeInvalidPayload,
		},
		{
			name:     "create while seated",
			conn:     alice,
			msgType:  message.TypeCreateMatch,
			payload:  message.CreateMatchRequest{PlayerName: "Alice"},
			wantCode: apperr.CodeAlreadyInMatch,
		},
		{
			name:     "unknown event",
			conn:     carol,
			msgType:  "serve-ball",
			payload:  nil,
			wantCode: apperr.CodeUnknownEvent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, tt.conn, tt.msgType, tt.payload)
			errPayload := decode[message.ErrorClientPayload](t, readUntil(t, tt.conn, message.TypeError, nil))
			assert.Equal(t, tt.wantCode, errPayload.Code)
			assert.NotEmpty(t, errPayload.Message)
		})
	}
}

func TestGameHandler_PaddleMove(t *testing.T) {
	_, url := newTestServer(t)
	alice := dial(t, url)

	created := createMatch(t, alice, "Alice")

	send(t, alice, message.TypePaddleMove, message.PaddleMoveRequest{MatchID: created.MatchID, Direction: message.DirectionUp})
	send(t, alice, message.TypePaddleMove, message.PaddleMoveRequest{DeltaY: -2})
	// Partida errada: ignorado sem erro.
	send(t, alice, message.TypePaddleMove, message.PaddleMoveRequest{MatchID: "other", DeltaY: 100})

	want := 250.0 - pong.PaddleStep - 2
	s := decode[pong.State](t, readUntil(t, alice, message.TypeStateUpdate, func(msg network.Message) bool {
		return decode[pong.State](t, msg).Player1PaddleY == want
	}))
	assert.Equal(t, want, s.Player1PaddleY)
	assert.Equal(t, 250.0, s.Player2PaddleY)
}

func TestGameHandler_DisconnectNotifiesPeerAndCleansUp(t *testing.T) {
	manager, url := newTestServer(t)
	alice := dial(t, url)
	bob := dial(t, url)

	created := createMatch(t, alice, "Alice")
	send(t, bob, message.TypeJoinMatch, message.JoinMatchRequest{MatchID: created.MatchID, PlayerName: "Bob"})
	readUntil(t, bob, message.TypeJoinedMatch, nil)

	alice.Close()
	peer := decode[message.PeerPayload](t, readUntil(t, bob, message.TypePeerLeft, nil))
	assert.Equal(t, "Alice", peer.PlayerName)
	assert.Equal(t, pong.Left, peer.PlayerNumber)

	// Quem fica continua jogando.
	require.NotNil(t, manager.Get(created.MatchID))
	assert.Equal(t, pong.StatusPlaying, manager.Get(created.MatchID).Status())

	send(t, bob, message.TypeLeaveMatch, nil)
	left := decode[message.MatchPayload](t, readUntil(t, bob, message.TypeLeftMatch, nil))
	assert.Equal(t, created.MatchID, left.MatchID)

	assert.Eventually(t, func() bool { return manager.Get(created.MatchID) == nil }, time.Second, 5*time.Millisecond)
	assert.False(t, manager.LoopRunning(created.MatchID))
}

func TestGameHandler_MatchClosedByOperator(t *testing.T) {
	manager, url := newTestServer(t)
	alice := dial(t, url)

	created := createMatch(t, alice, "Alice")
	readUntil(t, alice, message.TypeStateUpdate, nil)

	require.True(t, manager.Remove(created.MatchID))
	closed := decode[message.MatchPayload](t, readUntil(t, alice, message.TypeMatchClosed, nil))
	assert.Equal(t, created.MatchID, closed.MatchID)

	// Depois do encerramento o jogador pode criar outra partida.
	again := createMatch(t, alice, "Alice")
	assert.NotEqual(t, created.MatchID, again.MatchID)
}

func TestGameHandler_Ping(t *testing.T) {
	_, url := newTestServer(t)
	conn := dial(t, url)

	send(t, conn, message.TypePing, nil)
	pongMsg := decode[message.PongPayload](t, readUntil(t, conn, message.TypePong, nil))
	assert.NotZero(t, pongMsg.ServerTime)
}
