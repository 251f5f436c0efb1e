package gameroom_test

import (
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pingpong/internal/apperr"
	"pingpong/internal/game/pong"
	"pingpong/internal/services/events"
	"pingpong/internal/services/gameroom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// recorder guarda os eventos publicados.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

func newTestManager(t *testing.T, opts gameroom.Options) *gameroom.Manager {
	t.Helper()
	if opts.TickPeriod == 0 {
		opts.TickPeriod = time.Millisecond
	}
	if opts.NewRandom == nil {
		opts.NewRandom = func() pong.Random { return pong.NewSignSequence(1, 1) }
	}
	rm := gameroom.NewManager(opts, testLogger())
	t.Cleanup(rm.Close)
	return rm
}

func TestManager_CreateAndJoin(t *testing.T) {
	rec := &recorder{}
	rm := newTestManager(t, gameroom.Options{Publisher: rec})

	id := rm.Create()
	require.NotEmpty(t, id)
	require.NotNil(t, rm.Get(id))
	assert.NotEqual(t, id, rm.Create(), "ids are unique")

	side, err := rm.Join(id, "p1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, pong.Left, side)

	side, err = rm.Join(id, "p2", "Bob")
	require.NoError(t, err)
	assert.Equal(t, pong.Right, side)

	matchID, ok := rm.MatchOf("p2")
	assert.True(t, ok)
	assert.Equal(t, id, matchID)
	assert.Equal(t, pong.StatusPlaying, rm.Get(id).Status())

	assert.Equal(t, []string{
		events.TypeMatchCreated,
		events.TypeMatchCreated,
		events.TypePlayerJoined,
		events.TypePlayerJoined,
		events.TypeMatchStarted,
	}, rec.types())
}

func TestManager_JoinErrors(t *testing.T) {
	rm := newTestManager(t, gameroom.Options{})
	id := rm.Create()
	other := rm.Create()
	_, err := rm.Join(id, "p1", "A")
	require.NoError(t, err)
	_, err = rm.Join(id, "p2", "B")
	require.NoError(t, err)

	tests := []struct {
		name          string
		matchID       string
		participantID string
		wantErr       error
	}{
		{name: "unknown match", matchID: "nope", participantID: "p3", wantErr: apperr.ErrMatchNotFound},
		{name: "already joined", matchID: id, participantID: "p1", wantErr: apperr.ErrAlreadyJoined},
		{name: "in another match", matchID: other, participantID: "p1", wantErr: apperr.ErrAlreadyInMatch},
		{name: "match full", matchID: id, participantID: "p3", wantErr: apperr.ErrMatchFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rm.Join(tt.matchID, tt.participantID, "X")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 2, rm.Get(id).ParticipantCount())
	_, tracked := rm.MatchOf("p3")
	assert.False(t, tracked, "failed join is not tracked")
}

func TestManager_RemoveIsIdempotent(t *testing.T) {
	var closed []string
	rm := newTestManager(t, gameroom.Options{OnClose: func(id string) { closed = append(closed, id) }})
	id := rm.Create()
	_, _ = rm.Join(id, "p1", "A")
	rm.StartLoop(id, nil)
	require.True(t, rm.LoopRunning(id))

	assert.True(t, rm.Remove(id))
	assert.False(t, rm.Remove(id))
	assert.False(t, rm.Remove("never-existed"))

	assert.Nil(t, rm.Get(id))
	assert.False(t, rm.LoopRunning(id))
	_, tracked := rm.MatchOf("p1")
	assert.False(t, tracked)
	assert.Equal(t, []string{id}, closed)
}

func TestManager_StartLoopTicksAndIsIdempotent(t *testing.T) {
	rm := newTestManager(t, gameroom.Options{})
	id := rm.Create()
	_, _ = rm.Join(id, "p1", "A")
	_, _ = rm.Join(id, "p2", "B")

	var ticks atomic.Int64
	handler := func(matchID string, state pong.State) {
		assert.Equal(t, id, matchID)
		ticks.Add(1)
	}
	rm.StartLoop(id, handler)
	rm.StartLoop(id, handler)
	rm.StartLoop("missing", handler)

	assert.Equal(t, 1, rm.Stats()["loops"])
	require.Eventually(t, func() bool { return ticks.Load() >= 5 }, time.Second, time.Millisecond)
	assert.Greater(t, rm.Get(id).Snapshot().BallX, 400.0)
}

func TestManager_NoTickAfterStopLoop(t *testing.T) {
	rm := newTestManager(t, gameroom.Options{})
	id := rm.Create()
	_, _ = rm.Join(id, "p1", "A")

	var ticks atomic.Int64
	rm.StartLoop(id, func(string, pong.State) { ticks.Add(1) })
	require.Eventually(t, func() bool { return ticks.Load() > 0 }, time.Second, time.Millisecond)

	rm.StopLoop(id)
	after := ticks.Load()
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, after, ticks.Load())
	assert.False(t, rm.LoopRunning(id))
	rm.StopLoop(id)

	// O loop pode ser reiniciado depois de parado.
	rm.StartLoop(id, nil)
	assert.True(t, rm.LoopRunning(id))
}

func TestManager_LeaveLastParticipantRemovesMatch(t *testing.T) {
	rec := &recorder{}
	rm := newTestManager(t, gameroom.Options{Publisher: rec})
	id := rm.Create()
	_, _ = rm.Join(id, "p1", "A")
	_, _ = rm.Join(id, "p2", "B")
	rm.StartLoop(id, nil)

	matchID, ok := rm.Leave("p1")
	assert.True(t, ok)
	assert.Equal(t, id, matchID)
	require.NotNil(t, rm.Get(id), "one participant still there")
	assert.Equal(t, pong.StatusPlaying, rm.Get(id).Status())
	assert.True(t, rm.LoopRunning(id))

	_, ok = rm.Leave("p2")
	assert.True(t, ok)
	assert.Nil(t, rm.Get(id))
	assert.False(t, rm.LoopRunning(id))

	_, ok = rm.Leave("p2")
	assert.False(t, ok)

	assert.Contains(t, rec.types(), events.TypePlayerLeft)
	assert.Equal(t, events.TypeMatchClosed, rec.types()[len(rec.types())-1])
}

func TestManager_RejoinAfterLeaveTakesFreeSide(t *testing.T) {
	rm := newTestManager(t, gameroom.Options{})
	id := rm.Create()
	_, _ = rm.Join(id, "p1", "A")
	_, _ = rm.Join(id, "p2", "B")

	_, _ = rm.Leave("p1")
	side, err := rm.Join(id, "p3", "C")
	require.NoError(t, err)
	assert.Equal(t, pong.Left, side)

	_, err = rm.Join(id, "p1", "A")
	assert.ErrorIs(t, err, apperr.ErrMatchFull)
}

func TestManager_MovePaddle(t *testing.T) {
	rm := newTestManager(t, gameroom.Options{})
	id := rm.Create()
	_, _ = rm.Join(id, "p1", "A")

	assert.True(t, rm.MovePaddle(id, "p1", 1000))
	assert.False(t, rm.MovePaddle(id, "ghost", 10))
	assert.False(t, rm.MovePaddle("nope", "p1", 10))

	assert.Equal(t, pong.FieldHeight-pong.PaddleHeight, rm.Get(id).Snapshot().Player1PaddleY)
}

func TestManager_PointScoredEventIsPublished(t *testing.T) {
	rec := &recorder{}
	rm := newTestManager(t, gameroom.Options{Publisher: rec})
	id := rm.Create()
	_, _ = rm.Join(id, "p1", "A")
	_, _ = rm.Join(id, "p2", "B")
	// Raquetes no topo: a bola desce e passa sem rebater.
	rm.MovePaddle(id, "p1", -1000)
	rm.MovePaddle(id, "p2", -1000)

	rm.StartLoop(id, nil)

	require.Eventually(t, func() bool {
		for _, tp := range rec.types() {
			if tp == events.TypePointScored {
				return true
			}
		}
		return false
	}, 5*time.Second, 5*time.Millisecond)
	rm.StopLoop(id)

	s := rm.Get(id).Snapshot()
	assert.Greater(t, s.Player1Score+s.Player2Score, 0)
}

func TestManager_List(t *testing.T) {
	rm := newTestManager(t, gameroom.Options{})
	first := rm.Create()
	time.Sleep(time.Millisecond)
	second := rm.Create()

	infos := rm.List()
	require.Len(t, infos, 2)
	assert.Equal(t, first, infos[0].ID)
	assert.Equal(t, second, infos[1].ID)
	assert.Equal(t, pong.StatusWaiting, infos[0].Status)
}

func TestManager_ConcurrentJoins(t *testing.T) {
	rm := newTestManager(t, gameroom.Options{})
	id := rm.Create()

	var wg sync.WaitGroup
	var admitted atomic.Int64
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := rm.Join(id, string(rune('a'+n)), "X"); err == nil {
				admitted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(2), admitted.Load())
	assert.Equal(t, 2, rm.Get(id).ParticipantCount())
	assert.Equal(t, 2, rm.Stats()["participants"])
}
