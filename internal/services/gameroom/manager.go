package gameroom

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"pingpong/internal/apperr"
	"pingpong/internal/game/pong"
	"pingpong/internal/services/events"

	"github.com/google/uuid"
)

// DefaultTickPeriod é um tick a 60 Hz.
const DefaultTickPeriod = time.Second / pong.TickRate

// Options configura o Manager. Campos zerados usam os padrões.
type Options struct {
	TickPeriod time.Duration
	NewRandom  func() pong.Random
	Publisher  events.Publisher
	// OnClose é chamado (fora de qualquer lock) sempre que uma partida é removida.
	OnClose func(matchID string)
}

// Manager é o registro de partidas e o único dono dos loops de tick.
// Cada registro tem o seu lock; nenhum é mantido durante um broadcast.
type Manager struct {
	matchesMu sync.RWMutex
	matches   map[string]*Match

	participantsMu   sync.RWMutex
	participantMatch map[string]string

	loopsMu sync.Mutex
	loops   map[string]*loop

	tickPeriod time.Duration
	newRandom  func() pong.Random
	publisher  events.Publisher
	onClose    func(matchID string)
	logger     *slog.Logger
}

func NewManager(opts Options, logger *slog.Logger) *Manager {
	if opts.TickPeriod <= 0 {
		opts.TickPeriod = DefaultTickPeriod
	}
	if opts.NewRandom == nil {
		opts.NewRandom = func() pong.Random { return pong.NewRandom(uint64(time.Now().UnixNano())) }
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NopPublisher{}
	}
	return &Manager{
		matches:          make(map[string]*Match),
		participantMatch: make(map[string]string),
		loops:            make(map[string]*loop),
		tickPeriod:       opts.TickPeriod,
		newRandom:        opts.NewRandom,
		publisher:        opts.Publisher,
		onClose:          opts.OnClose,
		logger:           logger.With("component", "gameroom"),
	}
}

// Create registra uma partida nova e devolve o id. Nunca falha.
func (rm *Manager) Create() string {
	id := uuid.NewString()
	match := NewMatch(id, rm.newRandom())

	rm.matchesMu.Lock()
	rm.matches[id] = match
	rm.matchesMu.Unlock()

	rm.logger.Info("[Manager] match created", "match_id", id)
	rm.publish(events.Event{Type: events.TypeMatchCreated, MatchID: id})
	return id
}

// Join admite o participante na partida e passa a rastreá-lo.
func (rm *Manager) Join(matchID, participantID, name string) (pong.Side, error) {
	match := rm.Get(matchID)
	if match == nil {
		return pong.NoSide, apperr.ErrMatchNotFound.WithDetails(matchID)
	}

	rm.participantsMu.RLock()
	current, tracked := rm.participantMatch[participantID]
	rm.participantsMu.RUnlock()
	if tracked {
		if current == matchID {
			return pong.NoSide, apperr.ErrAlreadyJoined
		}
		return pong.NoSide, apperr.ErrAlreadyInMatch.WithDetails(current)
	}

	wasWaiting := match.Status() == pong.StatusWaiting
	side, err := match.Admit(participantID, name)
	if err != nil {
		return pong.NoSide, err
	}

	rm.participantsMu.Lock()
	rm.participantMatch[participantID] = matchID
	rm.participantsMu.Unlock()

	// A partida pode ter sido removida entre o Get e o registro acima.
	if rm.Get(matchID) == nil {
		rm.participantsMu.Lock()
		delete(rm.participantMatch, participantID)
		rm.participantsMu.Unlock()
		return pong.NoSide, apperr.ErrMatchNotFound.WithDetails(matchID)
	}

	seat, _ := match.Seat(participantID)
	rm.logger.Info("[Manager] participant joined",
		"match_id", matchID, "participant_id", participantID, "side", side.String())
	rm.publish(events.Event{
		Type:          events.TypePlayerJoined,
		MatchID:       matchID,
		ParticipantID: participantID,
		PlayerName:    seat.Name,
		PlayerNumber:  int(side),
	})
	if wasWaiting && match.Status() == pong.StatusPlaying {
		rm.publish(events.Event{Type: events.TypeMatchStarted, MatchID: matchID})
	}
	return side, nil
}

// Get devolve a partida ou nil.
func (rm *Manager) Get(matchID string) *Match {
	rm.matchesMu.RLock()
	defer rm.matchesMu.RUnlock()
	return rm.matches[matchID]
}

// MatchOf devolve o id da partida que o participante ocupa.
func (rm *Manager) MatchOf(participantID string) (string, bool) {
	rm.participantsMu.RLock()
	defer rm.participantsMu.RUnlock()
	matchID, ok := rm.participantMatch[participantID]
	return matchID, ok
}

// Remove apaga a partida, para o loop e limpa os participantes.
// Remover um id inexistente devolve false.
func (rm *Manager) Remove(matchID string) bool {
	rm.matchesMu.Lock()
	_, ok := rm.matches[matchID]
	delete(rm.matches, matchID)
	rm.matchesMu.Unlock()

	if !ok {
		return false
	}
	rm.afterRemove(matchID)
	return true
}

// removeIfEmpty só remove se ninguém entrou entre o último Leave e agora.
func (rm *Manager) removeIfEmpty(matchID string) {
	rm.matchesMu.Lock()
	match, ok := rm.matches[matchID]
	if !ok || match.ParticipantCount() > 0 {
		rm.matchesMu.Unlock()
		return
	}
	delete(rm.matches, matchID)
	rm.matchesMu.Unlock()

	rm.afterRemove(matchID)
}

func (rm *Manager) afterRemove(matchID string) {
	rm.participantsMu.Lock()
	for participantID, id := range rm.participantMatch {
		if id == matchID {
			delete(rm.participantMatch, participantID)
		}
	}
	rm.participantsMu.Unlock()

	rm.StopLoop(matchID)

	rm.logger.Info("[Manager] match removed", "match_id", matchID)
	rm.publish(events.Event{Type: events.TypeMatchClosed, MatchID: matchID})
	if rm.onClose != nil {
		rm.onClose(matchID)
	}
}

// StartLoop inicia o tick da partida. Não faz nada se a partida não existe ou
// se já há um loop rodando, então pode ser chamado em toda admissão.
func (rm *Manager) StartLoop(matchID string, handler TickHandler) {
	rm.loopsMu.Lock()
	defer rm.loopsMu.Unlock()

	if _, running := rm.loops[matchID]; running {
		return
	}
	match := rm.Get(matchID)
	if match == nil {
		return
	}

	rm.loops[matchID] = startLoop(match, rm.tickPeriod, func(state pong.State, scorer pong.Side) {
		if scorer != pong.NoSide {
			rm.publish(events.Event{
				Type:         events.TypePointScored,
				MatchID:      matchID,
				PlayerNumber: int(scorer),
				Player1Score: state.Player1Score,
				Player2Score: state.Player2Score,
			})
		}
		if handler != nil {
			handler(matchID, state)
		}
	})
	rm.logger.Debug("[Manager] loop started", "match_id", matchID, "period", rm.tickPeriod)
}

// StopLoop cancela o loop, se houver, e espera o último tick terminar.
func (rm *Manager) StopLoop(matchID string) {
	rm.loopsMu.Lock()
	l, ok := rm.loops[matchID]
	delete(rm.loops, matchID)
	rm.loopsMu.Unlock()

	if ok {
		l.stop()
		rm.logger.Debug("[Manager] loop stopped", "match_id", matchID)
	}
}

// LoopRunning informa se a partida tem um loop registrado.
func (rm *Manager) LoopRunning(matchID string) bool {
	rm.loopsMu.Lock()
	defer rm.loopsMu.Unlock()
	_, ok := rm.loops[matchID]
	return ok
}

// MovePaddle move a raquete do participante. Partida ou participante
// desconhecidos são ignorados em silêncio.
func (rm *Manager) MovePaddle(matchID, participantID string, deltaY float64) bool {
	match := rm.Get(matchID)
	if match == nil {
		return false
	}
	return match.Move(participantID, deltaY)
}

// Leave tira o participante da partida que ele ocupa. Partida vazia é removida.
func (rm *Manager) Leave(participantID string) (string, bool) {
	rm.participantsMu.Lock()
	matchID, ok := rm.participantMatch[participantID]
	delete(rm.participantMatch, participantID)
	rm.participantsMu.Unlock()

	if !ok {
		return "", false
	}

	match := rm.Get(matchID)
	if match == nil {
		return matchID, true
	}

	seat, _ := match.Seat(participantID)
	remaining := match.Remove(participantID)
	rm.logger.Info("[Manager] participant left",
		"match_id", matchID, "participant_id", participantID, "remaining", remaining)
	rm.publish(events.Event{
		Type:          events.TypePlayerLeft,
		MatchID:       matchID,
		ParticipantID: participantID,
		PlayerName:    seat.Name,
		PlayerNumber:  int(seat.Side),
	})

	if remaining == 0 {
		rm.removeIfEmpty(matchID)
	}
	return matchID, true
}

// List devolve as partidas ordenadas pela criação.
func (rm *Manager) List() []MatchInfo {
	rm.matchesMu.RLock()
	matches := make([]*Match, 0, len(rm.matches))
	for _, m := range rm.matches {
		matches = append(matches, m)
	}
	rm.matchesMu.RUnlock()

	infos := make([]MatchInfo, 0, len(matches))
	for _, m := range matches {
		infos = append(infos, m.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

func (rm *Manager) Stats() map[string]int {
	rm.matchesMu.RLock()
	matches := len(rm.matches)
	rm.matchesMu.RUnlock()

	rm.participantsMu.RLock()
	participants := len(rm.participantMatch)
	rm.participantsMu.RUnlock()

	rm.loopsMu.Lock()
	loops := len(rm.loops)
	rm.loopsMu.Unlock()

	return map[string]int{
		"matches":      matches,
		"participants": participants,
		"loops":        loops,
	}
}

// Close para todos os loops. As partidas continuam registradas.
func (rm *Manager) Close() {
	rm.loopsMu.Lock()
	loops := rm.loops
	rm.loops = make(map[string]*loop)
	rm.loopsMu.Unlock()

	for _, l := range loops {
		l.stop()
	}
	rm.logger.Info("[Manager] all loops stopped", "count", len(loops))
}

func (rm *Manager) publish(ev events.Event) {
	if err := rm.publisher.Publish(ev); err != nil {
		rm.logger.Warn("[Manager] publish event failed", "type", ev.Type, "match_id", ev.MatchID, "error", err)
	}
}
