package gameroom

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"pingpong/internal/game/pong"
)

const maxNameLength = 32

// Seat é a ocupação de um lado da mesa.
type Seat struct {
	ParticipantID string    `json:"participantId"`
	Name          string    `json:"playerName"`
	Side          pong.Side `json:"playerNumber"`
}

// MatchInfo é a visão da partida exposta pela API de operação.
type MatchInfo struct {
	ID           string      `json:"matchId"`
	Status       pong.Status `json:"status"`
	Seats        []Seat      `json:"players"`
	Player1Score int         `json:"player1Score"`
	Player2Score int         `json:"player2Score"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Match liga um motor de física a um id estável e à lista de participantes.
// Todo acesso ao motor passa pelo mu: ticks e movimentos nunca se intercalam.
type Match struct {
	ID        string
	CreatedAt time.Time

	mu     sync.Mutex
	engine *pong.Engine
	roster map[string]Seat
}

// NewMatch cria a partida com o motor já inicializado.
func NewMatch(id string, rng pong.Random) *Match {
	return &Match{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		engine:    pong.NewEngine(rng),
		roster:    make(map[string]Seat, 2),
	}
}

// Admit delega a admissão ao motor e guarda o assento com o nome de exibição.
func (m *Match) Admit(participantID, name string) (pong.Side, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	side, err := m.engine.Admit(participantID)
	if err != nil {
		return pong.NoSide, err
	}
	m.roster[participantID] = Seat{
		ParticipantID: participantID,
		Name:          displayName(name, side),
		Side:          side,
	}
	return side, nil
}

func (m *Match) ParticipantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.roster)
}

// Remove tira o participante da lista e devolve quantos restam.
// A partida continua no estado em que estava.
func (m *Match) Remove(participantID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.roster[participantID]; ok {
		delete(m.roster, participantID)
		m.engine.Release(participantID)
	}
	return len(m.roster)
}

// Seat devolve o assento do participante, se houver.
func (m *Match) Seat(participantID string) (Seat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.roster[participantID]
	return seat, ok
}

// Move resolve o lado do participante e move a raquete. Devolve false
// quando o participante não está sentado nesta partida.
func (m *Match) Move(participantID string, deltaY float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	seat, ok := m.roster[participantID]
	if !ok {
		return false
	}
	m.engine.MovePaddle(seat.Side, deltaY)
	return true
}

// Step avança o motor e devolve o snapshot resultante e quem pontuou.
func (m *Match) Step(dt float64) (pong.State, pong.Side) {
	m.mu.Lock()
	defer m.mu.Unlock()

	scorer := m.engine.Advance(dt)
	return m.snapshotLocked(), scorer
}

func (m *Match) Snapshot() pong.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) Status() pong.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.Status()
}

func (m *Match) Info() MatchInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	seats := make([]Seat, 0, len(m.roster))
	for _, seat := range m.roster {
		seats = append(seats, seat)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].Side < seats[j].Side })

	state := m.engine.Snapshot()
	return MatchInfo{
		ID:           m.ID,
		Status:       state.Status,
		Seats:        seats,
		Player1Score: state.Player1Score,
		Player2Score: state.Player2Score,
		CreatedAt:    m.CreatedAt,
	}
}

func (m *Match) snapshotLocked() pong.State {
	state := m.engine.Snapshot()
	for _, seat := range m.roster {
		switch seat.Side {
		case pong.Left:
			state.Player1Name = seat.Name
		case pong.Right:
			state.Player2Name = seat.Name
		}
	}
	return state
}

// displayName limpa o nome vindo do lobby; vazio vira "Player N".
func displayName(name string, side pong.Side) string {
	name = strings.TrimSpace(name)
	if name == "" {
		if side == pong.Right {
			return "Player 2"
		}
		return "Player 1"
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		name = string([]rune(name)[:maxNameLength])
	}
	return name
}
