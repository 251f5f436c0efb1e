package pong

import (
	"sync"

	"golang.org/x/exp/rand"
)

// Random sorteia o sentido da velocidade no saque.
// Sign deve devolver +1 ou -1.
type Random interface {
	Sign() float64
}

type expRandom struct {
	r *rand.Rand
}

// NewRandom cria uma fonte PCG com a seed dada. Não é segura para uso
// concorrente; cada partida tem a sua e só a usa sob o próprio lock.
func NewRandom(seed uint64) Random {
	return &expRandom{r: rand.New(rand.NewSource(seed))}
}

func (e *expRandom) Sign() float64 {
	return float64(e.r.Intn(2)*2 - 1)
}

// SignSequence devolve os sinais na ordem dada e repete o último quando acaba.
// Uma sequência vazia sempre devolve +1. Usada para saques determinísticos.
type SignSequence struct {
	mu    sync.Mutex
	signs []float64
	next  int
}

func NewSignSequence(signs ...float64) *SignSequence {
	return &SignSequence{signs: signs}
}

func (s *SignSequence) Sign() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.signs) == 0 {
		return 1
	}
	v := s.signs[s.next]
	if s.next < len(s.signs)-1 {
		s.next++
	}
	if v < 0 {
		return -1
	}
	return 1
}
