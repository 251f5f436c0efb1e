package gameroom

import (
	"sync"
	"time"

	"pingpong/internal/game/pong"
)

// TickHandler recebe o snapshot de cada tick. Roda na goroutine do loop e
// não pode chamar StopLoop da mesma partida (stop espera o loop terminar).
type TickHandler func(matchID string, state pong.State)

// loop é a tarefa periódica de uma partida.
type loop struct {
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// startLoop dispara a goroutine do ticker. onTick recebe também quem pontuou.
func startLoop(match *Match, period time.Duration, onTick func(pong.State, pong.Side)) *loop {
	l := &loop{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		defer close(l.done)

		for {
			select {
			case <-l.quit:
				return
			case <-ticker.C:
				// quit e ticker podem estar prontos juntos; quit ganha.
				select {
				case <-l.quit:
					return
				default:
				}
				state, scorer := match.Step(1)
				onTick(state, scorer)
			}
		}
	}()

	return l
}

// stop cancela o loop e só retorna depois que a goroutine saiu,
// então nenhum tick dispara depois disso. Pode ser chamado várias vezes.
func (l *loop) stop() {
	l.stopOnce.Do(func() { close(l.quit) })
	<-l.done
}
