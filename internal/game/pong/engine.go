package pong

import (
	"math"

	"pingpong/internal/apperr"
)

// Engine guarda o estado físico de uma partida. Não é seguro para uso
// concorrente: a Match que o possui serializa todas as chamadas.
type Engine struct {
	ballX, ballY float64
	vx, vy       float64

	paddleY [3]float64 // indexado por Side
	score   [3]int
	status  Status

	seats map[string]Side
	rng   Random
}

// NewEngine cria um motor já inicializado. rng nil usa uma fonte com seed fixa.
func NewEngine(rng Random) *Engine {
	if rng == nil {
		rng = NewRandom(1)
	}
	e := &Engine{rng: rng}
	e.Initialize()
	return e
}

// Initialize centraliza bola e raquetes, zera o placar, esvazia os assentos e
// sorteia os sinais de vx e vy de forma independente.
func (e *Engine) Initialize() {
	e.ballX = FieldWidth / 2
	e.ballY = FieldHeight / 2
	e.vx = e.rng.Sign() * InitialBallSpeed
	e.vy = e.rng.Sign() * InitialBallSpeed

	center := (FieldHeight - PaddleHeight) / 2
	e.paddleY[Left] = center
	e.paddleY[Right] = center
	e.score[Left] = 0
	e.score[Right] = 0

	e.status = StatusWaiting
	e.seats = make(map[string]Side, 2)
}

// Advance avança a simulação dt unidades de tempo e devolve o lado que
// marcou ponto neste passo, ou NoSide.
func (e *Engine) Advance(dt float64) Side {
	if e.status != StatusPlaying {
		return NoSide
	}

	e.ballX += e.vx * dt
	e.ballY += e.vy * dt

	// Paredes: a correção é feita aqui mesmo, a bola nunca fica fora do campo.
	if e.ballY-BallRadius <= 0 {
		e.ballY = BallRadius
		e.vy = math.Abs(e.vy)
	}
	if e.ballY+BallRadius >= FieldHeight {
		e.ballY = FieldHeight - BallRadius
		e.vy = -math.Abs(e.vy)
	}

	if e.vx < 0 && e.hitsPaddle(Left) {
		e.ballX = PaddleWidth + BallRadius
		e.vx = -e.vx
		e.deflect(Left)
	}
	if e.vx > 0 && e.hitsPaddle(Right) {
		e.ballX = FieldWidth - PaddleWidth - BallRadius
		e.vx = -e.vx
		e.deflect(Right)
	}

	switch {
	case e.ballX-BallRadius <= 0:
		e.score[Right]++
		e.ResetServe(1)
		return Right
	case e.ballX+BallRadius >= FieldWidth:
		e.score[Left]++
		e.ResetServe(-1)
		return Left
	}
	return NoSide
}

// hitsPaddle testa sobreposição (inclusiva) entre o quadrado da bola e a raquete.
func (e *Engine) hitsPaddle(side Side) bool {
	left, right := 0.0, PaddleWidth
	if side == Right {
		left, right = FieldWidth-PaddleWidth, FieldWidth
	}
	top := e.paddleY[side]
	bottom := top + PaddleHeight

	return e.ballX-BallRadius <= right &&
		e.ballX+BallRadius >= left &&
		e.ballY+BallRadius >= top &&
		e.ballY-BallRadius <= bottom
}

// deflect mistura a velocidade vertical de entrada com um desvio que depende
// de onde a bola tocou a raquete: centro sai reto, bordas saem anguladas.
func (e *Engine) deflect(side Side) {
	hitFraction := (e.ballY - e.paddleY[side]) / PaddleHeight
	deflection := math.Max(-1, math.Min(1, (hitFraction-0.5)*2))
	e.vy = e.vy*inboundDamping + deflection*InitialBallSpeed
}

// ResetServe recoloca a bola no centro e saca na direção dada (+1 direita, -1 esquerda).
// O status sempre volta para playing.
func (e *Engine) ResetServe(direction float64) {
	if direction < 0 {
		direction = -1
	} else {
		direction = 1
	}
	e.ballX = FieldWidth / 2
	e.ballY = FieldHeight / 2
	e.vx = direction * InitialBallSpeed
	e.vy = e.rng.Sign() * InitialBallSpeed
	e.status = StatusPlaying
}

// MovePaddle desloca a raquete e limita o resultado ao campo. Lado inválido é ignorado.
func (e *Engine) MovePaddle(side Side, deltaY float64) {
	if side != Left && side != Right {
		return
	}
	y := e.paddleY[side] + deltaY
	e.paddleY[side] = math.Max(0, math.Min(FieldHeight-PaddleHeight, y))
}

// Admit dá um assento ao participante. O primeiro fica com a esquerda e o
// segundo com a direita; a segunda admissão inicia o jogo.
func (e *Engine) Admit(participantID string) (Side, error) {
	if _, ok := e.seats[participantID]; ok {
		return NoSide, apperr.ErrAlreadyAdmitted
	}
	if len(e.seats) >= 2 {
		return NoSide, apperr.ErrMatchFull
	}

	side := Left
	for _, taken := range e.seats {
		if taken == Left {
			side = Right
		}
	}
	e.seats[participantID] = side

	if len(e.seats) == 2 {
		e.status = StatusPlaying
	}
	return side, nil
}

// Release libera o assento sem mexer em status, placar ou física.
func (e *Engine) Release(participantID string) bool {
	if _, ok := e.seats[participantID]; !ok {
		return false
	}
	delete(e.seats, participantID)
	return true
}

func (e *Engine) SideOf(participantID string) (Side, bool) {
	side, ok := e.seats[participantID]
	return side, ok
}

func (e *Engine) PlayerCount() int {
	return len(e.seats)
}

func (e *Engine) Status() Status {
	return e.status
}

// Snapshot é uma cópia somente leitura, sem a velocidade da bola.
func (e *Engine) Snapshot() State {
	return State{
		BallX:          e.ballX,
		BallY:          e.ballY,
		BallRadius:     BallRadius,
		Player1PaddleY: e.paddleY[Left],
		Player2PaddleY: e.paddleY[Right],
		PaddleWidth:    PaddleWidth,
		PaddleHeight:   PaddleHeight,
		Player1Score:   e.score[Left],
		Player2Score:   e.score[Right],
		Status:         e.status,
		GameWidth:      FieldWidth,
		GameHeight:     FieldHeight,
	}
}
