// Package pong contém a física de uma partida: bola, raquetes, colisões e placar.
// Não faz I/O nem usa timers; quem chama decide quando avançar o tempo.
package pong

// Constantes do campo. Fazem parte do contrato com qualquer renderizador.
const (
	FieldWidth       = 800.0
	FieldHeight      = 600.0
	PaddleWidth      = 15.0
	PaddleHeight     = 100.0
	BallRadius       = 10.0
	PaddleStep       = 8.0
	InitialBallSpeed = 5.0
	TickRate         = 60

	// Fator aplicado à velocidade vertical de entrada numa rebatida.
	inboundDamping = 0.8
)

// Side identifica o lado do jogador. Serializa como 1 ou 2 ("player 1"/"player 2").
type Side int

const (
	NoSide Side = iota
	Left
	Right
)

func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// Status da partida. Apenas waiting e playing são produzidos hoje.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusGameOver Status = "gameOver"
	StatusPaused   Status = "paused"
)

// State é o snapshot enviado aos observadores. Velocidade da bola fica de fora.
type State struct {
	BallX          float64 `json:"ballX"`
	BallY          float64 `json:"ballY"`
	BallRadius     float64 `json:"ballRadius"`
	Player1PaddleY float64 `json:"player1PaddleY"`
	Player2PaddleY float64 `json:"player2PaddleY"`
	PaddleWidth    float64 `json:"paddleWidth"`
	PaddleHeight   float64 `json:"paddleHeight"`
	Player1Score   int     `json:"player1Score"`
	Player2Score   int     `json:"player2Score"`
	Status         Status  `json:"status"`
	GameWidth      float64 `json:"gameWidth"`
	GameHeight     float64 `json:"gameHeight"`
	Player1Name    string  `json:"player1Name,omitempty"`
	Player2Name    string  `json:"player2Name,omitempty"`
}

// PaddleY devolve a posição da raquete do lado pedido.
func (s State) PaddleY(side Side) float64 {
	if side == Right {
		return s.Player2PaddleY
	}
	return s.Player1PaddleY
}

// Score devolve o placar do lado pedido.
func (s State) Score(side Side) int {
	if side == Right {
		return s.Player2Score
	}
	return s.Player1Score
}
