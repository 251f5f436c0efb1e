// Bot de carga: abre pares de conexões, cada par numa partida, e segue a bola
// com a raquete. Serve para testar o servidor com várias partidas simultâneas.
package main

import (
	"flag"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"pingpong/internal/game/pong"
	"pingpong/internal/network"
	"pingpong/internal/services/cluster"
	"pingpong/internal/session/message"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:3001", "server host:port")
	consulAddrs := flag.String("consul", "", "consul addresses; when set the server is discovered")
	service := flag.String("service", "pingpong-server", "service name used for discovery")
	pairs := flag.Int("pairs", 1, "number of matches (two bots each)")
	duration := flag.Duration("duration", time.Minute, "how long to play")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	target := *addr
	if *consulAddrs != "" {
		if found := cluster.Discover(*service, *consulAddrs, cluster.DiscoveryOptions{}, logger); found != "" {
			target = found
		}
	}
	wsURL := (&url.URL{Scheme: "ws", Host: target, Path: "/ws"}).String()

	stop := make(chan struct{})
	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)
		select {
		case <-interrupt:
		case <-time.After(*duration):
		}
		close(stop)
	}()

	var wg sync.WaitGroup
	for i := 0; i < *pairs; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			playPair(wsURL, n, stop, logger.With("pair", n))
		}(i)
	}
	wg.Wait()
	logger.Info("all bots finished")
}

// playPair cria a partida com o primeiro bot e coloca o segundo nela.
func playPair(wsURL string, n int, stop <-chan struct{}, logger *slog.Logger) {
	host, err := dialBot(wsURL, logger)
	if err != nil {
		return
	}
	defer host.close()

	if err := host.write(message.TypeCreateMatch, message.CreateMatchRequest{PlayerName: "bot-a"}); err != nil {
		logger.Error("create failed", "error", err)
		return
	}
	created, ok := host.await(message.TypeMatchCreated)
	if !ok {
		return
	}
	var info message.MatchJoinedPayload
	if err := created.DecodePayload(&info); err != nil {
		logger.Error("bad match-created payload", "error", err)
		return
	}

	guest, err := dialBot(wsURL, logger)
	if err != nil {
		return
	}
	defer guest.close()
	if err := guest.write(message.TypeJoinMatch, message.JoinMatchRequest{MatchID: info.MatchID, PlayerName: "bot-b"}); err != nil {
		logger.Error("join failed", "error", err)
		return
	}
	if _, ok := guest.await(message.TypeJoinedMatch); !ok {
		return
	}
	logger.Info("match running", "match_id", info.MatchID)

	var wg sync.WaitGroup
	for _, b := range []*bot{host, guest} {
		wg.Add(1)
		go func(b *bot) {
			defer wg.Done()
			b.play(info.MatchID, stop)
		}(b)
	}
	wg.Wait()
}

type bot struct {
	conn   *websocket.Conn
	side   pong.Side
	logger *slog.Logger
}

func dialBot(wsURL string, logger *slog.Logger) (*bot, error) {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		logger.Error("connection failed", "url", wsURL, "error", err)
		return nil, err
	}
	return &bot{conn: conn, logger: logger}, nil
}

func (b *bot) write(msgType string, payload any) error {
	return b.conn.WriteJSON(network.NewMessage(msgType, payload))
}

// await lê até a mensagem do tipo pedido; erro do servidor encerra.
func (b *bot) await(msgType string) (network.Message, bool) {
	for {
		_ = b.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		var msg network.Message
		if err := b.conn.ReadJSON(&msg); err != nil {
			b.logger.Error("read failed", "waiting_for", msgType, "error", err)
			return msg, false
		}
		switch msg.Type {
		case msgType:
			var p message.MatchJoinedPayload
			if msg.DecodePayload(&p) == nil && p.PlayerNumber != pong.NoSide {
				b.side = p.PlayerNumber
			}
			return msg, true
		case message.TypeError:
			var p message.ErrorClientPayload
			_ = msg.DecodePayload(&p)
			b.logger.Error("server error", "code", p.Code, "message", p.Message)
			return msg, false
		}
	}
}

// play segue a bola até stop fechar ou a partida acabar.
func (b *bot) play(matchID string, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			_ = b.write(message.TypeLeaveMatch, nil)
			return
		default:
		}

		_ = b.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg network.Message
		if err := b.conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case message.TypeMatchClosed:
			return
		case message.TypeStateUpdate:
			var s pong.State
			if msg.DecodePayload(&s) != nil {
				continue
			}
			if direction := follow(s, b.side); direction != "" {
				_ = b.write(message.TypePaddleMove, message.PaddleMoveRequest{MatchID: matchID, Direction: direction})
			}
		}
	}
}

// follow escolhe a direção que aproxima o centro da raquete da bola.
func follow(s pong.State, side pong.Side) string {
	center := s.PaddleY(side) + s.PaddleHeight/2
	switch {
	case s.BallY < center-pong.PaddleStep:
		return message.DirectionUp
	case s.BallY > center+pong.PaddleStep:
		return message.DirectionDown
	default:
		return ""
	}
}

func (b *bot) close() {
	_ = b.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = b.conn.Close()
}
