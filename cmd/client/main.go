// Cliente de terminal: conecta no servidor, cria ou entra numa partida e
// desenha o campo em ASCII. Teclas: w/s ou setas movem, q sai.
package main

import (
	"flag"
	"fmt"
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
	"golang.org/x/term"
)

func main() {
	addr := flag.String("addr", "localhost:3001", "server host:port")
	consulAddrs := flag.String("consul", "", "consul addresses; when set the server is discovered")
	service := flag.String("service", "pingpong-server", "service name used for discovery")
	name := flag.String("name", "", "player name")
	matchID := flag.String("match", "", "match id to join; empty creates a new match")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	target := *addr
	if *consulAddrs != "" {
		if found := cluster.Discover(*service, *consulAddrs, cluster.DiscoveryOptions{}, logger); found != "" {
			target = found
		} else {
			logger.Warn("discovery found nothing, using -addr", "addr", target)
		}
	}

	u := url.URL{Scheme: "ws", Host: target, Path: "/ws"}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			logger.Error("connect failed", "url", u.String(), "status", resp.Status, "error", err)
		} else {
			logger.Error("connect failed", "url", u.String(), "error", err)
		}
		os.Exit(1)
	}
	defer conn.Close()

	c := &terminalClient{conn: conn, status: "connecting..."}
	if *matchID == "" {
		err = c.write(message.TypeCreateMatch, message.CreateMatchRequest{PlayerName: *name})
	} else {
		err = c.write(message.TypeJoinMatch, message.JoinMatchRequest{MatchID: *matchID, PlayerName: *name})
	}
	if err != nil {
		logger.Error("send failed", "error", err)
		os.Exit(1)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		logger.Error("terminal raw mode failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Print("\x1b[?25h\r\n")
	}()
	fmt.Print("\x1b[2J\x1b[?25l")

	done := make(chan struct{})
	go c.readLoop(done)
	go c.keyLoop(done)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
	case <-interrupt:
	}
	_ = c.write(message.TypeLeaveMatch, nil)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
}

type terminalClient struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	mu       sync.Mutex
	status   string
	matchID  string
	side     pong.Side
	closeOne sync.Once
}

func (c *terminalClient) write(msgType string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(network.NewMessage(msgType, payload))
}

func (c *terminalClient) setStatus(format string, args ...any) {
	c.mu.Lock()
	c.status = fmt.Sprintf(format, args...)
	c.mu.Unlock()
}

func (c *terminalClient) finish(done chan struct{}) {
	c.closeOne.Do(func() { close(done) })
}

func (c *terminalClient) readLoop(done chan struct{}) {
	defer c.finish(done)
	for {
		var msg network.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case message.TypeMatchCreated, message.TypeJoinedMatch:
			var p message.MatchJoinedPayload
			if msg.DecodePayload(&p) == nil {
				c.mu.Lock()
				c.matchID, c.side = p.MatchID, p.PlayerNumber
				c.mu.Unlock()
				c.setStatus("match %s, you are %s. w/s move, q quits", p.MatchID, p.PlayerNumber)
			}
		case message.TypePeerJoined:
			var p message.PeerPayload
			if msg.DecodePayload(&p) == nil {
				c.setStatus("%s joined", p.PlayerName)
			}
		case message.TypePeerLeft:
			var p message.PeerPayload
			if msg.DecodePayload(&p) == nil {
				c.setStatus("%s left", p.PlayerName)
			}
		case message.TypeMatchClosed:
			c.setStatus("match closed by server")
			return
		case message.TypeError:
			var p message.ErrorClientPayload
			if msg.DecodePayload(&p) == nil {
				c.setStatus("error %s: %s", p.Code, p.Message)
			}
		case message.TypeStateUpdate:
			var s pong.State
			if msg.DecodePayload(&s) != nil {
				continue
			}
			cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				cols, rows = 80, 24
			}
			c.mu.Lock()
			status := c.status
			c.mu.Unlock()
			fmt.Print(renderFrame(s, cols, rows-4, status))
		}
	}
}

func (c *terminalClient) keyLoop(done chan struct{}) {
	defer c.finish(done)
	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		key := buf[:n]

		var direction string
		switch {
		case n == 1 && (key[0] == 'q' || key[0] == 3): // q ou Ctrl-C
			return
		case n == 1 && (key[0] == 'w' || key[0] == 'k'):
			direction = message.DirectionUp
		case n == 1 && (key[0] == 's' || key[0] == 'j'):
			direction = message.DirectionDown
		case n == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'A':
			direction = message.DirectionUp
		case n == 3 && key[0] == 0x1b && key[1] == '[' && key[2] == 'B':
			direction = message.DirectionDown
		default:
			continue
		}

		c.mu.Lock()
		matchID := c.matchID
		c.mu.Unlock()
		if err := c.write(message.TypePaddleMove, message.PaddleMoveRequest{MatchID: matchID, Direction: direction}); err != nil {
			return
		}
	}
}
