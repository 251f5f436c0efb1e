package network

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Tempo para aguardar por uma escrita na conexão.
	writeWait = 10 * time.Second

	// Tempo máximo para aguardar por uma resposta de pong do cliente.
	pongWait = 60 * time.Second

	// Frequência com que enviamos pings para o cliente. Deve ser menor que pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Tamanho do buffer de saída. A 60 Hz são uns 4 segundos de snapshots.
	sendBufferSize = 256
)

// Client é a representação de um jogador conectado do ponto de vista do servidor.
type Client struct {
	// Identidade da conexão, usada como id do participante nas partidas.
	id string

	conn *websocket.Conn
	hub  *Hub

	// mu protege send e closed: o Hub fecha o canal e as goroutines de tick
	// enviam por ele ao mesmo tempo.
	mu     sync.Mutex
	send   chan Message
	closed bool

	// Última latência medida pelo ping, em nanossegundos.
	rtt atomic.Int64

	logger *slog.Logger
}

func newClient(conn *websocket.Conn, hub *Hub, logger *slog.Logger) *Client {
	id := uuid.NewString()
	c := &Client{
		id:     id,
		conn:   conn,
		hub:    hub,
		send:   make(chan Message, sendBufferSize),
		logger: logger.With("client_id", id),
	}
	if conn != nil {
		c.logger = c.logger.With("remote_addr", conn.RemoteAddr().String())
	}
	return c
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) RemoteAddr() string {
	if c.conn == nil {
		return ""
	}
	return c.conn.RemoteAddr().String()
}

// RTT devolve a última latência medida (zero antes do primeiro pong).
func (c *Client) RTT() time.Duration {
	return time.Duration(c.rtt.Load())
}

// Send enfileira a mensagem sem bloquear. Devolve false se o cliente já
// saiu ou se o buffer está cheio (cliente lento perde snapshots).
func (c *Client) Send(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Debug("[Client] send buffer full, dropping message", "type", msg.Type)
		return false
	}
}

// close fecha o canal de saída; o writeLoop manda o frame de fechamento.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.hub.unregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	// O pong traz de volta o pacote que mandamos no ping.
	c.conn.SetPongHandler(func(appData string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		if rtt, ok := rttFromPong(appData, time.Now()); ok {
			c.rtt.Store(int64(rtt))
		}
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("[Client] unexpected read error", "error", err)
			}
			return
		}

		if !c.hub.deliver(clientMessage{client: c, msg: msg}) {
			return
		}
	}
}

// writeLoop bombeia mensagens do canal 'send' do cliente para a conexão WebSocket.
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			// O canal 'send' foi fechado pelo Hub: o cliente foi desregistrado.
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Warn("[Client] write failed", "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, EncodePingPacket(time.Now())); err != nil {
				return
			}
		}
	}
}
