package network

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// clientMessage empacota uma mensagem com o cliente que a enviou.
type clientMessage struct {
	client *Client
	msg    Message
}

// Hub mantém o conjunto de clientes ativos e roteia eventos para o handler.
// Connect, disconnect e mensagens são processados em série pela goroutine do
// Hub. Os grupos (um por partida) têm lock próprio porque os loops de tick
// fazem broadcast de fora dessa goroutine.
type Hub struct {
	// Clientes registrados. Acessado SOMENTE pela goroutine do Hub.
	clients map[*Client]bool
	count   atomic.Int64

	register   chan *Client
	unregister chan *Client
	incoming   chan clientMessage
	quit       chan struct{}
	stopOnce   sync.Once

	groupsMu sync.RWMutex
	groups   map[string]map[*Client]struct{}
	memberOf map[*Client]map[string]struct{}

	handler EventHandler
	logger  *slog.Logger
}

// NewHub cria, inicializa e retorna um novo Hub.
func NewHub(handler EventHandler, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan clientMessage),
		quit:       make(chan struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		memberOf:   make(map[*Client]map[string]struct{}),
		handler:    handler,
		logger:     logger.With("component", "hub"),
	}
}

// Run processa eventos até Stop ser chamado.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.count.Add(1)
			h.handler.OnConnect(client)

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.count.Add(-1)
				h.leaveAll(client)
				// Fechar o 'send' é o sinal para o writeLoop daquele cliente parar.
				client.close()
				h.handler.OnDisconnect(client)
			}

		case clientMsg := <-h.incoming:
			h.handler.OnMessage(clientMsg.client, clientMsg.msg)

		case <-h.quit:
			for client := range h.clients {
				client.close()
			}
			return
		}
	}
}

// Stop encerra o Run e fecha todos os clientes.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// ClientCount pode ser chamado de qualquer goroutine.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

func (h *Hub) deliver(cm clientMessage) bool {
	select {
	case h.incoming <- cm:
		return true
	case <-h.quit:
		return false
	}
}

// JoinGroup coloca o cliente no grupo.
func (h *Hub) JoinGroup(group string, c *Client) {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()

	members, ok := h.groups[group]
	if !ok {
		members = make(map[*Client]struct{}, 2)
		h.groups[group] = members
	}
	members[c] = struct{}{}

	if h.memberOf[c] == nil {
		h.memberOf[c] = make(map[string]struct{}, 1)
	}
	h.memberOf[c][group] = struct{}{}
}

// LeaveGroup tira o cliente do grupo. Grupo vazio é apagado.
func (h *Hub) LeaveGroup(group string, c *Client) {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()
	h.leaveLocked(group, c)
}

// CloseGroup apaga o grupo inteiro.
func (h *Hub) CloseGroup(group string) {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()
	for c := range h.groups[group] {
		h.leaveLocked(group, c)
	}
	delete(h.groups, group)
}

func (h *Hub) GroupSize(group string) int {
	h.groupsMu.RLock()
	defer h.groupsMu.RUnlock()
	return len(h.groups[group])
}

// Broadcast envia a mensagem para todos do grupo, menos except (pode ser nil).
// Os membros são copiados sob o lock e o envio acontece fora dele.
// Devolve quantos clientes aceitaram a mensagem.
func (h *Hub) Broadcast(group string, msg Message, except *Client) int {
	h.groupsMu.RLock()
	members := make([]*Client, 0, len(h.groups[group]))
	for c := range h.groups[group] {
		if c != except {
			members = append(members, c)
		}
	}
	h.groupsMu.RUnlock()

	delivered := 0
	for _, c := range members {
		if c.Send(msg) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) leaveAll(c *Client) {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()
	for group := range h.memberOf[c] {
		h.leaveLocked(group, c)
	}
	delete(h.memberOf, c)
}

func (h *Hub) leaveLocked(group string, c *Client) {
	if members, ok := h.groups[group]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	if groups, ok := h.memberOf[c]; ok {
		delete(groups, group)
		if len(groups) == 0 {
			delete(h.memberOf, c)
		}
	}
}
