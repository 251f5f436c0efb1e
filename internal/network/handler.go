package network

// EventHandler é a interface que conecta a lógica da rede com a lógica do jogo.
// Os três métodos são chamados pela goroutine do Hub, um de cada vez.
type EventHandler interface {
	// OnConnect é chamado quando um novo cliente se conecta com sucesso.
	OnConnect(c *Client)

	// OnDisconnect é chamado quando um cliente se desconecta. O canal de
	// envio do cliente já está fechado e ele já saiu de todos os grupos.
	OnDisconnect(c *Client)

	// OnMessage é chamado quando uma nova mensagem é recebida de um cliente.
	OnMessage(c *Client, msg Message)
}
