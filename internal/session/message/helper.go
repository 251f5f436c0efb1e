package message

import (
	"pingpong/internal/network"
)

// MessageSender define a interface para qualquer tipo que pode receber uma mensagem.
// Isso nos permite desacoplar o pacote `message` de implementações concretas como `network.Client`.
type MessageSender interface {
	Send(msg network.Message) bool
}

// SendError envia apenas uma mensagem de erro para o cliente.
func SendError(sender MessageSender, err error) {
	sender.Send(CreateErrorResponse(err))
}
