package network

import (
	"encoding/json"
)

// Message é o envelope padrão para toda a comunicação.
// Ele contém um tipo para roteamento e um payload com os dados.
type Message struct {
	Type    string          `json:"type"`              // Ex: "create-match", "state-update"
	Payload json.RawMessage `json:"payload,omitempty"` // Decodificado depois, por quem conhece o tipo.
}

// Limite de leitura por frame. Nenhum evento do jogo chega perto disso.
const MaxMessageSize = 64 * 1024

// NewMessage empacota o payload. Payload nil gera uma mensagem sem corpo.
func NewMessage(msgType string, payload any) Message {
	if payload == nil {
		return Message{Type: msgType}
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: msgType, Payload: payloadBytes}
}

// DecodePayload decodifica o payload em v. Payload vazio é tratado como "{}".
func (m Message) DecodePayload(v any) error {
	if len(m.Payload) == 0 {
		return json.Unmarshal([]byte("{}"), v)
	}
	return json.Unmarshal(m.Payload, v)
}
