package network

import (
	"encoding/binary"
	"fmt"
	"time"
)

// O payload dos pings do websocket carrega o instante do envio:
// [ 1 byte de tipo ] [ 8 bytes de timestamp em ns, little endian ]
// O cliente devolve o mesmo payload no pong e daí sai a latência.
const (
	pingPacketType byte = 0x01
	pingPacketSize      = 9
)

// EncodePingPacket monta o payload para um ping enviado em sentAt.
func EncodePingPacket(sentAt time.Time) []byte {
	buf := make([]byte, pingPacketSize)
	buf[0] = pingPacketType
	binary.LittleEndian.PutUint64(buf[1:], uint64(sentAt.UnixNano()))
	return buf
}

// DecodePingPacket devolve o instante gravado por EncodePingPacket.
func DecodePingPacket(data []byte) (time.Time, error) {
	if len(data) < pingPacketSize {
		return time.Time{}, fmt.Errorf("ping packet too small: expected %d bytes, got %d", pingPacketSize, len(data))
	}
	if data[0] != pingPacketType {
		return time.Time{}, fmt.Errorf("unexpected packet type 0x%02x", data[0])
	}
	return time.Unix(0, int64(binary.LittleEndian.Uint64(data[1:]))), nil
}

// rttFromPong calcula a latência a partir do payload do pong.
func rttFromPong(appData string, now time.Time) (time.Duration, bool) {
	sentAt, err := DecodePingPacket([]byte(appData))
	if err != nil {
		return 0, false
	}
	rtt := now.Sub(sentAt)
	if rtt < 0 {
		return 0, false
	}
	return rtt, true
}
