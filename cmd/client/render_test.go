package main

import (
	"strings"
	"testing"

	"pingpong/internal/game/pong"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderFrame(t *testing.T) {
	s := pong.State{
		BallX:          400,
		BallY:          300,
		Player1PaddleY: 0,
		Player2PaddleY: 500,
		PaddleHeight:   pong.PaddleHeight,
		Player1Score:   2,
		Player2Score:   1,
		Status:         pong.StatusPlaying,
		GameWidth:      pong.FieldWidth,
		GameHeight:     pong.FieldHeight,
		Player1Name:    "Alice",
	}

	out := renderFrame(s, 40, 12, "w/s to move")
	lines := strings.Split(strings.TrimPrefix(out, "\x1b[H"), "\r\n")
	// cabeçalho + borda + 12 linhas + borda + status
	require.Len(t, lines, 16)

	assert.Contains(t, lines[0], "Alice 2 x 1 Player 2")
	assert.Contains(t, lines[0], "[playing]")
	assert.Equal(t, "+"+strings.Repeat("-", 38)+"+", lines[1])

	field := lines[2:14]
	assert.Equal(t, byte('O'), field[6][20])
	assert.Equal(t, byte('|'), field[0][0], "left paddle at the top")
	assert.Equal(t, byte(' '), field[11][0])
	assert.Equal(t, byte('|'), field[11][39], "right paddle at the bottom")
	assert.Equal(t, byte(' '), field[0][39])
	assert.Contains(t, lines[15], "w/s to move")
}

func TestRenderFrame_ClampsOutOfField(t *testing.T) {
	s := pong.State{BallX: -50, BallY: 900, PaddleHeight: pong.PaddleHeight}
	out := renderFrame(s, 20, 6, "")
	lines := strings.Split(strings.TrimPrefix(out, "\x1b[H"), "\r\n")
	assert.Equal(t, byte('O'), lines[2+5][0])
}
