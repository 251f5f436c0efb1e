package main

import (
	"fmt"
	"strings"

	"pingpong/internal/game/pong"
)

// renderFrame desenha o estado numa grade de cols x rows caracteres.
// Linhas terminam em "\r\n" porque o terminal está em modo raw.
func renderFrame(s pong.State, cols, rows int, status string) string {
	if cols < 10 {
		cols = 10
	}
	if rows < 5 {
		rows = 5
	}
	width, height := s.GameWidth, s.GameHeight
	if width <= 0 || height <= 0 {
		width, height = pong.FieldWidth, pong.FieldHeight
	}

	grid := make([][]byte, rows)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(" ", cols))
	}

	toRow := func(v float64) int {
		r := int(v / height * float64(rows))
		return min(max(r, 0), rows-1)
	}
	toCol := func(v float64) int {
		c := int(v / width * float64(cols))
		return min(max(c, 0), cols-1)
	}

	drawPaddle := func(col int, top float64) {
		for y := toRow(top); y <= toRow(top+s.PaddleHeight-1); y++ {
			grid[y][col] = '|'
		}
	}
	drawPaddle(0, s.Player1PaddleY)
	drawPaddle(cols-1, s.Player2PaddleY)
	grid[toRow(s.BallY)][toCol(s.BallX)] = 'O'

	var b strings.Builder
	b.WriteString("\x1b[H")
	fmt.Fprintf(&b, "%-*s\r\n", cols, fmt.Sprintf(" %s %d x %d %s  [%s]",
		nameOr(s.Player1Name, "Player 1"), s.Player1Score, s.Player2Score,
		nameOr(s.Player2Name, "Player 2"), s.Status))
	border := "+" + strings.Repeat("-", cols-2) + "+"
	b.WriteString(border + "\r\n")
	for _, line := range grid {
		b.Write(line)
		b.WriteString("\r\n")
	}
	b.WriteString(border + "\r\n")
	fmt.Fprintf(&b, "%-*s", cols, " "+status)
	return b.String()
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
