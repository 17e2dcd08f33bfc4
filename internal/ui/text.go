package ui

import (
	"fmt"
	"strings"

	"devcross/internal/crossword"
)

// RenderText draws the grid and clue lists without styling. Empty slots show
// as '.', blocks as '#'.
func RenderText(g *crossword.Grid, s crossword.State) string {
	var b strings.Builder
	for y := 1; y <= g.Rows; y++ {
		var top, bottom strings.Builder
		for x := 1; x <= g.Cols; x++ {
			c := crossword.Coord{X: x, Y: y}
			slot := g.Slot(c)
			if slot == nil {
				top.WriteString("### ")
				bottom.WriteString("### ")
				continue
			}
			if slot.Number > 0 {
				top.WriteString(fmt.Sprintf("%-3d ", slot.Number))
			} else {
				top.WriteString("    ")
			}
			letter := g.Value(s, c)
			if letter == 0 {
				letter = '.'
			}
			bottom.WriteString(" " + string(letter) + "  ")
		}
		b.WriteString(strings.TrimRight(top.String(), " ") + "\n")
		b.WriteString(strings.TrimRight(bottom.String(), " ") + "\n")
	}
	for _, l := range clueLines(g) {
		b.WriteString(l.text + "\n")
	}
	return b.String()
}
