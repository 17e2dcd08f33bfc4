package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"devcross/internal/crossword"
)

// boardLines renders the grid as styled lines, two per grid row.
func (r *Root) boardLines(g *crossword.Grid, s crossword.State) []string {
	if g == nil {
		return []string{"No puzzle loaded."}
	}
	block := "███"
	if r.ascii {
		block = "###"
	}
	out := make([]string, 0, g.Rows*cellHeight)
	for y := 1; y <= g.Rows; y++ {
		var top, bottom strings.Builder
		for x := 1; x <= g.Cols; x++ {
			c := crossword.Coord{X: x, Y: y}
			slot := g.Slot(c)
			if slot == nil {
				top.WriteString(r.theme.Block.Render(block) + " ")
				bottom.WriteString(r.theme.Block.Render(block) + " ")
				continue
			}
			style := r.cellStyle(g.SlotMarks(s, c))
			label := "   "
			if slot.Number > 0 {
				label = fmt.Sprintf("%-3d", slot.Number)
			}
			letter := g.Value(s, c)
			if letter == 0 {
				letter = ' '
			}
			top.WriteString(style.Faint(true).Render(label) + " ")
			bottom.WriteString(style.Render(" "+string(letter)+" ") + " ")
		}
		out = append(out, top.String(), bottom.String())
	}
	return out
}

func (r *Root) cellStyle(m crossword.SlotMark) lipgloss.Style {
	switch {
	case m.Has(crossword.MarkCurrent):
		return r.theme.CellCurrent
	case m.Has(crossword.MarkActive):
		return r.theme.CellActive
	case m.Has(crossword.MarkDone):
		return r.theme.CellDone
	default:
		return r.theme.Cell
	}
}

// clueLine is one row of the clue panel; index is -1 for headings and
// spacers.
type clueLine struct {
	text  string
	index int
}

func clueLines(g *crossword.Grid) []clueLine {
	if g == nil {
		return nil
	}
	var out []clueLine
	add := func(title string, clues []crossword.Clue) {
		out = append(out, clueLine{text: title, index: -1})
		for _, c := range clues {
			out = append(out, clueLine{text: fmt.Sprintf("%2d. %s", c.Position, c.Text), index: c.Index})
		}
	}
	add("Across", g.Across())
	out = append(out, clueLine{index: -1})
	add("Down", g.Down())
	return out
}

// clueScroll keeps the active clue inside a panel of the given height.
func clueScroll(lines []clueLine, active, rows int) int {
	pos := 0
	for i, l := range lines {
		if l.index == active {
			pos = i
			break
		}
	}
	if pos < rows {
		return 0
	}
	return pos - rows + 1
}

func (r *Root) renderClueLines(g *crossword.Grid, s crossword.State, lines []clueLine, offset, rows, width int) []string {
	out := make([]string, 0, rows)
	for i := offset; i < len(lines) && len(out) < rows; i++ {
		l := lines[i]
		text := trimForWidth(l.text, width)
		if l.index < 0 {
			out = append(out, r.theme.PanelTitle.Render(text))
			continue
		}
		marks := g.ClueMarks(s, l.index)
		prefix := "  "
		if marks.Has(crossword.ClueDone) {
			prefix = "v "
			if !r.ascii {
				prefix = "✓ "
			}
		}
		text = trimForWidth(prefix+l.text, width)
		switch {
		case marks.Has(crossword.ClueActive):
			text = r.theme.ClueActive.Render(text)
		case marks.Has(crossword.ClueDone):
			text = r.theme.ClueDone.Render(text)
		}
		out = append(out, text)
	}
	return out
}
