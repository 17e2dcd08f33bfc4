package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"devcross/internal/crossword"
)

func boardGrid(t *testing.T) *crossword.Grid {
	t.Helper()
	l, err := crossword.Derive([]crossword.EntrySpec{
		{Answer: "cat", Clue: "Feline", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
		{Answer: "car", Clue: "Vehicle", StartX: 1, StartY: 1, Orientation: "down", Position: 1},
	})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return crossword.Build(l)
}

func drawn(t *testing.T, b *Board, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(w, h)
	b.SetRect(0, 0, w, h)
	b.Draw(screen)
	return screen
}

func TestBoardDrawsLettersAndNumbers(t *testing.T) {
	g := boardGrid(t)
	b := NewBoard(true, nil)
	b.Load(g, g.Start())
	for _, in := range crossword.Type("ca") {
		b.Send(in)
	}
	screen := drawn(t, b, 60, 12)

	// inner rect starts at (1,1) inside the border
	if r, _, _, _ := screen.GetContent(1, 1); r != '1' {
		t.Fatalf("expected number label at top-left cell, got %q", r)
	}
	if r, _, _, _ := screen.GetContent(2, 2); r != 'C' {
		t.Fatalf("expected C in first cell, got %q", r)
	}
	if r, _, _, _ := screen.GetContent(6, 2); r != 'A' {
		t.Fatalf("expected A in second cell, got %q", r)
	}
	if r, _, _, _ := screen.GetContent(5, 4); r != '#' {
		t.Fatalf("expected ascii block under the second cell, got %q", r)
	}
}

func TestBoardHitTestMapsSlotsAndClues(t *testing.T) {
	g := boardGrid(t)
	b := NewBoard(false, nil)
	b.Load(g, g.Start())
	drawn(t, b, 60, 12)

	tests := []struct {
		name string
		x, y int
		want crossword.Input
		ok   bool
	}{
		{name: "first cell", x: 2, y: 2, want: crossword.ClickSlot(crossword.Coord{X: 1, Y: 1}), ok: true},
		{name: "third row", x: 1, y: 5, want: crossword.ClickSlot(crossword.Coord{X: 1, Y: 3}), ok: true},
		{name: "block", x: 5, y: 4},
		{name: "gutter", x: 4, y: 2},
		// grid is 3 cells wide, clues start after the gap; row 1 is the Across header
		{name: "across clue", x: 16, y: 2, want: crossword.ClickClue(0), ok: true},
		{name: "down clue", x: 16, y: 5, want: crossword.ClickClue(1), ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := b.HitTest(tt.x, tt.y)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoardSendReportsTransitions(t *testing.T) {
	g := boardGrid(t)
	var steps int
	var solved bool
	b := NewBoard(false, func(prev, next crossword.State) {
		steps++
		if next.Solved.Len() > prev.Solved.Len() {
			solved = true
		}
	})
	b.Load(g, g.Start())
	for _, in := range crossword.Type("cat") {
		b.Send(in)
	}
	if steps != 3 || !solved {
		t.Fatalf("expected 3 steps ending in a solve, got %d solved=%v", steps, solved)
	}
	if !b.State().Solved.Has(0) {
		t.Fatalf("expected entry 0 solved")
	}
}
