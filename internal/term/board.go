package term

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"devcross/internal/crossword"
)

const (
	cellWidth  = 4
	cellHeight = 2
	clueGap    = 3
	minClueCol = 24
)

// Board draws a crossword grid with its clue lists and feeds decoded keys and
// mouse clicks through the engine. It is the classic tview frontend.
type Board struct {
	*tview.Box

	mu     sync.Mutex
	grid   *crossword.Grid
	state  crossword.State
	ascii  bool
	onStep StepFunc

	// geometry of the last Draw, used to map clicks back to slots and clues
	gridX, gridY int
	clueRows     map[int]clueHit
}

type clueHit struct {
	x, width int
	index    int
}

func NewBoard(ascii bool, onStep StepFunc) *Board {
	return &Board{
		Box:      tview.NewBox().SetTitle(" devcross ").SetBorder(true),
		ascii:    ascii,
		onStep:   onStep,
		clueRows: map[int]clueHit{},
	}
}

func (b *Board) Primitive() tview.Primitive { return b }

func (b *Board) Load(g *crossword.Grid, s crossword.State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.grid = g
	b.state = s
}

func (b *Board) State() crossword.State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Send applies one input and reports the transition to the step callback.
func (b *Board) Send(in crossword.Input) crossword.State {
	b.mu.Lock()
	if b.grid == nil {
		s := b.state
		b.mu.Unlock()
		return s
	}
	prev := b.state
	next := b.grid.Step(prev, in)
	b.state = next
	fn := b.onStep
	b.mu.Unlock()
	if fn != nil {
		fn(prev, next)
	}
	return next
}

func (b *Board) Draw(screen tcell.Screen) {
	b.Box.DrawForSubclass(screen, b)
	x, y, width, height := b.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			screen.SetContent(x+col, y+row, ' ', nil, tcell.StyleDefault)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.clueRows = map[int]clueHit{}
	b.gridX, b.gridY = x, y
	if b.grid == nil {
		drawTextLine(screen, x, y, width, "No puzzle loaded", tcell.StyleDefault.Foreground(tcell.ColorYellow))
		return
	}

	g := b.grid
	for row := 1; row <= g.Rows; row++ {
		for col := 1; col <= g.Cols; col++ {
			b.drawCell(screen, crossword.Coord{X: col, Y: row})
		}
	}

	// Clues go to the right of the grid when they fit, otherwise below it.
	gridW := g.Cols * cellWidth
	cx, cy := x+gridW+clueGap, y
	if width-gridW-clueGap < minClueCol {
		cx, cy = x, y+g.Rows*cellHeight+1
	}
	cw := x + width - cx
	cy = b.drawClues(screen, cx, cy, cw, y+height, "Across", g.Across())
	b.drawClues(screen, cx, cy+1, cw, y+height, "Down", g.Down())
}

func (b *Board) drawCell(screen tcell.Screen, c crossword.Coord) {
	sx := b.gridX + (c.X-1)*cellWidth
	sy := b.gridY + (c.Y-1)*cellHeight
	slot := b.grid.Slot(c)
	if slot == nil {
		block := '█'
		if b.ascii {
			block = '#'
		}
		style := tcell.StyleDefault.Foreground(tcell.ColorDimGray)
		for dy := 0; dy < cellHeight; dy++ {
			for dx := 0; dx < cellWidth-1; dx++ {
				screen.SetContent(sx+dx, sy+dy, block, nil, style)
			}
		}
		return
	}

	style := slotStyle(b.grid.SlotMarks(b.state, c))
	label := "   "
	if slot.Number > 0 {
		label = fmt.Sprintf("%-3d", slot.Number)
	}
	drawTextLine(screen, sx, sy, cellWidth-1, label, style.Dim(true))
	letter := b.grid.Value(b.state, c)
	if letter == 0 {
		letter = ' '
		if b.ascii {
			letter = '.'
		}
	}
	drawTextLine(screen, sx, sy+1, cellWidth-1, " "+string(letter)+" ", style)
}

func (b *Board) drawClues(screen tcell.Screen, x, y, width, bottom int, title string, clues []crossword.Clue) int {
	if width <= 0 || y >= bottom {
		return y
	}
	drawTextLine(screen, x, y, width, title, tcell.StyleDefault.Bold(true).Underline(true))
	y++
	for _, clue := range clues {
		if y >= bottom {
			break
		}
		style := clueStyle(b.grid.ClueMarks(b.state, clue.Index))
		drawTextLine(screen, x, y, width, fmt.Sprintf("%2d %s", clue.Position, clue.Text), style)
		b.clueRows[y] = clueHit{x: x, width: width, index: clue.Index}
		y++
	}
	return y
}

func slotStyle(m crossword.SlotMark) tcell.Style {
	style := tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	if m.Has(crossword.MarkDone) {
		style = style.Foreground(tcell.ColorLightGreen)
	}
	if m.Has(crossword.MarkActive) {
		style = style.Background(tcell.ColorTeal)
	}
	if m.Has(crossword.MarkCurrent) {
		style = style.Reverse(true).Bold(true)
	}
	return style
}

func clueStyle(m crossword.ClueMark) tcell.Style {
	style := tcell.StyleDefault
	if m.Has(crossword.ClueDone) {
		style = style.Foreground(tcell.ColorLightGreen).StrikeThrough(true)
	}
	if m.Has(crossword.ClueActive) {
		style = style.Bold(true).Background(tcell.ColorTeal)
	}
	return style
}

// HitTest maps a screen position to an engine input. The geometry is the one
// recorded by the most recent Draw.
func (b *Board) HitTest(sx, sy int) (crossword.Input, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.grid == nil {
		return crossword.Input{}, false
	}
	if hit, ok := b.clueRows[sy]; ok && sx >= hit.x && sx < hit.x+hit.width {
		return crossword.ClickClue(hit.index), true
	}
	dx, dy := sx-b.gridX, sy-b.gridY
	if dx < 0 || dy < 0 || dx%cellWidth == cellWidth-1 {
		return crossword.Input{}, false
	}
	c := crossword.Coord{X: dx/cellWidth + 1, Y: dy/cellHeight + 1}
	if b.grid.Slot(c) == nil {
		return crossword.Input{}, false
	}
	return crossword.ClickSlot(c), true
}

func (b *Board) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return b.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if in, ok := DecodeEvent(event); ok {
			b.Send(in)
		}
	})
}

func (b *Board) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return b.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		x, y := event.Position()
		if !b.InRect(x, y) {
			return false, nil
		}
		setFocus(b)
		if action != tview.MouseLeftClick {
			return true, nil
		}
		if in, ok := b.HitTest(x, y); ok {
			b.Send(in)
		}
		return true, nil
	})
}

func drawTextLine(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	runes := []rune(text)
	for i := 0; i < width; i++ {
		ch := ' '
		if i < len(runes) {
			ch = runes[i]
		}
		screen.SetContent(x+i, y, ch, nil, style)
	}
}
