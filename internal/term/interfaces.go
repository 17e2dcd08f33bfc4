package term

import (
	"github.com/rivo/tview"

	"devcross/internal/crossword"
)

// Surface is a tview primitive hosting one crossword session.
type Surface interface {
	Primitive() tview.Primitive
	Load(g *crossword.Grid, s crossword.State)
	State() crossword.State
	Send(in crossword.Input) crossword.State
}

// StepFunc observes every transition the board applies.
type StepFunc func(prev, next crossword.State)

var _ Surface = (*Board)(nil)
