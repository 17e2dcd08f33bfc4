package term

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Classic hosts a Board in a tview application with a one-line status bar.
type Classic struct {
	app    *tview.Application
	board  *Board
	status *tview.TextView
}

func NewClassic(board *Board) *Classic {
	status := tview.NewTextView().SetDynamicColors(false)
	status.SetText("Tab next clue · arrows move · Esc quit")
	return &Classic{app: tview.NewApplication(), board: board, status: status}
}

// SetStatus replaces the status text. Call it from the event loop, for
// example from the board's step callback.
func (c *Classic) SetStatus(text string) {
	c.status.SetText(text)
}

// Run blocks until the user quits or ctx is cancelled.
func (c *Classic) Run(ctx context.Context) error {
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(c.board, 0, 1, true).
		AddItem(c.status, 1, 0, false)

	c.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyEsc, tcell.KeyCtrlC:
			c.app.Stop()
			return nil
		}
		return ev
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.app.Stop()
		case <-done:
		}
	}()

	return c.app.SetRoot(layout, true).EnableMouse(true).SetFocus(c.board).Run()
}
