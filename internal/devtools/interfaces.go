package devtools

import (
	"context"

	"devcross/internal/crossword"
)

type Demo interface {
	Resolve(name string) Scenario
	Script(g *crossword.Grid, sc Scenario) []crossword.Input
	Apply(g *crossword.Grid, sc Scenario) crossword.State
	SetState(ctx context.Context, cacheDir string, state string, rendered bool) error
}

var _ Demo = (*Manager)(nil)
