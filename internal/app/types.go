package app

import (
	"sync"
	"time"

	"devcross/internal/crossword"
	"devcross/internal/grading"
	"devcross/internal/puzzle"
)

// run is the puzzle session currently on screen.
type run struct {
	id        int64
	key       string
	pack      puzzle.Pack
	puzzle    puzzle.Puzzle
	grid      *crossword.Grid
	startedAt time.Time
	solvedAt  map[int]time.Time

	// demo runs replay scripted input and are never stored.
	demo bool

	// finished is set under App.mu once grading starts; later solves are
	// ignored. finish guards the single grade and store.
	finished  bool
	finish    sync.Once
	result    grading.Result
	finishErr error
}

func newRun(key string, pack puzzle.Pack, pz puzzle.Puzzle, g *crossword.Grid, started time.Time) *run {
	return &run{
		key:       key,
		pack:      pack,
		puzzle:    pz,
		grid:      g,
		startedAt: started,
		solvedAt:  map[int]time.Time{},
	}
}

// outcomes lists every entry with its solve time, if any.
func (r *run) outcomes() []grading.EntryOutcome {
	entries := r.grid.Entries()
	out := make([]grading.EntryOutcome, 0, len(entries))
	for _, e := range entries {
		at, solved := r.solvedAt[e.ID]
		out = append(out, grading.EntryOutcome{
			EntryID:     e.ID,
			Position:    e.Position,
			Orientation: e.Orientation.String(),
			Letters:     e.Len(),
			Solved:      solved,
			SolvedAt:    at,
		})
	}
	return out
}
