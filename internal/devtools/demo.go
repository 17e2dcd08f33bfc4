package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"devcross/internal/crossword"
)

// Scenario names a deterministic screen reached by replaying inputs through
// the engine.
type Scenario struct {
	Name            string
	Solve           int
	SolveAll        bool
	TabAfter        bool
	LeaderboardOpen bool
	HelpOpen        bool
	ResultOpen      bool
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

func (m *Manager) Resolve(name string) Scenario {
	switch name {
	case "fresh", "playing":
		return Scenario{Name: "fresh"}
	case "one_solved":
		return Scenario{Name: name, Solve: 1}
	case "crossing":
		return Scenario{Name: name, Solve: 1, TabAfter: true}
	case "complete", "results":
		return Scenario{Name: "complete", SolveAll: true, ResultOpen: true}
	case "leaderboard":
		return Scenario{Name: name, SolveAll: true, LeaderboardOpen: true}
	case "help":
		return Scenario{Name: name, HelpOpen: true}
	default:
		return Scenario{Name: "fresh"}
	}
}

// Script builds the input sequence for sc against g. Entries are solved in
// clue-list order by clicking the clue and typing its answer; typing stops as
// soon as the entry is solved since crossings may already hold letters.
func (m *Manager) Script(g *crossword.Grid, sc Scenario) []crossword.Input {
	if g == nil {
		return nil
	}
	clues := g.Clues()
	n := sc.Solve
	if sc.SolveAll || n > len(clues) {
		n = len(clues)
	}
	var out []crossword.Input
	s := g.Start()
	push := func(in crossword.Input) {
		out = append(out, in)
		s = g.Step(s, in)
	}
	for i := 0; i < n; i++ {
		id := clues[i].EntryID
		if s.Solved.Has(id) {
			continue
		}
		push(crossword.ClickClue(i))
		for _, in := range crossword.Type(g.Entry(id).Answer) {
			push(in)
			if s.Solved.Has(id) {
				break
			}
		}
	}
	if sc.TabAfter {
		out = append(out, crossword.Key(crossword.InputTab))
	}
	return out
}

func (m *Manager) Apply(g *crossword.Grid, sc Scenario) crossword.State {
	return g.Apply(g.Start(), m.Script(g, sc)...)
}

func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, rendered bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "devcross")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":    strings.TrimSpace(state),
		"rendered": rendered,
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}
