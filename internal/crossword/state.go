package crossword

type Mode int

const (
	// Interacting is set while the player types, deletes or moves with arrows.
	Interacting Mode = iota
	// SettingFocus is set after an explicit jump with tab or a click.
	SettingFocus
)

func (m Mode) String() string {
	if m == SettingFocus {
		return "setting_focus"
	}
	return "interacting"
}

type Focus struct {
	EntryID     int
	ClueIndex   int
	Orientation Orientation
	Mode        Mode
	Cursor      Coord
}

type Solve struct {
	EntryID int
	Answer  string
}

// SolvedSet records each solved entry once, in the order it was solved.
type SolvedSet struct {
	done  []bool
	order []Solve
}

func newSolvedSet(n int) SolvedSet {
	return SolvedSet{done: make([]bool, n)}
}

func (s SolvedSet) Has(entryID int) bool {
	return entryID >= 0 && entryID < len(s.done) && s.done[entryID]
}

func (s SolvedSet) Len() int { return len(s.order) }

func (s SolvedSet) Solves() []Solve { return append([]Solve(nil), s.order...) }

func (s SolvedSet) Answers() []string {
	out := make([]string, len(s.order))
	for i, v := range s.order {
		out[i] = v.Answer
	}
	return out
}

// add reports whether the entry was newly recorded.
func (s *SolvedSet) add(entryID int, answer string) bool {
	if s.Has(entryID) {
		return false
	}
	s.done[entryID] = true
	s.order = append(s.order, Solve{EntryID: entryID, Answer: answer})
	return true
}

func (s SolvedSet) clone() SolvedSet {
	return SolvedSet{
		done:  append([]bool(nil), s.done...),
		order: append([]Solve(nil), s.order...),
	}
}

// State is one puzzle session. Transitions never modify their input; Step
// returns a new State.
type State struct {
	Focus      Focus
	Solved     SolvedSet
	JustSolved bool

	fill []rune
}

func (s State) clone() State {
	out := s
	out.fill = append([]rune(nil), s.fill...)
	out.Solved = s.Solved.clone()
	return out
}

// Start returns the initial session: the lowest-numbered entry is active and
// the cursor sits on its first letter.
func (g *Grid) Start() State {
	first := g.layout.Entries[0]
	return State{
		Focus: Focus{
			EntryID:     first.ID,
			ClueIndex:   g.ClueIndexOf(first.ID),
			Orientation: first.Orientation,
			Mode:        Interacting,
			Cursor:      first.Start,
		},
		Solved: newSolvedSet(len(g.layout.Entries)),
		fill:   make([]rune, g.Cols*g.Rows),
	}
}

// Value returns the letter held by the slot at c, or 0 when empty.
func (g *Grid) Value(s State, c Coord) rune {
	if g.Slot(c) == nil || len(s.fill) == 0 {
		return 0
	}
	return s.fill[g.index(c)]
}

// Word concatenates the entry's slot values, empty slots as spaces.
func (g *Grid) Word(s State, entryID int) string {
	path := g.layout.Paths[entryID]
	b := make([]rune, len(path))
	for i, c := range path {
		b[i] = g.Value(s, c)
		if b[i] == 0 {
			b[i] = ' '
		}
	}
	return string(b)
}

// Fill writes letters into an entry's slots without running any transition.
// It is meant for restoring boards in tools and tests.
func (g *Grid) Fill(s State, entryID int, letters string) State {
	out := s.clone()
	for i, c := range g.layout.Paths[entryID] {
		if i >= len(letters) {
			break
		}
		out.fill[g.index(c)] = rune(upper(letters[i]))
	}
	return out
}

func (g *Grid) Complete(s State) bool {
	return s.Solved.Len() == len(g.layout.Entries)
}

// FilledCount is the number of non-empty slots.
func (g *Grid) FilledCount(s State) int {
	n := 0
	for _, r := range s.fill {
		if r != 0 {
			n++
		}
	}
	return n
}
