package crossword

import (
	"fmt"
	"unicode"
)

type InputKind int

const (
	InputNone InputKind = iota
	InputLeft
	InputRight
	InputUp
	InputDown
	InputBackspace
	InputDelete
	InputTab
	InputBackTab
	InputLetter
	InputClickSlot
	InputClickClue
)

var inputNames = map[InputKind]string{
	InputNone:      "none",
	InputLeft:      "left",
	InputRight:     "right",
	InputUp:        "up",
	InputDown:      "down",
	InputBackspace: "backspace",
	InputDelete:    "delete",
	InputTab:       "tab",
	InputBackTab:   "backtab",
	InputLetter:    "letter",
	InputClickSlot: "click_slot",
	InputClickClue: "click_clue",
}

func (k InputKind) String() string {
	if s, ok := inputNames[k]; ok {
		return s
	}
	return fmt.Sprintf("input(%d)", int(k))
}

// Input is one player event delivered by a host.
type Input struct {
	Kind InputKind
	Rune rune
	At   Coord
	Clue int
}

func Key(kind InputKind) Input  { return Input{Kind: kind} }
func Letter(r rune) Input       { return Input{Kind: InputLetter, Rune: r} }
func ClickSlot(c Coord) Input   { return Input{Kind: InputClickSlot, At: c} }
func ClickClue(index int) Input { return Input{Kind: InputClickClue, Clue: index} }

// Type is a convenience that turns a word into letter inputs.
func Type(word string) []Input {
	out := make([]Input, 0, len(word))
	for _, r := range word {
		out = append(out, Letter(r))
	}
	return out
}

func (in Input) String() string {
	switch in.Kind {
	case InputLetter:
		return fmt.Sprintf("letter(%c)", in.Rune)
	case InputClickSlot:
		return "click" + in.At.String()
	case InputClickClue:
		return fmt.Sprintf("clue(%d)", in.Clue)
	default:
		return in.Kind.String()
	}
}

// Step applies one input and returns the resulting state. Inputs that do not
// apply, such as clicks on blocks or arrows at the board edge, return a state
// equal to s.
func (g *Grid) Step(s State, in Input) State {
	switch in.Kind {
	case InputLeft, InputRight, InputUp, InputDown:
		return g.arrow(s, in.Kind)
	case InputBackspace, InputDelete:
		return g.erase(s)
	case InputTab:
		return g.tab(s, 1)
	case InputBackTab:
		return g.tab(s, -1)
	case InputLetter:
		return g.letter(s, in.Rune)
	case InputClickSlot:
		return g.clickSlot(s, in.At)
	case InputClickClue:
		return g.clickClue(s, in.Clue)
	default:
		return s
	}
}

// Apply folds Step over a sequence of inputs.
func (g *Grid) Apply(s State, inputs ...Input) State {
	for _, in := range inputs {
		s = g.Step(s, in)
	}
	return s
}

func axisOf(kind InputKind) Orientation {
	if kind == InputUp || kind == InputDown {
		return Down
	}
	return Across
}

func (g *Grid) arrow(s State, kind InputKind) State {
	out := s.clone()
	out.JustSolved = false
	out.Focus.Mode = Interacting
	out.Focus.Orientation = axisOf(kind)
	g.move(&out, kind)
	return out
}

func (g *Grid) erase(s State) State {
	out := s.clone()
	if g.Slot(out.Focus.Cursor) != nil {
		out.fill[g.index(out.Focus.Cursor)] = 0
	}
	if out.Focus.Orientation == Down {
		return g.arrow(out, InputUp)
	}
	return g.arrow(out, InputLeft)
}

// move resolves the active entry at the cursor, then steps the cursor one
// slot. Horizontal steps accept any neighbouring slot in the row; vertical
// steps only follow the active entry. The orientation is left as it was,
// even when the cell has no entry along it.
func (g *Grid) move(s *State, kind InputKind) {
	from := s.Focus.Cursor
	active := g.resolve(from, s.Focus.Orientation, s.Focus.EntryID)
	g.setActive(s, active)

	var delta Coord
	switch kind {
	case InputLeft:
		delta = Coord{X: -1}
	case InputRight:
		delta = Coord{X: 1}
	case InputUp:
		delta = Coord{Y: -1}
	case InputDown:
		delta = Coord{Y: 1}
	}
	to := from.Add(delta)
	slot := g.Slot(to)
	if slot == nil {
		return
	}
	if delta.Y != 0 && !slot.Owns(active) {
		return
	}
	s.Focus.Cursor = to
	g.setActive(s, g.resolve(to, s.Focus.Orientation, active))
}

// resolve picks the entry owning c that runs along ori, falling back to the
// current entry and then to the first owner.
func (g *Grid) resolve(c Coord, ori Orientation, current int) int {
	slot := g.Slot(c)
	if slot == nil {
		return current
	}
	for _, id := range slot.Entries {
		if g.layout.Entries[id].Orientation == ori {
			return id
		}
	}
	if slot.Owns(current) {
		return current
	}
	return slot.Entries[0]
}

// setEntry activates an entry and keeps the clue index and remembered
// orientation in step with it.
func (g *Grid) setEntry(s *State, entryID int) {
	g.setActive(s, entryID)
	s.Focus.Orientation = g.layout.Entries[entryID].Orientation
}

// setActive changes the entry and clue index but keeps the orientation.
func (g *Grid) setActive(s *State, entryID int) {
	s.Focus.EntryID = entryID
	s.Focus.ClueIndex = g.clueOf[entryID]
}

func (g *Grid) tab(s State, dir int) State {
	out := s.clone()
	out.Focus.Mode = SettingFocus
	out.JustSolved = false

	n := len(g.clues)
	next := func(i int) int { return ((i+dir)%n + n) % n }

	idx := next(s.Focus.ClueIndex)
	visited := 0
	for visited < n && out.Solved.Has(g.clues[idx].EntryID) {
		idx = next(idx)
		visited++
	}
	if visited == n {
		idx = next(s.Focus.ClueIndex)
	}
	g.focusClue(&out, idx)
	return out
}

func (g *Grid) focusClue(s *State, index int) {
	clue := g.clues[index]
	g.setEntry(s, clue.EntryID)
	s.Focus.Cursor = g.layout.Paths[clue.EntryID][0]
}

func (g *Grid) clickClue(s State, index int) State {
	if index < 0 || index >= len(g.clues) {
		return s
	}
	out := s.clone()
	out.Focus.Mode = SettingFocus
	out.JustSolved = false
	g.focusClue(&out, index)
	return out
}

// clickSlot moves the cursor to c. When c starts exactly one of its entries
// that entry wins; otherwise the entry along the remembered orientation does.
func (g *Grid) clickSlot(s State, c Coord) State {
	slot := g.Slot(c)
	if slot == nil {
		return s
	}
	out := s.clone()
	out.Focus.Mode = SettingFocus
	out.JustSolved = false
	out.Focus.Cursor = c

	starts := make([]int, 0, 2)
	for _, id := range slot.Entries {
		if g.IsFirstCell(c, id) {
			starts = append(starts, id)
		}
	}
	if len(starts) == 1 {
		g.setEntry(&out, starts[0])
		return out
	}
	g.setEntry(&out, g.resolve(c, s.Focus.Orientation, s.Focus.EntryID))
	return out
}

func (g *Grid) letter(s State, r rune) State {
	if r > unicode.MaxASCII || !isLetter(r) || g.Slot(s.Focus.Cursor) == nil {
		return s
	}
	out := s.clone()
	out.JustSolved = false
	out.Focus.Mode = Interacting
	out.fill[g.index(out.Focus.Cursor)] = unicode.ToUpper(r)

	active := g.resolve(out.Focus.Cursor, out.Focus.Orientation, out.Focus.EntryID)
	g.setEntry(&out, active)
	if g.Check(out, active) {
		out.Solved.add(active, g.layout.Entries[active].Answer)
		out.JustSolved = true
		return out
	}

	if out.Focus.Orientation == Down {
		g.move(&out, InputDown)
	} else {
		g.move(&out, InputRight)
	}
	return out
}
