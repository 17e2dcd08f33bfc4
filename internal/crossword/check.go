package crossword

import "strings"

// Check compares the entry's current letters with its answer, ignoring case.
// Any empty slot fails the comparison.
func (g *Grid) Check(s State, entryID int) bool {
	return strings.EqualFold(g.Word(s, entryID), g.layout.Entries[entryID].Answer)
}

type SlotMark uint8

const (
	MarkActive SlotMark = 1 << iota
	MarkCurrent
	MarkDone
)

func (m SlotMark) Has(flag SlotMark) bool { return m&flag != 0 }

// Classes lists the mark names in a stable order.
func (m SlotMark) Classes() []string {
	out := make([]string, 0, 3)
	if m.Has(MarkActive) {
		out = append(out, "active")
	}
	if m.Has(MarkCurrent) {
		out = append(out, "current")
	}
	if m.Has(MarkDone) {
		out = append(out, "done")
	}
	return out
}

type ClueMark uint8

const (
	ClueActive ClueMark = 1 << iota
	ClueDone
)

func (m ClueMark) Has(flag ClueMark) bool { return m&flag != 0 }

func (m ClueMark) Classes() []string {
	out := make([]string, 0, 2)
	if m.Has(ClueActive) {
		out = append(out, "clues-active")
	}
	if m.Has(ClueDone) {
		out = append(out, "clue-done")
	}
	return out
}

// SlotMarks derives the highlight of one slot. The active entry loses its
// active mark for the single state in which it was just solved.
func (g *Grid) SlotMarks(s State, c Coord) SlotMark {
	slot := g.Slot(c)
	if slot == nil {
		return 0
	}
	var m SlotMark
	active := s.Focus.EntryID
	if slot.Owns(active) && !(s.JustSolved && s.Solved.Has(active)) {
		m |= MarkActive
	}
	if c == s.Focus.Cursor {
		m |= MarkCurrent
	}
	for _, id := range slot.Entries {
		if s.Solved.Has(id) {
			m |= MarkDone
			break
		}
	}
	return m
}

func (g *Grid) ClueMarks(s State, index int) ClueMark {
	if index < 0 || index >= len(g.clues) {
		return 0
	}
	var m ClueMark
	if index == s.Focus.ClueIndex {
		m |= ClueActive
	}
	if s.Solved.Has(g.clues[index].EntryID) {
		m |= ClueDone
	}
	return m
}
