package crossword

import (
	"fmt"
	"sort"
	"strings"
)

type Orientation int

const (
	Across Orientation = iota
	Down
)

func (o Orientation) String() string {
	if o == Down {
		return "down"
	}
	return "across"
}

// Step is the unit offset between consecutive letters of an entry.
func (o Orientation) Step() Coord {
	if o == Down {
		return Coord{X: 0, Y: 1}
	}
	return Coord{X: 1, Y: 0}
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "across":
		return Across, nil
	case "down":
		return Down, nil
	default:
		return Across, fmt.Errorf("unknown orientation %q", s)
	}
}

// Coord is a 1-indexed grid coordinate; X is the column and Y the row.
type Coord struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Coord) Add(d Coord) Coord { return Coord{X: c.X + d.X, Y: c.Y + d.Y} }

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// EntrySpec is one authored entry as it arrives from a puzzle file.
type EntrySpec struct {
	Answer      string `json:"answer" yaml:"answer"`
	Clue        string `json:"clue" yaml:"clue"`
	StartX      int    `json:"startx" yaml:"startx"`
	StartY      int    `json:"starty" yaml:"starty"`
	Orientation string `json:"orientation" yaml:"orientation"`
	Position    int    `json:"position" yaml:"position"`
}

type Entry struct {
	ID          int
	Answer      string
	Clue        string
	Start       Coord
	Orientation Orientation
	Position    int
}

func (e Entry) Len() int { return len(e.Answer) }

// Layout is the geometry derived from an entry list. Entries are ordered by
// position and an entry's ID is its index in that order.
type Layout struct {
	Entries []Entry
	Paths   [][]Coord
	Grouped []bool
	MaxCol  int
	MaxRow  int
}

// Derive validates specs and computes per-entry coordinates and grid extents.
func Derive(specs []EntrySpec) (*Layout, error) {
	if len(specs) == 0 {
		return nil, invalid(-1, "entries", "at least one entry is required")
	}

	order := make([]int, len(specs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return specs[order[a]].Position < specs[order[b]].Position
	})

	l := &Layout{
		Entries: make([]Entry, 0, len(specs)),
		Paths:   make([][]Coord, 0, len(specs)),
		Grouped: make([]bool, len(specs)),
	}
	for id, src := range order {
		entry, err := parseEntry(id, src, specs[src])
		if err != nil {
			return nil, err
		}
		path := make([]Coord, entry.Len())
		step := entry.Orientation.Step()
		at := entry.Start
		for i := range path {
			path[i] = at
			l.MaxCol = max(l.MaxCol, at.X)
			l.MaxRow = max(l.MaxRow, at.Y)
			at = at.Add(step)
		}
		l.Entries = append(l.Entries, entry)
		l.Paths = append(l.Paths, path)
		if id > 0 && l.Entries[id-1].Position == entry.Position {
			l.Grouped[id] = true
		}
	}

	if err := l.checkGroups(order); err != nil {
		return nil, err
	}
	if err := l.checkCells(order); err != nil {
		return nil, err
	}
	return l, nil
}

func parseEntry(id, src int, spec EntrySpec) (Entry, error) {
	answer := spec.Answer
	if answer == "" {
		return Entry{}, invalid(src, "answer", "answer is required")
	}
	for _, r := range answer {
		if !isLetter(r) {
			return Entry{}, invalid(src, "answer", "answer %q contains %q; only letters A-Z are allowed", spec.Answer, r)
		}
	}
	if spec.StartX < 1 {
		return Entry{}, invalid(src, "startx", "startx must be >= 1, got %d", spec.StartX)
	}
	if spec.StartY < 1 {
		return Entry{}, invalid(src, "starty", "starty must be >= 1, got %d", spec.StartY)
	}
	ori, err := ParseOrientation(spec.Orientation)
	if err != nil {
		return Entry{}, invalid(src, "orientation", "%v", err)
	}
	if spec.Position < 1 {
		return Entry{}, invalid(src, "position", "position must be >= 1, got %d", spec.Position)
	}
	return Entry{
		ID:          id,
		Answer:      answer,
		Clue:        spec.Clue,
		Start:       Coord{X: spec.StartX, Y: spec.StartY},
		Orientation: ori,
		Position:    spec.Position,
	}, nil
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// checkGroups enforces that one clue number names one start cell and at most
// one entry per orientation.
func (l *Layout) checkGroups(order []int) error {
	byPosition := map[int]int{}
	byStart := map[Coord]int{}
	for id, e := range l.Entries {
		if prev, ok := byPosition[e.Position]; ok {
			p := l.Entries[prev]
			if p.Start != e.Start {
				return invalid(order[id], "position", "position %d is shared with an entry starting at %s but this entry starts at %s", e.Position, p.Start, e.Start)
			}
			if p.Orientation == e.Orientation {
				return invalid(order[id], "position", "position %d already has a %s entry", e.Position, e.Orientation)
			}
		} else {
			byPosition[e.Position] = id
		}
		if prev, ok := byStart[e.Start]; ok && l.Entries[prev].Position != e.Position {
			return invalid(order[id], "position", "start %s is numbered %d by another entry, got %d", e.Start, l.Entries[prev].Position, e.Position)
		} else if !ok {
			byStart[e.Start] = id
		}
	}
	return nil
}

func (l *Layout) checkCells(order []int) error {
	type occupant struct {
		id     int
		letter byte
	}
	cells := map[Coord][]occupant{}
	for id, path := range l.Paths {
		e := l.Entries[id]
		for i, c := range path {
			letter := upper(e.Answer[i])
			prev := cells[c]
			if len(prev) >= 2 {
				return invalid(order[id], "answer", "cell %s is already covered by two entries", c)
			}
			for _, p := range prev {
				other := l.Entries[p.id]
				if other.Orientation == e.Orientation {
					return invalid(order[id], "answer", "cell %s overlaps %s entry %d in the same orientation", c, other.Orientation, other.Position)
				}
				if p.letter != letter {
					return invalid(order[id], "answer", "cell %s needs %q but crossing entry %d has %q", c, letter, other.Position, p.letter)
				}
			}
			cells[c] = append(prev, occupant{id: id, letter: letter})
		}
	}
	return nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
