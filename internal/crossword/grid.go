package crossword

// Slot backs one letter shared by every entry that passes through its cell.
type Slot struct {
	Coord   Coord
	Entries []int
	// Number is the clue number printed in the cell, 0 when unlabelled.
	Number int
}

func (s *Slot) Owns(entryID int) bool {
	for _, id := range s.Entries {
		if id == entryID {
			return true
		}
	}
	return false
}

type Clue struct {
	Index       int
	EntryID     int
	Position    int
	Orientation Orientation
	Text        string
}

// Grid is the immutable board built from a Layout.
type Grid struct {
	layout *Layout
	Cols   int
	Rows   int

	cells  [][]*Slot
	across []Clue
	down   []Clue
	clues  []Clue
	clueOf []int
}

func Build(l *Layout) *Grid {
	g := &Grid{
		layout: l,
		Cols:   l.MaxCol,
		Rows:   l.MaxRow,
		cells:  make([][]*Slot, l.MaxRow),
		clueOf: make([]int, len(l.Entries)),
	}
	for y := range g.cells {
		g.cells[y] = make([]*Slot, l.MaxCol)
	}

	for id, path := range l.Paths {
		for i, c := range path {
			slot := g.cells[c.Y-1][c.X-1]
			if slot == nil {
				slot = &Slot{Coord: c}
				g.cells[c.Y-1][c.X-1] = slot
			}
			slot.Entries = append(slot.Entries, id)
			if i == 0 && slot.Number == 0 {
				slot.Number = l.Entries[id].Position
			}
		}
	}

	for _, e := range l.Entries {
		clue := Clue{EntryID: e.ID, Position: e.Position, Orientation: e.Orientation, Text: e.Clue}
		if e.Orientation == Across {
			g.across = append(g.across, clue)
		} else {
			g.down = append(g.down, clue)
		}
	}
	g.clues = make([]Clue, 0, len(l.Entries))
	g.clues = append(g.clues, g.across...)
	g.clues = append(g.clues, g.down...)
	for i := range g.clues {
		g.clues[i].Index = i
		g.clueOf[g.clues[i].EntryID] = i
	}
	for i := range g.across {
		g.across[i].Index = i
	}
	for i := range g.down {
		g.down[i].Index = len(g.across) + i
	}
	return g
}

func (g *Grid) Layout() *Layout { return g.layout }

func (g *Grid) Entries() []Entry { return g.layout.Entries }

func (g *Grid) Entry(id int) Entry { return g.layout.Entries[id] }

// EntrySlots returns the coordinates of an entry's letters in reading order.
func (g *Grid) EntrySlots(id int) []Coord { return g.layout.Paths[id] }

// Slot returns the slot at c, or nil for blocks and coordinates off the board.
func (g *Grid) Slot(c Coord) *Slot {
	if c.X < 1 || c.Y < 1 || c.X > g.Cols || c.Y > g.Rows {
		return nil
	}
	return g.cells[c.Y-1][c.X-1]
}

func (g *Grid) IsFirstCell(c Coord, entryID int) bool {
	return g.layout.Paths[entryID][0] == c
}

func (g *Grid) Across() []Clue { return g.across }

func (g *Grid) Down() []Clue { return g.down }

// Clues is the tab order: every Across clue followed by every Down clue.
func (g *Grid) Clues() []Clue { return g.clues }

func (g *Grid) ClueIndexOf(entryID int) int { return g.clueOf[entryID] }

func (g *Grid) SlotCount() int {
	n := 0
	for _, row := range g.cells {
		for _, s := range row {
			if s != nil {
				n++
			}
		}
	}
	return n
}

func (g *Grid) index(c Coord) int { return (c.Y-1)*g.Cols + (c.X - 1) }
