package crossword

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func catCar() []EntrySpec {
	return []EntrySpec{
		{Answer: "CAT", Clue: "Feline", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
		{Answer: "CAR", Clue: "Vehicle", StartX: 1, StartY: 1, Orientation: "down", Position: 1},
	}
}

// ring is a 3x3 frame: CAT/CAR share 1, TOE is 2 down, RUE is 3 across.
func ring() []EntrySpec {
	return []EntrySpec{
		{Answer: "rue", Clue: "Regret", StartX: 1, StartY: 3, Orientation: "across", Position: 3},
		{Answer: "toe", Clue: "Foot digit", StartX: 3, StartY: 1, Orientation: "down", Position: 2},
		{Answer: "cat", Clue: "Feline", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
		{Answer: "car", Clue: "Vehicle", StartX: 1, StartY: 1, Orientation: "down", Position: 1},
	}
}

func mustDerive(t *testing.T, specs []EntrySpec) *Layout {
	t.Helper()
	l, err := Derive(specs)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return l
}

func TestDeriveCoordinates(t *testing.T) {
	l := mustDerive(t, ring())

	wantOrder := []string{"cat", "car", "toe", "rue"}
	for i, e := range l.Entries {
		if e.ID != i {
			t.Fatalf("entry %d has id %d", i, e.ID)
		}
		if e.Answer != wantOrder[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, wantOrder[i], e.Answer)
		}
	}

	for id, path := range l.Paths {
		e := l.Entries[id]
		if len(path) != len(e.Answer) {
			t.Fatalf("%s: %d coords for %d letters", e.Answer, len(path), len(e.Answer))
		}
		if path[0] != e.Start {
			t.Fatalf("%s: path starts at %s, want %s", e.Answer, path[0], e.Start)
		}
		for i := 1; i < len(path); i++ {
			dx, dy := path[i].X-path[i-1].X, path[i].Y-path[i-1].Y
			if e.Orientation == Across && (dx != 1 || dy != 0) {
				t.Fatalf("%s: across step %d is (%d,%d)", e.Answer, i, dx, dy)
			}
			if e.Orientation == Down && (dx != 0 || dy != 1) {
				t.Fatalf("%s: down step %d is (%d,%d)", e.Answer, i, dx, dy)
			}
		}
	}

	if l.MaxCol != 3 || l.MaxRow != 3 {
		t.Fatalf("expected 3x3 extents, got %dx%d", l.MaxCol, l.MaxRow)
	}
	if diff := cmp.Diff([]bool{false, true, false, false}, l.Grouped); diff != "" {
		t.Fatalf("grouped flags (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Coord{{3, 1}, {3, 2}, {3, 3}}, l.Paths[2]); diff != "" {
		t.Fatalf("toe path (-want +got):\n%s", diff)
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	specs := ring()
	a := mustDerive(t, specs)
	b := mustDerive(t, specs)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("second derivation differs (-first +second):\n%s", diff)
	}
	if specs[0].Answer != "rue" {
		t.Fatalf("input slice was reordered")
	}
}

func TestDeriveRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name  string
		specs []EntrySpec
		field string
	}{
		{name: "empty list", specs: nil, field: "entries"},
		{name: "empty answer", specs: []EntrySpec{{Answer: "", StartX: 1, StartY: 1, Orientation: "across", Position: 1}}, field: "answer"},
		{name: "whitespace", specs: []EntrySpec{{Answer: "NEW YORK", StartX: 1, StartY: 1, Orientation: "across", Position: 1}}, field: "answer"},
		{name: "digits", specs: []EntrySpec{{Answer: "R2D2", StartX: 1, StartY: 1, Orientation: "across", Position: 1}}, field: "answer"},
		{name: "missing x", specs: []EntrySpec{{Answer: "CAT", StartY: 1, Orientation: "across", Position: 1}}, field: "startx"},
		{name: "missing y", specs: []EntrySpec{{Answer: "CAT", StartX: 1, Orientation: "across", Position: 1}}, field: "starty"},
		{name: "orientation", specs: []EntrySpec{{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "diagonal", Position: 1}}, field: "orientation"},
		{name: "position", specs: []EntrySpec{{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "across", Position: 0}}, field: "position"},
		{
			name: "grouped entries with different starts",
			specs: []EntrySpec{
				{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
				{Answer: "ATE", StartX: 2, StartY: 1, Orientation: "down", Position: 1},
			},
			field: "position",
		},
		{
			name: "grouped entries with one orientation",
			specs: []EntrySpec{
				{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
				{Answer: "CAB", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
			},
			field: "position",
		},
		{
			name: "shared start numbered twice",
			specs: []EntrySpec{
				{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
				{Answer: "CAR", StartX: 1, StartY: 1, Orientation: "down", Position: 2},
			},
			field: "position",
		},
		{
			name: "same orientation overlap",
			specs: []EntrySpec{
				{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
				{Answer: "ATE", StartX: 2, StartY: 1, Orientation: "across", Position: 2},
			},
			field: "answer",
		},
		{
			name: "crossing letters disagree",
			specs: []EntrySpec{
				{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
				{Answer: "DOG", StartX: 2, StartY: 1, Orientation: "down", Position: 2},
			},
			field: "answer",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Derive(tc.specs)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected ErrInvalidEntry, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Kind != KindInvalidEntry {
				t.Fatalf("unexpected kind %q", verr.Kind)
			}
			if verr.Field != tc.field {
				t.Fatalf("expected field %q, got %q (%v)", tc.field, verr.Field, err)
			}
		})
	}
}

func TestDeriveReportsAuthoredIndex(t *testing.T) {
	_, err := Derive([]EntrySpec{
		{Answer: "CAT", StartX: 1, StartY: 1, Orientation: "across", Position: 5},
		{Answer: "DOG", StartX: 1, StartY: 3, Orientation: "across", Position: 1},
		{Answer: "ZZ", StartX: 2, StartY: 1, Orientation: "down", Position: 6},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Index != 2 {
		t.Fatalf("expected authored index 2, got %d", verr.Index)
	}
}

func TestParseOrientation(t *testing.T) {
	for in, want := range map[string]Orientation{"across": Across, "DOWN": Down, " Across ": Across} {
		got, err := ParseOrientation(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Fatalf("%q: expected %s, got %s", in, want, got)
		}
	}
	if _, err := ParseOrientation("up"); err == nil {
		t.Fatalf("expected error for unknown orientation")
	}
}
