package ui

import "testing"

func TestDetermineLayoutMode(t *testing.T) {
	cases := []struct {
		cols, rows int
		want       LayoutMode
	}{
		{140, 30, LayoutWide},
		{100, 20, LayoutWide},
		{99, 30, LayoutMedium},
		{60, 20, LayoutMedium},
		{59, 30, LayoutTooSmall},
		{100, 19, LayoutTooSmall},
	}
	for _, tc := range cases {
		if got := DetermineLayoutMode(tc.cols, tc.rows); got != tc.want {
			t.Fatalf("%dx%d: got %v want %v", tc.cols, tc.rows, got, tc.want)
		}
	}
}

func TestComputeGeometryWidePutsCluesRight(t *testing.T) {
	g := ringGrid(t)
	geo := computeGeometry(LayoutWide, g, 120, 30)
	if geo.boardW != 24 || geo.clueX != 24 || geo.clueW != 96 {
		t.Fatalf("unexpected wide geometry %+v", geo)
	}
	if geo.boardH != 28 || geo.clueH != 28 {
		t.Fatalf("expected panels to fill the body, got %+v", geo)
	}
	if c, ok := geo.slotAt(g, 2, 2); !ok || c.X != 1 || c.Y != 1 {
		t.Fatalf("expected (1,1) at the board origin, got %v %v", c, ok)
	}
	if _, ok := geo.slotAt(g, 2+cellWidth-1, 2); ok {
		t.Fatalf("expected the gutter column to miss")
	}
	if _, ok := geo.slotAt(g, 2+cellWidth, 2+cellHeight); ok {
		t.Fatalf("expected the block at (2,2) to miss")
	}
}

func TestComputeGeometryMediumStacksClues(t *testing.T) {
	g := ringGrid(t)
	geo := computeGeometry(LayoutMedium, g, 80, 24)
	if geo.boardW != 80 || geo.boardH != 8 {
		t.Fatalf("unexpected board geometry %+v", geo)
	}
	if geo.clueY != 9 || geo.clueH != 14 || geo.clueInnerRows != 12 {
		t.Fatalf("unexpected clue geometry %+v", geo)
	}
	if row, ok := geo.clueRow(3, geo.clueOY+2); !ok || row != 2 {
		t.Fatalf("expected clue row 2, got %d %v", row, ok)
	}
}
