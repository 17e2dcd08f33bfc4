package ui

import "devcross/internal/crossword"

const (
	cellWidth  = 4
	cellHeight = 2
	minCols    = 60
	minRows    = 20
	wideCols   = 100
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= wideCols {
		return LayoutWide
	}
	return LayoutMedium
}

// playGeometry places the board and clue panels on screen. Coordinates are
// absolute screen cells; origins point at the first content cell inside
// each panel border.
type playGeometry struct {
	boardW, boardH   int
	boardX, boardY   int
	clueW, clueH     int
	clueX, clueY     int
	boardOX, boardOY int
	clueOX, clueOY   int
	clueOffset       int
	clueInnerRows    int
}

func computeGeometry(mode LayoutMode, g *crossword.Grid, cols, rows int) playGeometry {
	bodyH := max(3, rows-2)
	gridW, gridH := 0, 0
	if g != nil {
		gridW, gridH = g.Cols*cellWidth, g.Rows*cellHeight
	}
	var geo playGeometry
	geo.boardX, geo.boardY = 0, 1
	if mode == LayoutWide {
		geo.boardW = min(max(24, gridW+3), cols-30)
		geo.boardH = bodyH
		geo.clueX, geo.clueY = geo.boardW, 1
		geo.clueW, geo.clueH = cols-geo.boardW, bodyH
	} else {
		geo.boardW = cols
		geo.boardH = min(max(4, gridH+2), bodyH-4)
		geo.clueX, geo.clueY = 0, 1+geo.boardH
		geo.clueW, geo.clueH = cols, bodyH-geo.boardH
	}
	geo.boardOX, geo.boardOY = geo.boardX+2, geo.boardY+1
	geo.clueOX, geo.clueOY = geo.clueX+1, geo.clueY+1
	geo.clueInnerRows = max(1, geo.clueH-2)
	return geo
}

// slotAt maps a screen cell to a grid coordinate inside the board panel.
func (geo playGeometry) slotAt(g *crossword.Grid, x, y int) (crossword.Coord, bool) {
	if g == nil {
		return crossword.Coord{}, false
	}
	dx, dy := x-geo.boardOX, y-geo.boardOY
	if dx < 0 || dy < 0 || dx%cellWidth == cellWidth-1 {
		return crossword.Coord{}, false
	}
	if y >= geo.boardY+geo.boardH-1 || x >= geo.boardX+geo.boardW-1 {
		return crossword.Coord{}, false
	}
	c := crossword.Coord{X: dx/cellWidth + 1, Y: dy/cellHeight + 1}
	if g.Slot(c) == nil {
		return crossword.Coord{}, false
	}
	return c, true
}

// clueRow returns the line index inside the clue panel for a screen cell.
func (geo playGeometry) clueRow(x, y int) (int, bool) {
	if x < geo.clueOX || x >= geo.clueX+geo.clueW-1 {
		return 0, false
	}
	row := y - geo.clueOY
	if row < 0 || row >= geo.clueInnerRows {
		return 0, false
	}
	return row + geo.clueOffset, true
}
