package ui

import (
	"time"

	"devcross/internal/crossword"
)

type Controller interface {
	OnOpenPuzzleSelect()
	OnStartPuzzle(packID, puzzleID string)
	// OnSolved receives the board state after each transition that grew the
	// solved set, tagged with PlayingState.RunKey. States may arrive out of
	// order; the solved set is append-only so the longest one wins. States
	// for a run that is no longer current are dropped.
	OnSolved(runKey string, state crossword.State)
	OnFinish()
	OnRestart()
	OnLeaderboard()
	OnQuit()
	OnResize(cols, rows int)
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetScreen(screen Screen)
	SetCatalog(packs []PackSummary)
	SetSelection(packID, puzzleID string)
	SetPlayingState(PlayingState)
	SetTooSmall(cols, rows int)
	SetSetupError(msg, details string)
	SetHelpOpen(open bool)
	SetLeaderboard(rows []LeaderboardRow, open bool)
	SetResult(state ResultState)
	SetSaving(saving bool)
	FlashStatus(msg string)
}

type Screen int

const (
	ScreenPuzzleSelect Screen = iota
	ScreenPlaying
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

// PlayingState is everything the playing screen shows. Grid is shared and
// read-only; State is replaced by the view as the player types.
type PlayingState struct {
	PackID   string
	PuzzleID string
	Title    string
	Player   string
	Grid     *crossword.Grid
	State    crossword.State
	RunKey   string
	// ElapsedLabel overrides live timer rendering when set (used by deterministic demos).
	ElapsedLabel string
	StartedAt    time.Time
	BestScore    int
}

type ResultState struct {
	Visible   bool
	Completed bool
	Title     string
	Summary   string
	Solved    int
	Total     int
	Duration  string
	Score     int
	Breakdown []BreakdownRow
}

type BreakdownRow struct {
	Label string
	Value string
}

type LeaderboardRow struct {
	Rank    int
	Player  string
	Points  int
	Puzzles int
}

type PackSummary struct {
	PackID        string
	Name          string
	DescriptionMD string
	Puzzles       []PuzzleSummary
}

type PuzzleSummary struct {
	PuzzleID         string
	Title            string
	Difficulty       int
	EstimatedMinutes int
	SummaryMD        string
	Entries          int
	Completed        bool
	BestScore        int
}
