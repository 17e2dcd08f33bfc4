package state

import (
	"context"
	"time"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	StartPuzzleRun(ctx context.Context, run PuzzleRun) (int64, error)
	RecordEntrySolved(ctx context.Context, runID int64, solve EntrySolve) error
	FinishPuzzleRun(ctx context.Context, result RunResult) error
	GetPuzzleProgressMap(ctx context.Context) (map[string]PuzzleProgress, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	GetLastRun(ctx context.Context) (*LastRun, error)
	Close() error
}

type PuzzleRun struct {
	SessionID string
	Player    string
	PackID    string
	PuzzleID  string
	StartTS   time.Time
}

type EntrySolve struct {
	EntryID     int
	Position    int
	Orientation string
	Answer      string
	SolvedTS    time.Time
}

type RunResult struct {
	RunID       int64
	PackID      string
	PuzzleID    string
	Completed   bool
	SolvedCount int
	EntryCount  int
	Score       int
	DurationMS  int64
	FinishedTS  time.Time
}

type Summary struct {
	PuzzleRuns  int
	Completed   int
	EntrySolves int
}

type LastRun struct {
	PackID      string
	PuzzleID    string
	Player      string
	StartTS     time.Time
	Completed   bool
	SolvedCount int
	Score       int
}

type PuzzleProgress struct {
	PuzzleKey       string
	CompletedCount  int
	BestScore       int
	BestTimeMS      int64
	LastPlayedTS    time.Time
	LastCompletedTS time.Time
}

type LeaderboardRow struct {
	Rank    int
	Player  string
	Points  int
	Puzzles int
}

// PuzzleKey is the progress key for one puzzle of one pack.
func PuzzleKey(packID, puzzleID string) string {
	return packID + "/" + puzzleID
}
