package app

import (
	"context"

	"devcross/internal/grading"
	"devcross/internal/state"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	StartPuzzleRun(ctx context.Context, run state.PuzzleRun) (int64, error)
	RecordEntrySolved(ctx context.Context, runID int64, solve state.EntrySolve) error
	FinishPuzzleRun(ctx context.Context, result state.RunResult) error
	GetPuzzleProgressMap(ctx context.Context) (map[string]state.PuzzleProgress, error)
	Leaderboard(ctx context.Context, limit int) ([]state.LeaderboardRow, error)
	Close() error
}

type Grader interface {
	Grade(ctx context.Context, req grading.Request) (grading.Result, error)
}
