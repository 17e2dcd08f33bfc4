package puzzle

import "context"

type Loader interface {
	LoadPacks(ctx context.Context, root string) ([]Pack, error)
	LoadFile(path string) (Puzzle, error)
	FindPuzzle(packs []Pack, packID string, puzzleID string) (Pack, Puzzle, error)
}
