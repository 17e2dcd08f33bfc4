package puzzle

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"devcross/internal/crossword"
)

// LocalPackID names the pseudo-pack that holds puzzles opened by path.
const LocalPackID = "local"

type FSLoader struct{}

func NewLoader() *FSLoader { return &FSLoader{} }

func (l *FSLoader) LoadPacks(ctx context.Context, root string) ([]Pack, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	packs := make([]Pack, 0)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		packPath := filepath.Join(root, entry.Name())
		packYAML := filepath.Join(packPath, "pack.yaml")
		if _, err := os.Stat(packYAML); err != nil {
			continue
		}
		pack, err := readPack(packYAML)
		if err != nil {
			return nil, fmt.Errorf("load pack %s: %w", packPath, err)
		}
		pack.Path = packPath
		applyPackDefaults(&pack)

		puzzles, err := l.readPuzzles(pack)
		if err != nil {
			return nil, err
		}
		pack.LoadedPuzzles = puzzles
		packs = append(packs, pack)
	}

	sort.Slice(packs, func(i, j int) bool { return packs[i].PackID < packs[j].PackID })
	return packs, nil
}

func readPack(path string) (Pack, error) {
	var pack Pack
	b, err := os.ReadFile(path)
	if err != nil {
		return pack, err
	}
	if err := yaml.Unmarshal(b, &pack); err != nil {
		return pack, err
	}
	if err := pack.Validate(); err != nil {
		return pack, err
	}
	return pack, nil
}

func applyPackDefaults(pack *Pack) {
	if pack.Defaults.Scoring.PointsPerLetter <= 0 {
		pack.Defaults.Scoring.PointsPerLetter = 10
	}
	if pack.Defaults.Scoring.CompletionBonus <= 0 {
		pack.Defaults.Scoring.CompletionBonus = 100
	}
	if pack.Defaults.Scoring.TimeGraceSeconds <= 0 {
		pack.Defaults.Scoring.TimeGraceSeconds = 300
	}
	if pack.Defaults.Scoring.TimePenaltyPerSecond <= 0 {
		pack.Defaults.Scoring.TimePenaltyPerSecond = 1
	}
	if pack.Defaults.UI.CellWidth <= 0 {
		pack.Defaults.UI.CellWidth = 3
	}
	if pack.Defaults.UI.MinCols <= 0 {
		pack.Defaults.UI.MinCols = 80
	}
	if pack.Defaults.UI.MinRows <= 0 {
		pack.Defaults.UI.MinRows = 24
	}
}

func (l *FSLoader) readPuzzles(pack Pack) ([]Puzzle, error) {
	if len(pack.Puzzles) > 0 {
		return l.readPuzzlesFromManifest(pack)
	}
	return l.readPuzzlesFromScan(pack)
}

func (l *FSLoader) readPuzzlesFromManifest(pack Pack) ([]Puzzle, error) {
	puzzles := make([]Puzzle, 0, len(pack.Puzzles))
	for _, ref := range pack.Puzzles {
		if ref.Enabled != nil && !*ref.Enabled {
			continue
		}
		path := filepath.Join(pack.Path, ref.Path)
		p, err := loadPuzzleFile(path)
		if err != nil {
			return nil, err
		}
		if p.PuzzleID != ref.PuzzleID {
			return nil, fmt.Errorf("puzzle id mismatch for %s: manifest=%s file=%s", path, ref.PuzzleID, p.PuzzleID)
		}
		applyPuzzleDefaults(&p, pack)
		puzzles = append(puzzles, p)
	}
	return puzzles, nil
}

func (l *FSLoader) readPuzzlesFromScan(pack Pack) ([]Puzzle, error) {
	puzzleRoot := filepath.Join(pack.Path, "puzzles")
	entries, err := os.ReadDir(puzzleRoot)
	if err != nil {
		return nil, err
	}
	puzzles := make([]Puzzle, 0)
	for _, e := range entries {
		if e.IsDir() || !isPuzzleFile(e.Name()) {
			continue
		}
		p, err := loadPuzzleFile(filepath.Join(puzzleRoot, e.Name()))
		if err != nil {
			return nil, err
		}
		applyPuzzleDefaults(&p, pack)
		puzzles = append(puzzles, p)
	}
	sort.Slice(puzzles, func(i, j int) bool { return puzzles[i].PuzzleID < puzzles[j].PuzzleID })
	return puzzles, nil
}

func isPuzzleFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// loadPuzzleFile reads a puzzle document or a bare entry list. JSON files go
// through the YAML decoder as well.
func loadPuzzleFile(path string) (Puzzle, error) {
	var p Puzzle
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte("[")) {
		var entries []crossword.EntrySpec
		if err := yaml.Unmarshal(b, &entries); err != nil {
			return p, fmt.Errorf("parse %s: %w", path, err)
		}
		p = Puzzle{
			Kind:          PuzzleKind,
			SchemaVersion: SupportedSchemaVersion,
			PuzzleID:      idFromFilename(path),
			Title:         titleFromFilename(path),
			Difficulty:    1,
			Entries:       entries,
		}
	} else if err := yaml.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("validate %s: %w", path, err)
	}
	p.Path = path
	return p, nil
}

func applyPuzzleDefaults(p *Puzzle, pack Pack) {
	if p.Author == "" {
		p.Author = pack.Author
	}
	if p.Scoring.PointsPerLetter <= 0 {
		p.Scoring.PointsPerLetter = pack.Defaults.Scoring.PointsPerLetter
	}
	if p.Scoring.CompletionBonus <= 0 {
		p.Scoring.CompletionBonus = pack.Defaults.Scoring.CompletionBonus
	}
	if p.Scoring.TimeGraceSeconds <= 0 {
		p.Scoring.TimeGraceSeconds = pack.Defaults.Scoring.TimeGraceSeconds
	}
	if p.Scoring.TimePenaltyPerSecond <= 0 {
		p.Scoring.TimePenaltyPerSecond = pack.Defaults.Scoring.TimePenaltyPerSecond
	}
	if len(p.Scoring.Rules) == 0 {
		p.Scoring.Rules = append([]RuleSpec(nil), pack.Defaults.Scoring.Rules...)
	}
	if p.UI.CellWidth <= 0 {
		p.UI.CellWidth = pack.Defaults.UI.CellWidth
	}
	if p.UI.MinCols <= 0 {
		p.UI.MinCols = pack.Defaults.UI.MinCols
	}
	if p.UI.MinRows <= 0 {
		p.UI.MinRows = pack.Defaults.UI.MinRows
	}
}

// LoadFile opens a single puzzle outside any pack. It gets the default pack
// settings.
func (l *FSLoader) LoadFile(path string) (Puzzle, error) {
	p, err := loadPuzzleFile(path)
	if err != nil {
		return p, err
	}
	pack := LocalPack(nil)
	applyPuzzleDefaults(&p, pack)
	return p, nil
}

// LocalPack wraps puzzles opened by path so they flow through the same
// screens as pack puzzles.
func LocalPack(puzzles []Puzzle) Pack {
	pack := Pack{
		Kind:          PackKind,
		SchemaVersion: SupportedSchemaVersion,
		PackID:        LocalPackID,
		Name:          "Local files",
		Version:       "0",
		LoadedPuzzles: puzzles,
	}
	applyPackDefaults(&pack)
	return pack
}

func (l *FSLoader) FindPuzzle(packs []Pack, packID string, puzzleID string) (Pack, Puzzle, error) {
	for _, p := range packs {
		if p.PackID != packID {
			continue
		}
		for _, pz := range p.LoadedPuzzles {
			if pz.PuzzleID == puzzleID {
				return p, pz, nil
			}
		}
	}
	return Pack{}, Puzzle{}, fmt.Errorf("puzzle %s/%s not found", packID, puzzleID)
}

var unsafeID = regexp.MustCompile(`[^a-z0-9_-]+`)

func idFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id := strings.Trim(unsafeID.ReplaceAllString(strings.ToLower(base), "-"), "-_")
	if !idPattern.MatchString(id) {
		id = "puzzle-" + id
	}
	if len(id) > 64 {
		id = id[:64]
	}
	return id
}

func titleFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	if base == "" {
		return "Untitled"
	}
	return strings.ToUpper(base[:1]) + base[1:]
}
