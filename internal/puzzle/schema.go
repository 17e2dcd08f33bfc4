package puzzle

import (
	"fmt"
	"regexp"

	"devcross/internal/crossword"
)

const (
	PackKind               = "pack"
	PuzzleKind             = "puzzle"
	SupportedSchemaVersion = 1
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

type Pack struct {
	Kind          string          `yaml:"kind"`
	SchemaVersion int             `yaml:"schema_version"`
	PackID        string          `yaml:"pack_id"`
	Name          string          `yaml:"name"`
	Version       string          `yaml:"version"`
	Author        string          `yaml:"author"`
	DescriptionMD string          `yaml:"description_md"`
	Defaults      PackDefaults    `yaml:"defaults"`
	Puzzles       []PackPuzzleRef `yaml:"puzzles"`

	Path          string   `yaml:"-"`
	LoadedPuzzles []Puzzle `yaml:"-"`
}

type PackDefaults struct {
	Scoring ScoringSpec `yaml:"scoring"`
	UI      UISpec      `yaml:"ui"`
}

type UISpec struct {
	CellWidth int `yaml:"cell_width"`
	MinCols   int `yaml:"min_cols"`
	MinRows   int `yaml:"min_rows"`
}

type PackPuzzleRef struct {
	PuzzleID string `yaml:"puzzle_id"`
	Path     string `yaml:"path"`
	Enabled  *bool  `yaml:"enabled"`
}

type Puzzle struct {
	Kind             string                `yaml:"kind"`
	SchemaVersion    int                   `yaml:"schema_version"`
	PuzzleID         string                `yaml:"puzzle_id"`
	Title            string                `yaml:"title"`
	Author           string                `yaml:"author"`
	SummaryMD        string                `yaml:"summary_md"`
	DescriptionMD    string                `yaml:"description_md"`
	Difficulty       int                   `yaml:"difficulty"`
	EstimatedMinutes int                   `yaml:"estimated_minutes"`
	Tags             []string              `yaml:"tags"`
	Entries          []crossword.EntrySpec `yaml:"entries"`
	Scoring          ScoringSpec           `yaml:"scoring"`
	UI               UISpec                `yaml:"ui"`

	Path string `yaml:"-"`
}

type ScoringSpec struct {
	PointsPerLetter      int        `yaml:"points_per_letter"`
	CompletionBonus      int        `yaml:"completion_bonus"`
	TimeGraceSeconds     int        `yaml:"time_grace_seconds"`
	TimePenaltyPerSecond int        `yaml:"time_penalty_per_second"`
	Rules                []RuleSpec `yaml:"rules"`
}

type RuleSpec struct {
	ID          string `yaml:"id"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`
	Points      int    `yaml:"points"`
	MinLetters  int    `yaml:"min_letters"`
}

func (p Pack) Validate() error {
	if p.Kind != PackKind {
		return fmt.Errorf("kind must be %q", PackKind)
	}
	if p.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if p.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported pack schema_version %d (max supported %d)", p.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(p.PackID) {
		return fmt.Errorf("invalid pack_id %q", p.PackID)
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Version == "" {
		return fmt.Errorf("version is required")
	}
	seen := map[string]struct{}{}
	for _, ref := range p.Puzzles {
		if ref.PuzzleID == "" {
			return fmt.Errorf("puzzles[].puzzle_id is required")
		}
		if ref.Path == "" {
			return fmt.Errorf("puzzles[%s].path is required", ref.PuzzleID)
		}
		if _, ok := seen[ref.PuzzleID]; ok {
			return fmt.Errorf("duplicate puzzle_id %q in pack.yaml", ref.PuzzleID)
		}
		seen[ref.PuzzleID] = struct{}{}
	}
	return nil
}

func (p Puzzle) Validate() error {
	if p.Kind != PuzzleKind {
		return fmt.Errorf("kind must be %q", PuzzleKind)
	}
	if p.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if p.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported puzzle schema_version %d (max supported %d)", p.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(p.PuzzleID) {
		return fmt.Errorf("invalid puzzle_id %q", p.PuzzleID)
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Difficulty < 1 || p.Difficulty > 5 {
		return fmt.Errorf("difficulty must be 1..5")
	}
	if p.EstimatedMinutes < 0 {
		return fmt.Errorf("estimated_minutes must be >= 0")
	}
	if len(p.Entries) == 0 {
		return fmt.Errorf("entries must contain at least one item")
	}
	if _, err := crossword.Derive(p.Entries); err != nil {
		return err
	}
	seenRules := map[string]struct{}{}
	for _, r := range p.Scoring.Rules {
		if r.ID == "" {
			return fmt.Errorf("scoring.rules[].id is required")
		}
		if _, ok := seenRules[r.ID]; ok {
			return fmt.Errorf("duplicate scoring rule id %q", r.ID)
		}
		seenRules[r.ID] = struct{}{}
		switch r.Kind {
		case "long_word", "ordered_solve", "speed_sweep":
		default:
			return fmt.Errorf("invalid scoring rule kind %q", r.Kind)
		}
	}
	if p.Scoring.PointsPerLetter < 0 || p.Scoring.CompletionBonus < 0 {
		return fmt.Errorf("scoring points must be >= 0")
	}
	return nil
}

// Grid derives the playable board for the puzzle.
func (p Puzzle) Grid() (*crossword.Grid, error) {
	layout, err := crossword.Derive(p.Entries)
	if err != nil {
		return nil, err
	}
	return crossword.Build(layout), nil
}
