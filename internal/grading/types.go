package grading

import "time"

const (
	ResultKind    = "run_result"
	SchemaVersion = 1
)

type Request struct {
	AppVersion  string
	PackID      string
	PackVersion string
	PuzzleID    string

	RunID      string
	Player     string
	StartedAt  time.Time
	FinishedAt time.Time

	Entries []EntryOutcome
	Rules   []RuleSpec

	PointsPerLetter      int
	CompletionBonus      int
	TimeGraceSeconds     int
	TimePenaltyPerSecond int
}

// EntryOutcome is one entry as it stood when the run ended.
type EntryOutcome struct {
	EntryID     int
	Position    int
	Orientation string
	Letters     int
	Solved      bool
	SolvedAt    time.Time
}

// RuleSpec enables an optional scoring rule by kind.
type RuleSpec struct {
	ID          string
	Kind        string
	Description string
	Points      int
	MinLetters  int
}

type Result struct {
	Kind          string `json:"kind"`
	SchemaVersion int    `json:"schema_version"`

	AppVersion  string `json:"app_version,omitempty"`
	PackID      string `json:"pack_id"`
	PackVersion string `json:"pack_version"`
	PuzzleID    string `json:"puzzle_id"`

	Run       RunInfo       `json:"run"`
	Completed bool          `json:"completed"`
	Solved    int           `json:"solved"`
	Total     int           `json:"total"`
	Score     Score         `json:"score"`
	Entries   []EntryResult `json:"entries"`
}

type RunInfo struct {
	RunID            string `json:"run_id"`
	Player           string `json:"player,omitempty"`
	StartedAtUnixMS  int64  `json:"started_at_unix_ms"`
	FinishedAtUnixMS int64  `json:"finished_at_unix_ms"`
	DurationMS       int64  `json:"duration_ms"`
}

type Score struct {
	LetterPoints      int          `json:"letter_points"`
	CompletionBonus   int          `json:"completion_bonus,omitempty"`
	TimeGraceSeconds  int          `json:"time_grace_seconds,omitempty"`
	TimePenaltyPoints int          `json:"time_penalty_points,omitempty"`
	RuleBonusPoints   int          `json:"rule_bonus_points,omitempty"`
	TotalPoints       int          `json:"total_points"`
	Breakdown         []ScoreDelta `json:"breakdown,omitempty"`
}

type ScoreDelta struct {
	Kind        string `json:"kind"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

type EntryResult struct {
	EntryID     int    `json:"entry_id"`
	Position    int    `json:"position"`
	Orientation string `json:"orientation"`
	Solved      bool   `json:"solved"`
	Points      int    `json:"points"`
}
