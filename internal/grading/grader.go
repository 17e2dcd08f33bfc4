package grading

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type ruleFunc func(Request, RuleSpec) ScoreDelta

type DefaultGrader struct {
	registry map[string]ruleFunc
}

func NewGrader() *DefaultGrader {
	g := &DefaultGrader{registry: map[string]ruleFunc{}}
	g.registry["long_word"] = g.ruleLongWord
	g.registry["ordered_solve"] = g.ruleOrderedSolve
	g.registry["speed_sweep"] = g.ruleSweep
	return g
}

func (g *DefaultGrader) Grade(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if req.FinishedAt.IsZero() {
		req.FinishedAt = time.Now()
	}
	if req.StartedAt.IsZero() {
		req.StartedAt = req.FinishedAt
	}

	result := Result{
		Kind:          ResultKind,
		SchemaVersion: SchemaVersion,
		AppVersion:    req.AppVersion,
		PackID:        req.PackID,
		PackVersion:   req.PackVersion,
		PuzzleID:      req.PuzzleID,
		Total:         len(req.Entries),
		Run: RunInfo{
			RunID:            req.RunID,
			Player:           req.Player,
			StartedAtUnixMS:  req.StartedAt.UnixMilli(),
			FinishedAtUnixMS: req.FinishedAt.UnixMilli(),
			DurationMS:       max64(0, req.FinishedAt.Sub(req.StartedAt).Milliseconds()),
		},
	}

	perLetter := defaultInt(req.PointsPerLetter, 10)
	completionBonus := defaultInt(req.CompletionBonus, 100)
	grace := defaultInt(req.TimeGraceSeconds, 300)
	timePenaltyPerSec := defaultInt(req.TimePenaltyPerSecond, 1)

	letterPoints := 0
	for _, e := range req.Entries {
		er := EntryResult{EntryID: e.EntryID, Position: e.Position, Orientation: e.Orientation, Solved: e.Solved}
		if e.Solved {
			er.Points = e.Letters * perLetter
			letterPoints += er.Points
			result.Solved++
		}
		result.Entries = append(result.Entries, er)
	}
	result.Completed = result.Total > 0 && result.Solved == result.Total
	if !result.Completed {
		completionBonus = 0
	}

	durationSec := int(result.Run.DurationMS / 1000)
	timePenaltyPoints := 0
	if durationSec > grace {
		timePenaltyPoints = (durationSec - grace) * timePenaltyPerSec
	}

	breakdown := []ScoreDelta{
		{Kind: "letters", Points: letterPoints, Description: fmt.Sprintf("%d of %d entries solved", result.Solved, result.Total)},
		{Kind: "completion", Points: completionBonus, Description: "Completion bonus"},
		{Kind: "time", Points: -timePenaltyPoints, Description: "Time penalty after grace"},
	}
	ruleBonus := 0
	for _, rule := range req.Rules {
		delta := g.evaluateRule(req, rule)
		ruleBonus += delta.Points
		breakdown = append(breakdown, delta)
	}

	total := letterPoints + completionBonus - timePenaltyPoints + ruleBonus
	if total < 0 {
		total = 0
	}
	result.Score = Score{
		LetterPoints:      letterPoints,
		CompletionBonus:   completionBonus,
		TimeGraceSeconds:  grace,
		TimePenaltyPoints: timePenaltyPoints,
		RuleBonusPoints:   ruleBonus,
		TotalPoints:       total,
		Breakdown:         breakdown,
	}
	return result, nil
}

func (g *DefaultGrader) evaluateRule(req Request, rule RuleSpec) ScoreDelta {
	fn, ok := g.registry[rule.Kind]
	if !ok {
		return ScoreDelta{Kind: rule.Kind, Points: 0, Description: "unknown rule kind: " + rule.Kind}
	}
	delta := fn(req, rule)
	if rule.Description != "" {
		delta.Description = rule.Description
	}
	return delta
}

func (g *DefaultGrader) ruleLongWord(req Request, rule RuleSpec) ScoreDelta {
	minLetters := defaultInt(rule.MinLetters, 7)
	count := 0
	for _, e := range req.Entries {
		if e.Solved && e.Letters >= minLetters {
			count++
		}
	}
	return ScoreDelta{
		Kind:        "long_word",
		Points:      count * rule.Points,
		Description: fmt.Sprintf("%d solved entries of %d+ letters", count, minLetters),
	}
}

// ruleOrderedSolve pays out when every entry was solved in clue-number order.
func (g *DefaultGrader) ruleOrderedSolve(req Request, rule RuleSpec) ScoreDelta {
	solved := make([]EntryOutcome, 0, len(req.Entries))
	for _, e := range req.Entries {
		if !e.Solved {
			return ScoreDelta{Kind: "ordered_solve", Description: "Not every entry was solved"}
		}
		solved = append(solved, e)
	}
	sort.SliceStable(solved, func(i, j int) bool { return solved[i].SolvedAt.Before(solved[j].SolvedAt) })
	for i := 1; i < len(solved); i++ {
		if solved[i].Position < solved[i-1].Position {
			return ScoreDelta{Kind: "ordered_solve", Description: "Entries solved out of order"}
		}
	}
	return ScoreDelta{Kind: "ordered_solve", Points: rule.Points, Description: "Solved in clue order"}
}

// ruleSweep pays out when the whole grid was finished inside the grace window.
func (g *DefaultGrader) ruleSweep(req Request, rule RuleSpec) ScoreDelta {
	grace := time.Duration(defaultInt(req.TimeGraceSeconds, 300)) * time.Second
	for _, e := range req.Entries {
		if !e.Solved {
			return ScoreDelta{Kind: "speed_sweep", Description: "Grid not finished"}
		}
	}
	if len(req.Entries) == 0 || req.FinishedAt.Sub(req.StartedAt) > grace {
		return ScoreDelta{Kind: "speed_sweep", Description: "Grid not finished inside the grace window"}
	}
	return ScoreDelta{Kind: "speed_sweep", Points: rule.Points, Description: "Finished inside the grace window"}
}

func defaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
