package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// controller callbacks write from several goroutines
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS puzzle_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			player TEXT NOT NULL DEFAULT '',
			pack_id TEXT NOT NULL,
			puzzle_id TEXT NOT NULL,
			start_ts TEXT NOT NULL,
			finished_ts TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			solved_count INTEGER NOT NULL DEFAULT 0,
			entry_count INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS entry_solves (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			entry_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			orientation TEXT NOT NULL,
			answer TEXT NOT NULL,
			solved_ts TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE(run_id, entry_id),
			FOREIGN KEY(run_id) REFERENCES puzzle_runs(id)
		);`,
		`CREATE TABLE IF NOT EXISTS puzzle_progress (
			puzzle_key TEXT PRIMARY KEY,
			completed_count INTEGER NOT NULL DEFAULT 0,
			best_score INTEGER NOT NULL DEFAULT 0,
			best_time_ms INTEGER NOT NULL DEFAULT 0,
			last_played_ts TEXT NOT NULL DEFAULT '',
			last_completed_ts TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartPuzzleRun(ctx context.Context, run PuzzleRun) (int64, error) {
	start := run.StartTS
	if start.IsZero() {
		start = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO puzzle_runs(session_id, player, pack_id, puzzle_id, start_ts) VALUES(?,?,?,?,?)`,
		run.SessionID,
		strings.TrimSpace(run.Player),
		run.PackID,
		run.PuzzleID,
		start.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordEntrySolved stores the first solve of an entry within a run; repeats
// are ignored.
func (s *SQLiteStore) RecordEntrySolved(ctx context.Context, runID int64, solve EntrySolve) error {
	ts := solve.SolvedTS
	if ts.IsZero() {
		ts = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO entry_solves(run_id, entry_id, position, orientation, answer, solved_ts)
		VALUES(?, ?, ?, ?, ?, ?)
	`, runID, solve.EntryID, solve.Position, solve.Orientation, strings.ToUpper(solve.Answer), ts.UTC().Format(timeLayout))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, `UPDATE puzzle_runs SET solved_count = solved_count + 1 WHERE id = ?`, runID)
	return err
}

func (s *SQLiteStore) FinishPuzzleRun(ctx context.Context, result RunResult) error {
	finished := result.FinishedTS
	if finished.IsZero() {
		finished = time.Now()
	}
	finishedRaw := finished.UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		UPDATE puzzle_runs
		SET finished_ts = ?, completed = ?, solved_count = ?, entry_count = ?, score = ?, duration_ms = ?
		WHERE id = ?
	`,
		finishedRaw,
		ifThen(result.Completed, 1, 0),
		max(0, result.SolvedCount),
		max(0, result.EntryCount),
		max(0, result.Score),
		max64(0, result.DurationMS),
		result.RunID,
	); err != nil {
		return err
	}

	key := PuzzleKey(result.PackID, result.PuzzleID)
	completedRaw := ""
	bestTime := int64(0)
	if result.Completed {
		completedRaw = finishedRaw
		bestTime = max64(0, result.DurationMS)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO puzzle_progress(puzzle_key, completed_count, best_score, best_time_ms, last_played_ts, last_completed_ts)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(puzzle_key) DO UPDATE SET
			completed_count = puzzle_progress.completed_count + excluded.completed_count,
			best_score = CASE
				WHEN excluded.best_score > puzzle_progress.best_score THEN excluded.best_score
				ELSE puzzle_progress.best_score
			END,
			best_time_ms = CASE
				WHEN excluded.best_time_ms > 0 AND (puzzle_progress.best_time_ms = 0 OR excluded.best_time_ms < puzzle_progress.best_time_ms) THEN excluded.best_time_ms
				ELSE puzzle_progress.best_time_ms
			END,
			last_played_ts = excluded.last_played_ts,
			last_completed_ts = CASE
				WHEN excluded.last_completed_ts <> '' THEN excluded.last_completed_ts
				ELSE puzzle_progress.last_completed_ts
			END
	`,
		key,
		ifThen(result.Completed, 1, 0),
		max(0, result.Score),
		bestTime,
		finishedRaw,
		completedRaw,
	); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) GetPuzzleProgressMap(ctx context.Context) (map[string]PuzzleProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT puzzle_key, completed_count, best_score, best_time_ms, last_played_ts, last_completed_ts
		FROM puzzle_progress
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]PuzzleProgress{}
	for rows.Next() {
		var (
			p             PuzzleProgress
			lastPlayed    string
			lastCompleted string
		)
		if err := rows.Scan(&p.PuzzleKey, &p.CompletedCount, &p.BestScore, &p.BestTimeMS, &lastPlayed, &lastCompleted); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, lastPlayed); err == nil {
			p.LastPlayedTS = t
		}
		if t, err := time.Parse(timeLayout, lastCompleted); err == nil {
			p.LastCompletedTS = t
		}
		out[p.PuzzleKey] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Leaderboard ranks players by the sum of their best completed score on each
// puzzle.
func (s *SQLiteStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT player, SUM(best) AS points, COUNT(*) AS puzzles
		FROM (
			SELECT player, pack_id, puzzle_id, MAX(score) AS best
			FROM puzzle_runs
			WHERE completed = 1 AND player <> ''
			GROUP BY player, pack_id, puzzle_id
		)
		GROUP BY player
		ORDER BY points DESC, player ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LeaderboardRow, 0, limit)
	for rows.Next() {
		var row LeaderboardRow
		if err := rows.Scan(&row.Player, &row.Points, &row.Puzzles); err != nil {
			return nil, err
		}
		row.Rank = len(out) + 1
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) AS puzzle_runs,
			COALESCE(SUM(completed),0) AS completed,
			(SELECT COUNT(*) FROM entry_solves) AS entry_solves
		FROM puzzle_runs
	`)
	if err := row.Scan(&out.PuzzleRuns, &out.Completed, &out.EntrySolves); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) GetLastRun(ctx context.Context) (*LastRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT pack_id, puzzle_id, player, start_ts, completed, solved_count, score
		FROM puzzle_runs
		ORDER BY id DESC
		LIMIT 1
	`)
	var (
		out        LastRun
		startTSRaw string
		completed  int
	)
	if err := row.Scan(&out.PackID, &out.PuzzleID, &out.Player, &startTSRaw, &completed, &out.SolvedCount, &out.Score); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if t, err := time.Parse(timeLayout, startTSRaw); err == nil {
		out.StartTS = t
	}
	out.Completed = completed == 1
	return &out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func ifThen(cond bool, yes, no int) int {
	if cond {
		return yes
	}
	return no
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
