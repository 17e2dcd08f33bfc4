package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"devcross/internal/crossword"
	"devcross/internal/devtools"
	"devcross/internal/grading"
	"devcross/internal/puzzle"
	"devcross/internal/state"
	"devcross/internal/telemetry"
	"devcross/internal/term"
	"devcross/internal/ui"

	"github.com/google/uuid"
)

const (
	Version          = "0.1.0"
	leaderboardLimit = 10
)

type App struct {
	cfg Config

	logger *telemetry.JSONLogger
	store  Store
	loader *puzzle.FSLoader
	grader Grader
	demo   devtools.Demo

	view   ui.View
	screen ui.Screen

	sessionID string

	mu     sync.Mutex
	packs  []puzzle.Pack
	pack   puzzle.Pack
	puzzle puzzle.Puzzle
	run    *run
}

func New(cfg Config) (*App, error) {
	logger, err := telemetry.NewJSONLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if saved, err := store.LoadSettings(context.Background()); err != nil {
		logger.Error("settings.load_failed", map[string]any{"error": err.Error()})
	} else {
		applySettings(&cfg, saved)
		if err := cfg.Validate(); err != nil {
			_ = store.Close()
			_ = logger.Close()
			return nil, fmt.Errorf("stored settings: %w", err)
		}
	}

	loader := puzzle.NewLoader()
	packs, err := loadCatalog(context.Background(), loader, cfg)
	if err != nil {
		_ = store.Close()
		_ = logger.Close()
		return nil, err
	}

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
		MouseScope:   cfg.UI.MouseScope,
	})

	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		loader:    loader,
		grader:    grading.NewGrader(),
		demo:      devtools.NewManager(),
		view:      view,
		sessionID: uuid.NewString(),
		packs:     packs,
		pack:      packs[0],
		puzzle:    packs[0].LoadedPuzzles[0],
		screen:    ui.ScreenPuzzleSelect,
	}
	view.SetController(a)
	return a, nil
}

// loadCatalog reads the pack directory and any puzzle file named on the
// command line. A missing pack directory is fine when a file was given.
func loadCatalog(ctx context.Context, loader *puzzle.FSLoader, cfg Config) ([]puzzle.Pack, error) {
	packs, err := loader.LoadPacks(ctx, cfg.PuzzleDir)
	if err != nil && !(cfg.PuzzleFile != "" && errors.Is(err, os.ErrNotExist)) {
		return nil, fmt.Errorf("load puzzles from %s: %w", cfg.PuzzleDir, err)
	}
	if cfg.PuzzleFile != "" {
		pz, err := loader.LoadFile(cfg.PuzzleFile)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", cfg.PuzzleFile, err)
		}
		packs = append([]puzzle.Pack{puzzle.LocalPack([]puzzle.Puzzle{pz})}, packs...)
	}
	out := packs[:0]
	for _, p := range packs {
		if len(p.LoadedPuzzles) > 0 {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no puzzles available under %s", cfg.PuzzleDir)
	}
	return out, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "frontend": a.cfg.Frontend, "packs": len(a.packs)})

	pack, pz, hasTarget, err := a.target()
	if err != nil {
		return err
	}
	if a.cfg.Frontend == FrontendClassic {
		return a.runClassic(ctx, pack, pz)
	}

	a.view.SetCatalog(a.catalog(ctx))
	a.view.SetSelection(pack.PackID, pz.PuzzleID)

	switch {
	case a.cfg.DemoScenario != "":
		if err := a.applyDemoScenario(ctx, pack, pz, a.cfg.DemoScenario); err != nil {
			a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
			a.view.SetSetupError("Demo failed", err.Error())
		}
	case hasTarget:
		if err := a.startPuzzle(ctx, pack, pz); err != nil {
			a.view.SetSetupError("Cannot open puzzle", err.Error())
		}
	default:
		a.screen = ui.ScreenPuzzleSelect
		a.view.SetScreen(ui.ScreenPuzzleSelect)
		a.setDevState(ctx, "puzzle_select")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.view.Stop()
		case <-done:
		}
	}()
	return a.view.Run()
}

func (a *App) Close() {
	_ = a.store.Close()
	_ = a.logger.Close()
}

// target resolves the puzzle named on the command line, falling back to the
// first puzzle of the first pack.
func (a *App) target() (puzzle.Pack, puzzle.Puzzle, bool, error) {
	switch {
	case a.cfg.PuzzleFile != "":
		p := a.packs[0]
		return p, p.LoadedPuzzles[0], true, nil
	case a.cfg.Target != "":
		packID, puzzleID, err := splitTarget(a.cfg.Target)
		if err != nil {
			return puzzle.Pack{}, puzzle.Puzzle{}, false, err
		}
		pack, pz, err := a.loader.FindPuzzle(a.packs, packID, puzzleID)
		if err != nil {
			return puzzle.Pack{}, puzzle.Puzzle{}, false, err
		}
		return pack, pz, true, nil
	}
	return a.pack, a.puzzle, false, nil
}

func (a *App) startPuzzle(ctx context.Context, pack puzzle.Pack, pz puzzle.Puzzle) error {
	r, err := a.beginRun(ctx, pack, pz, false)
	if err != nil {
		return err
	}
	a.showRun(ctx, r, r.grid.Start(), "")
	a.view.FlashStatus("Puzzle ready")
	a.setDevState(ctx, "playing")
	return nil
}

// beginRun derives the grid and opens a stored run for it.
func (a *App) beginRun(ctx context.Context, pack puzzle.Pack, pz puzzle.Puzzle, demo bool) (*run, error) {
	g, err := pz.Grid()
	if err != nil {
		return nil, fmt.Errorf("puzzle %s: %w", pz.PuzzleID, err)
	}
	r := newRun(uuid.NewString(), pack, pz, g, time.Now())
	r.demo = demo
	if !demo {
		runID, err := a.store.StartPuzzleRun(ctx, state.PuzzleRun{
			SessionID: a.sessionID,
			Player:    a.cfg.Player,
			PackID:    pack.PackID,
			PuzzleID:  pz.PuzzleID,
			StartTS:   r.startedAt.UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("start run: %w", err)
		}
		r.id = runID
	}

	a.mu.Lock()
	a.pack = pack
	a.puzzle = pz
	a.run = r
	a.mu.Unlock()

	a.logger.Info("puzzle.start", map[string]any{
		"pack":    pack.PackID,
		"puzzle":  pz.PuzzleID,
		"entries": len(g.Entries()),
		"run":     r.key,
		"demo":    demo,
	})
	return r, nil
}

func (a *App) showRun(ctx context.Context, r *run, s crossword.State, elapsed string) {
	a.view.SetResult(ui.ResultState{})
	a.view.SetHelpOpen(false)
	a.view.SetPlayingState(ui.PlayingState{
		PackID:       r.pack.PackID,
		PuzzleID:     r.puzzle.PuzzleID,
		Title:        r.puzzle.Title,
		Player:       a.cfg.Player,
		Grid:         r.grid,
		State:        s,
		RunKey:       r.key,
		ElapsedLabel: elapsed,
		StartedAt:    r.startedAt,
		BestScore:    a.bestScore(ctx, r.pack.PackID, r.puzzle.PuzzleID),
	})
	a.screen = ui.ScreenPlaying
	a.view.SetScreen(ui.ScreenPlaying)
}

// recordSolves stores solves not yet seen for the run named by runKey and
// finishes it once every entry is solved. It returns the result when it did.
// States for any other run are dropped.
func (a *App) recordSolves(ctx context.Context, runKey string, s crossword.State) (*grading.Result, error) {
	a.mu.Lock()
	r := a.run
	if r == nil || r.key != runKey || r.finished {
		a.mu.Unlock()
		return nil, nil
	}
	now := time.Now()
	var fresh []crossword.Solve
	for _, solve := range s.Solved.Solves() {
		if _, seen := r.solvedAt[solve.EntryID]; seen {
			continue
		}
		r.solvedAt[solve.EntryID] = now
		fresh = append(fresh, solve)
	}
	complete := len(r.solvedAt) == len(r.grid.Entries())
	a.mu.Unlock()

	for _, solve := range fresh {
		e := r.grid.Entry(solve.EntryID)
		a.logger.Info("entry.solved", map[string]any{
			"run":         r.key,
			"entry":       e.ID,
			"position":    e.Position,
			"orientation": e.Orientation.String(),
		})
		if r.demo {
			continue
		}
		if err := a.store.RecordEntrySolved(ctx, r.id, state.EntrySolve{
			EntryID:     e.ID,
			Position:    e.Position,
			Orientation: e.Orientation.String(),
			Answer:      strings.ToUpper(solve.Answer),
			SolvedTS:    now.UTC(),
		}); err != nil {
			a.logger.Error("store.entry_solved_failed", map[string]any{"run": r.key, "error": err.Error()})
			return nil, fmt.Errorf("record solve: %w", err)
		}
	}
	if !complete {
		return nil, nil
	}
	res, err := a.finishRun(ctx, r)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// finishRun grades the run and stores the result exactly once. Concurrent
// and later callers wait for and share the first outcome.
func (a *App) finishRun(ctx context.Context, r *run) (grading.Result, error) {
	r.finish.Do(func() {
		r.result, r.finishErr = a.gradeAndStore(ctx, r)
	})
	return r.result, r.finishErr
}

func (a *App) gradeAndStore(ctx context.Context, r *run) (grading.Result, error) {
	a.mu.Lock()
	r.finished = true
	req := a.gradeRequest(r, time.Now())
	a.mu.Unlock()

	res, err := a.grader.Grade(ctx, req)
	if err != nil {
		return grading.Result{}, fmt.Errorf("grade run: %w", err)
	}

	a.logger.Info("run.finish", map[string]any{
		"run":       r.key,
		"completed": res.Completed,
		"solved":    res.Solved,
		"total":     res.Total,
		"score":     res.Score.TotalPoints,
	})
	if r.demo {
		return res, nil
	}
	if err := a.store.FinishPuzzleRun(ctx, state.RunResult{
		RunID:       r.id,
		PackID:      r.pack.PackID,
		PuzzleID:    r.puzzle.PuzzleID,
		Completed:   res.Completed,
		SolvedCount: res.Solved,
		EntryCount:  res.Total,
		Score:       res.Score.TotalPoints,
		DurationMS:  res.Run.DurationMS,
		FinishedTS:  time.UnixMilli(res.Run.FinishedAtUnixMS).UTC(),
	}); err != nil {
		a.logger.Error("store.finish_failed", map[string]any{"run": r.key, "error": err.Error()})
		return res, fmt.Errorf("store result: %w", err)
	}
	return res, nil
}

func (a *App) gradeRequest(r *run, finished time.Time) grading.Request {
	sc := r.puzzle.Scoring
	rules := make([]grading.RuleSpec, 0, len(sc.Rules))
	for _, rule := range sc.Rules {
		rules = append(rules, grading.RuleSpec{
			ID:          rule.ID,
			Kind:        rule.Kind,
			Description: rule.Description,
			Points:      rule.Points,
			MinLetters:  rule.MinLetters,
		})
	}
	perLetter := sc.PointsPerLetter
	if a.cfg.Gameplay.PointsPerLetter > 0 {
		perLetter = a.cfg.Gameplay.PointsPerLetter
	}
	grace := sc.TimeGraceSeconds
	if a.cfg.Gameplay.TimeGraceSeconds > 0 {
		grace = a.cfg.Gameplay.TimeGraceSeconds
	}
	return grading.Request{
		AppVersion:           Version,
		PackID:               r.pack.PackID,
		PackVersion:          r.pack.Version,
		PuzzleID:             r.puzzle.PuzzleID,
		RunID:                r.key,
		Player:               a.cfg.Player,
		StartedAt:            r.startedAt,
		FinishedAt:           finished,
		Entries:              r.outcomes(),
		Rules:                rules,
		PointsPerLetter:      perLetter,
		CompletionBonus:      sc.CompletionBonus,
		TimeGraceSeconds:     grace,
		TimePenaltyPerSecond: sc.TimePenaltyPerSecond,
	}
}

func (a *App) showResult(res grading.Result) {
	title := ""
	a.mu.Lock()
	if a.run != nil {
		title = a.run.puzzle.Title
	}
	a.mu.Unlock()

	breakdown := make([]ui.BreakdownRow, 0, len(res.Score.Breakdown)+1)
	for _, row := range res.Score.Breakdown {
		breakdown = append(breakdown, ui.BreakdownRow{Label: row.Description, Value: fmt.Sprintf("%+d", row.Points)})
	}
	a.view.SetResult(ui.ResultState{
		Visible:   true,
		Completed: res.Completed,
		Title:     title,
		Summary:   resultSummary(res),
		Solved:    res.Solved,
		Total:     res.Total,
		Duration:  (time.Duration(res.Run.DurationMS) * time.Millisecond).Truncate(time.Second).String(),
		Score:     res.Score.TotalPoints,
		Breakdown: breakdown,
	})
}

func (a *App) OnOpenPuzzleSelect() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.view.SetHelpOpen(false)
	a.view.SetResult(ui.ResultState{})
	a.view.SetCatalog(a.catalog(ctx))
	a.mu.Lock()
	packID, puzzleID := a.pack.PackID, a.puzzle.PuzzleID
	a.mu.Unlock()
	a.view.SetSelection(packID, puzzleID)
	a.screen = ui.ScreenPuzzleSelect
	a.view.SetScreen(ui.ScreenPuzzleSelect)
	a.setDevState(ctx, "puzzle_select")
}

func (a *App) OnStartPuzzle(packID, puzzleID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.mu.Lock()
	packs := a.packs
	a.mu.Unlock()
	pack, pz, err := a.loader.FindPuzzle(packs, packID, puzzleID)
	if err != nil {
		a.view.FlashStatus("puzzle not found: " + err.Error())
		return
	}
	if err := a.startPuzzle(ctx, pack, pz); err != nil {
		a.logger.Error("puzzle.start_failed", map[string]any{"pack": packID, "puzzle": puzzleID, "error": err.Error()})
		a.view.FlashStatus("start puzzle failed: " + err.Error())
	}
}

func (a *App) OnSolved(runKey string, s crossword.State) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.view.SetSaving(true)
	res, err := a.recordSolves(ctx, runKey, s)
	a.view.SetSaving(false)
	if err != nil {
		a.view.FlashStatus("save failed: " + err.Error())
	}
	if res != nil {
		a.showResult(*res)
		a.view.FlashStatus("Puzzle complete")
		a.setDevState(ctx, "complete")
	}
}

func (a *App) OnFinish() {
	a.mu.Lock()
	r := a.run
	a.mu.Unlock()
	if r == nil {
		a.view.FlashStatus("start a puzzle first")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.view.SetSaving(true)
	res, err := a.finishRun(ctx, r)
	a.view.SetSaving(false)
	if err != nil {
		a.view.FlashStatus("finish failed: " + err.Error())
		if res.Kind == "" {
			return
		}
	}
	a.showResult(res)
	a.setDevState(ctx, "complete")
}

func (a *App) OnRestart() {
	a.mu.Lock()
	r := a.run
	a.mu.Unlock()
	if r == nil {
		a.view.FlashStatus("start a puzzle first")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.startPuzzle(ctx, r.pack, r.puzzle); err != nil {
		a.view.FlashStatus("restart failed: " + err.Error())
		return
	}
	a.view.FlashStatus("Puzzle restarted")
}

func (a *App) OnLeaderboard() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rows, err := a.leaderboard(ctx)
	if err != nil {
		a.view.FlashStatus("leaderboard failed: " + err.Error())
		return
	}
	a.view.SetLeaderboard(rows, true)
	a.setDevState(ctx, "leaderboard")
}

func (a *App) leaderboard(ctx context.Context) ([]ui.LeaderboardRow, error) {
	rows, err := a.store.Leaderboard(ctx, leaderboardLimit)
	if err != nil {
		return nil, err
	}
	out := make([]ui.LeaderboardRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ui.LeaderboardRow{Rank: row.Rank, Player: row.Player, Points: row.Points, Puzzles: row.Puzzles})
	}
	return out, nil
}

func (a *App) OnQuit() {
	a.view.Stop()
}

func (a *App) OnResize(cols, rows int) {
	if a.screen != ui.ScreenPlaying {
		return
	}
	if ui.DetermineLayoutMode(cols, rows) == ui.LayoutTooSmall {
		a.view.SetTooSmall(cols, rows)
	}
}

// applyDemoScenario replays a scripted scenario on a throwaway run so the
// screen is deterministic.
func (a *App) applyDemoScenario(ctx context.Context, pack puzzle.Pack, pz puzzle.Puzzle, name string) error {
	sc := a.demo.Resolve(name)
	a.logger.Info("dev.demo.apply.begin", map[string]any{"requested": name, "resolved": sc.Name})

	r, err := a.beginRun(ctx, pack, pz, true)
	if err != nil {
		return err
	}
	// fixed clock so the header and score read the same every time
	r.startedAt = time.Now().Add(-2 * time.Minute)
	s := a.demo.Apply(r.grid, sc)
	a.showRun(ctx, r, s, "2m0s")

	res, err := a.recordSolves(ctx, r.key, s)
	if err != nil {
		return err
	}
	if res != nil && sc.ResultOpen {
		a.showResult(*res)
	}
	if sc.HelpOpen {
		a.view.SetHelpOpen(true)
	}
	if sc.LeaderboardOpen {
		rows, err := a.leaderboard(ctx)
		if err != nil {
			return err
		}
		a.view.SetLeaderboard(rows, true)
	}
	a.setDevState(ctx, sc.Name)
	a.logger.Info("dev.demo.apply.ready", map[string]any{"requested": name, "resolved": sc.Name, "solved": s.Solved.Len()})
	return nil
}

// runClassic plays one puzzle on the tview board.
func (a *App) runClassic(ctx context.Context, pack puzzle.Pack, pz puzzle.Puzzle) error {
	demo := a.cfg.DemoScenario != ""
	r, err := a.beginRun(ctx, pack, pz, demo)
	if err != nil {
		return err
	}

	var classic *term.Classic
	board := term.NewBoard(a.cfg.ASCIIOnly, func(prev, next crossword.State) {
		if next.Solved.Len() <= prev.Solved.Len() {
			return
		}
		res, err := a.recordSolves(ctx, r.key, next)
		switch {
		case err != nil:
			classic.SetStatus("save failed: " + err.Error())
		case res != nil:
			classic.SetStatus(fmt.Sprintf("Solved! %d points in %s. Esc to quit.", res.Score.TotalPoints,
				(time.Duration(res.Run.DurationMS) * time.Millisecond).Truncate(time.Second)))
		default:
			classic.SetStatus(fmt.Sprintf("%d/%d words", next.Solved.Len(), len(r.grid.Entries())))
		}
	})
	classic = term.NewClassic(board)

	s := r.grid.Start()
	if demo {
		s = a.demo.Apply(r.grid, a.demo.Resolve(a.cfg.DemoScenario))
		if _, err := a.recordSolves(ctx, r.key, s); err != nil {
			return err
		}
	}
	board.Load(r.grid, s)
	board.SetTitle(" " + pz.Title + " ")
	return classic.Run(ctx)
}

func (a *App) catalog(ctx context.Context) []ui.PackSummary {
	progress, err := a.store.GetPuzzleProgressMap(ctx)
	if err != nil {
		a.logger.Error("store.progress_failed", map[string]any{"error": err.Error()})
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ui.PackSummary, 0, len(a.packs))
	for _, p := range a.packs {
		ps := ui.PackSummary{
			PackID:        p.PackID,
			Name:          p.Name,
			DescriptionMD: p.DescriptionMD,
			Puzzles:       make([]ui.PuzzleSummary, 0, len(p.LoadedPuzzles)),
		}
		for _, pz := range p.LoadedPuzzles {
			prog := progress[state.PuzzleKey(p.PackID, pz.PuzzleID)]
			ps.Puzzles = append(ps.Puzzles, ui.PuzzleSummary{
				PuzzleID:         pz.PuzzleID,
				Title:            pz.Title,
				Difficulty:       pz.Difficulty,
				EstimatedMinutes: pz.EstimatedMinutes,
				SummaryMD:        pz.SummaryMD,
				Entries:          len(pz.Entries),
				Completed:        prog.CompletedCount > 0,
				BestScore:        prog.BestScore,
			})
		}
		out = append(out, ps)
	}
	return out
}

func (a *App) bestScore(ctx context.Context, packID, puzzleID string) int {
	progress, err := a.store.GetPuzzleProgressMap(ctx)
	if err != nil {
		return 0
	}
	return progress[state.PuzzleKey(packID, puzzleID)].BestScore
}

func (a *App) setDevState(ctx context.Context, name string) {
	if !a.cfg.DevState && a.cfg.DemoScenario == "" {
		return
	}
	if err := a.demo.SetState(ctx, a.cfg.CacheDir, name, true); err != nil {
		a.logger.Error("dev_state.write_failed", map[string]any{"state": name, "error": err.Error()})
	}
}

func resultSummary(res grading.Result) string {
	if res.Completed {
		return "Every word solved."
	}
	return fmt.Sprintf("%d of %d words solved.", res.Solved, res.Total)
}

var _ ui.Controller = (*App)(nil)
