package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"devcross/internal/crossword"
	"devcross/internal/devtools"
	"devcross/internal/grading"
	"devcross/internal/puzzle"
	"devcross/internal/state"
	"devcross/internal/telemetry"
	"devcross/internal/ui"
)

type fakeView struct {
	mu          sync.Mutex
	screen      ui.Screen
	catalog     []ui.PackSummary
	playing     ui.PlayingState
	result      ui.ResultState
	leaderboard []ui.LeaderboardRow
	boardOpen   bool
	helpOpen    bool
	tooSmall    bool
	flashes     []string
	stopped     bool
}

func (f *fakeView) Run() error                   { return nil }
func (f *fakeView) Stop()                        { f.stopped = true }
func (f *fakeView) SetController(ui.Controller)  {}
func (f *fakeView) SetSelection(string, string)  {}
func (f *fakeView) SetSetupError(string, string) {}
func (f *fakeView) SetSaving(bool)               {}

func (f *fakeView) SetScreen(s ui.Screen) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen = s
}

func (f *fakeView) SetCatalog(packs []ui.PackSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = packs
}

func (f *fakeView) SetPlayingState(s ui.PlayingState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = s
}

func (f *fakeView) SetTooSmall(int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tooSmall = true
}

func (f *fakeView) SetHelpOpen(open bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.helpOpen = open
}

func (f *fakeView) SetLeaderboard(rows []ui.LeaderboardRow, open bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaderboard = rows
	f.boardOpen = open
}

func (f *fakeView) SetResult(s ui.ResultState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = s
}

func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, msg)
}

func newTestApp(t *testing.T) (*App, *fakeView, *state.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	store, err := state.NewSQLite(filepath.Join(dir, "state.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	cfg := Config{PuzzleDir: filepath.Join("..", "..", "puzzles"), Player: "ada", CacheDir: dir}
	loader := puzzle.NewLoader()
	packs, err := loadCatalog(context.Background(), loader, cfg)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	logger, err := telemetry.NewJSONLogger("", "")
	if err != nil {
		t.Fatal(err)
	}

	view := &fakeView{}
	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		loader:    loader,
		grader:    grading.NewGrader(),
		demo:      devtools.NewManager(),
		view:      view,
		sessionID: "test-session",
		packs:     packs,
		pack:      packs[0],
		puzzle:    packs[0].LoadedPuzzles[0],
	}
	return a, view, store
}

func solveAll(g *crossword.Grid) crossword.State {
	return devtools.NewManager().Apply(g, devtools.Scenario{SolveAll: true})
}

func TestStartPuzzleShowsBoard(t *testing.T) {
	a, view, _ := newTestApp(t)

	a.OnStartPuzzle("builtin", "build-tools")

	if view.screen != ui.ScreenPlaying {
		t.Fatalf("expected playing screen, got %v", view.screen)
	}
	if view.playing.Grid == nil || view.playing.PuzzleID != "build-tools" || view.playing.Player != "ada" {
		t.Fatalf("unexpected playing state %+v", view.playing)
	}
	if a.run == nil || a.run.id == 0 {
		t.Fatalf("expected a stored run")
	}
}

func TestStartUnknownPuzzleFlashes(t *testing.T) {
	a, view, _ := newTestApp(t)

	a.OnStartPuzzle("builtin", "missing")

	if view.screen == ui.ScreenPlaying || len(view.flashes) == 0 {
		t.Fatalf("expected a flash and no screen change, got %v %v", view.screen, view.flashes)
	}
}

func TestSolvingEveryEntryFinishesRun(t *testing.T) {
	a, view, store := newTestApp(t)
	a.OnStartPuzzle("builtin", "starter-shell")
	g := view.playing.Grid

	a.OnSolved(view.playing.RunKey, solveAll(g))

	if !view.result.Visible || !view.result.Completed {
		t.Fatalf("expected completed result, got %+v", view.result)
	}
	if view.result.Solved != len(g.Entries()) || view.result.Score <= 0 {
		t.Fatalf("unexpected result %+v", view.result)
	}

	rows, err := store.Leaderboard(context.Background(), 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(rows) != 1 || rows[0].Player != "ada" || rows[0].Points != view.result.Score {
		t.Fatalf("unexpected leaderboard %+v", rows)
	}
	progress, err := store.GetPuzzleProgressMap(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if progress[state.PuzzleKey("builtin", "starter-shell")].CompletedCount != 1 {
		t.Fatalf("expected progress to record the completion, got %+v", progress)
	}
}

func TestOnSolvedRecordsEachEntryOnce(t *testing.T) {
	a, view, store := newTestApp(t)
	a.OnStartPuzzle("builtin", "starter-shell")
	g := view.playing.Grid

	one := devtools.NewManager().Apply(g, devtools.Scenario{Solve: 1})
	a.OnSolved(view.playing.RunKey, one)
	a.OnSolved(view.playing.RunKey, one)

	summary, err := store.GetSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.EntrySolves != 1 {
		t.Fatalf("expected one stored solve, got %d", summary.EntrySolves)
	}
	if view.result.Visible {
		t.Fatalf("expected no result before the puzzle is complete")
	}
}

func TestFinishPartialRunIsStableAcrossRepeats(t *testing.T) {
	a, view, store := newTestApp(t)
	a.OnStartPuzzle("builtin", "starter-shell")
	g := view.playing.Grid
	a.OnSolved(view.playing.RunKey, devtools.NewManager().Apply(g, devtools.Scenario{Solve: 1}))

	a.OnFinish()
	first := view.result
	if !first.Visible || first.Completed || first.Solved != 1 || first.Total != len(g.Entries()) {
		t.Fatalf("unexpected partial result %+v", first)
	}

	a.OnFinish()
	if view.result.Score != first.Score || view.result.Solved != first.Solved {
		t.Fatalf("expected repeated finish to keep the result, got %+v then %+v", first, view.result)
	}
	summary, err := store.GetSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.PuzzleRuns != 1 || summary.Completed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestRestartOpensNewRun(t *testing.T) {
	a, _, store := newTestApp(t)
	a.OnStartPuzzle("builtin", "ping-pong")
	first := a.run.id

	a.OnRestart()

	if a.run.id == first {
		t.Fatalf("expected a new run id")
	}
	summary, err := store.GetSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.PuzzleRuns != 2 {
		t.Fatalf("expected two runs, got %d", summary.PuzzleRuns)
	}
}

func TestDemoScenarioIsNotStored(t *testing.T) {
	a, view, store := newTestApp(t)
	a.cfg.DemoScenario = "complete"

	if err := a.applyDemoScenario(context.Background(), a.pack, a.puzzle, "complete"); err != nil {
		t.Fatalf("apply demo: %v", err)
	}
	if !view.result.Visible || !view.result.Completed {
		t.Fatalf("expected completed demo result, got %+v", view.result)
	}
	if view.playing.ElapsedLabel == "" {
		t.Fatalf("expected a fixed elapsed label")
	}
	summary, err := store.GetSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.PuzzleRuns != 0 || summary.EntrySolves != 0 {
		t.Fatalf("expected demo to leave the store empty, got %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(a.cfg.CacheDir, "dev_state.json")); err != nil {
		t.Fatalf("expected dev state file: %v", err)
	}
}

func TestLeaderboardOpensOverlay(t *testing.T) {
	a, view, _ := newTestApp(t)
	a.OnStartPuzzle("builtin", "starter-shell")
	a.OnSolved(view.playing.RunKey, solveAll(view.playing.Grid))

	a.OnLeaderboard()

	if !view.boardOpen || len(view.leaderboard) != 1 || view.leaderboard[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v open=%v", view.leaderboard, view.boardOpen)
	}
}

func TestCatalogMarksCompletedPuzzles(t *testing.T) {
	a, view, _ := newTestApp(t)
	a.OnStartPuzzle("builtin", "starter-shell")
	a.OnSolved(view.playing.RunKey, solveAll(view.playing.Grid))

	a.OnOpenPuzzleSelect()

	if view.screen != ui.ScreenPuzzleSelect {
		t.Fatalf("expected puzzle select screen")
	}
	var found bool
	for _, p := range view.catalog {
		for _, pz := range p.Puzzles {
			if pz.PuzzleID == "starter-shell" {
				found = pz.Completed && pz.BestScore > 0
			}
		}
	}
	if !found {
		t.Fatalf("expected starter-shell marked completed, got %+v", view.catalog)
	}
}

func TestResizeTooSmallOnlyWhilePlaying(t *testing.T) {
	a, view, _ := newTestApp(t)
	a.OnResize(40, 10)
	if view.tooSmall {
		t.Fatalf("expected no too-small notice outside the board")
	}
	a.OnStartPuzzle("builtin", "starter-shell")
	a.OnResize(40, 10)
	if !view.tooSmall {
		t.Fatalf("expected too-small notice while playing")
	}
}

func TestLoadCatalogPutsFileFirst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.json")
	body := `[{"answer":"go","clue":"Language","startx":1,"starty":1,"orientation":"across","position":1}]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	packs, err := loadCatalog(context.Background(), puzzle.NewLoader(), Config{PuzzleDir: filepath.Join(dir, "missing"), PuzzleFile: path})
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(packs) != 1 || packs[0].PackID != puzzle.LocalPackID || packs[0].LoadedPuzzles[0].PuzzleID != "tiny" {
		t.Fatalf("unexpected packs %+v", packs)
	}

	if _, err := loadCatalog(context.Background(), puzzle.NewLoader(), Config{PuzzleDir: filepath.Join(dir, "missing")}); err == nil {
		t.Fatalf("expected missing puzzle dir to fail without a file")
	}
}

type slowGrader struct {
	calls atomic.Int32
	delay time.Duration
	next  *grading.DefaultGrader
}

func (g *slowGrader) Grade(ctx context.Context, req grading.Request) (grading.Result, error) {
	g.calls.Add(1)
	time.Sleep(g.delay)
	return g.next.Grade(ctx, req)
}

func TestConcurrentFinishGradesOnce(t *testing.T) {
	a, view, store := newTestApp(t)
	grader := &slowGrader{delay: 50 * time.Millisecond, next: grading.NewGrader()}
	a.grader = grader
	a.OnStartPuzzle("builtin", "starter-shell")
	key, all := view.playing.RunKey, solveAll(view.playing.Grid)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); a.OnSolved(key, all) }()
	go func() { defer wg.Done(); a.OnSolved(key, all) }()
	go func() { defer wg.Done(); a.OnFinish() }()
	wg.Wait()

	if got := grader.calls.Load(); got != 1 {
		t.Fatalf("expected one grade, got %d", got)
	}
	view.mu.Lock()
	res := view.result
	view.mu.Unlock()
	if !res.Visible {
		t.Fatalf("expected a result to be shown")
	}
	summary, err := store.GetSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := 0
	if res.Completed {
		want = 1
	}
	if summary.PuzzleRuns != 1 || summary.Completed != want {
		t.Fatalf("stored summary %+v does not match shown result %+v", summary, res)
	}
}

func TestSolvesForReplacedRunAreDropped(t *testing.T) {
	a, view, store := newTestApp(t)
	a.OnStartPuzzle("builtin", "starter-shell")
	oldKey, oldGrid := view.playing.RunKey, view.playing.Grid

	a.OnRestart()
	if view.playing.RunKey == oldKey {
		t.Fatalf("expected restart to issue a new run key")
	}
	a.OnSolved(oldKey, solveAll(oldGrid))

	if view.result.Visible {
		t.Fatalf("expected stale solves not to finish the new run")
	}
	if len(a.run.solvedAt) != 0 {
		t.Fatalf("expected the new run to have no solves, got %v", a.run.solvedAt)
	}
	summary, err := store.GetSummary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.EntrySolves != 0 || summary.Completed != 0 {
		t.Fatalf("expected nothing stored for stale solves, got %+v", summary)
	}
}
