package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/go-cmp/cmp"

	"devcross/internal/crossword"
)

type mockController struct {
	mu          sync.Mutex
	selectCalls int
	started     []string
	solved      []crossword.State
	runKeys     []string
	finishCalls int
	restarts    int
	boards      int
	quitCalls   int
}

func (m *mockController) OnOpenPuzzleSelect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectCalls++
}

func (m *mockController) OnStartPuzzle(packID, puzzleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, packID+"/"+puzzleID)
}

func (m *mockController) OnSolved(runKey string, s crossword.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.solved = append(m.solved, s)
	m.runKeys = append(m.runKeys, runKey)
}

func (m *mockController) OnFinish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishCalls++
}

func (m *mockController) OnRestart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restarts++
}

func (m *mockController) OnLeaderboard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards++
}

func (m *mockController) OnQuit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quitCalls++
}

func (m *mockController) OnResize(int, int) {}

// waitFor polls until cond holds; controller calls run on their own
// goroutines.
func (m *mockController) waitFor(t *testing.T, what string, cond func(*mockController) bool) {
	t.Helper()
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		m.mu.Lock()
		ok := cond(m)
		m.mu.Unlock()
		if ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeWord(v *Root, word string) {
	for _, r := range word {
		press(v, r, 0, string(r))
	}
}

func click(v *Root, x, y int) {
	_, _ = v.Update(tea.MouseClickMsg{X: x, Y: y, Button: tea.MouseLeft})
}

// ringGrid is a 3x3 ring: CAT and RUE across, CAR and TOE down, with a
// block in the middle.
func ringGrid(t *testing.T) *crossword.Grid {
	t.Helper()
	l, err := crossword.Derive([]crossword.EntrySpec{
		{Answer: "cat", Clue: "Feline", StartX: 1, StartY: 1, Orientation: "across", Position: 1},
		{Answer: "car", Clue: "Vehicle", StartX: 1, StartY: 1, Orientation: "down", Position: 1},
		{Answer: "toe", Clue: "Foot digit", StartX: 3, StartY: 1, Orientation: "down", Position: 2},
		{Answer: "rue", Clue: "Regret", StartX: 1, StartY: 3, Orientation: "across", Position: 3},
	})
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	return crossword.Build(l)
}

func playingView(t *testing.T) (*Root, *mockController) {
	t.Helper()
	g := ringGrid(t)
	v := New(Options{ASCIIOnly: true})
	ctrl := &mockController{}
	v.SetController(ctrl)
	_, _ = v.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	v.SetPlayingState(PlayingState{PackID: "builtin", PuzzleID: "ring", Title: "Ring", Grid: g, State: g.Start(), RunKey: "run-1"})
	v.SetScreen(ScreenPlaying)
	return v, ctrl
}

func TestTypingSolvesEntryAndNotifiesController(t *testing.T) {
	v, ctrl := playingView(t)

	typeWord(v, "cat")

	s := v.BoardState()
	if s.Solved.Len() != 1 || !s.Solved.Has(0) || !s.JustSolved {
		t.Fatalf("expected CAT solved, got %+v", s.Solved.Solves())
	}
	if !strings.Contains(v.statusFlash, "Solved 1 across: CAT") {
		t.Fatalf("unexpected flash %q", v.statusFlash)
	}
	ctrl.waitFor(t, "OnSolved", func(m *mockController) bool { return len(m.solved) == 1 })
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if ctrl.runKeys[0] != "run-1" {
		t.Fatalf("expected solves tagged with the run key, got %q", ctrl.runKeys[0])
	}
}

func TestWrongWordDoesNotNotify(t *testing.T) {
	v, ctrl := playingView(t)

	typeWord(v, "cow")

	if got := v.BoardState().Solved.Len(); got != 0 {
		t.Fatalf("expected nothing solved, got %d", got)
	}
	time.Sleep(30 * time.Millisecond)
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.solved) != 0 {
		t.Fatalf("expected no OnSolved calls, got %d", len(ctrl.solved))
	}
}

func TestEscReturnsToPuzzleSelect(t *testing.T) {
	v, ctrl := playingView(t)

	press(v, tea.KeyEsc, 0, "")

	ctrl.waitFor(t, "OnOpenPuzzleSelect", func(m *mockController) bool { return m.selectCalls == 1 })
}

func TestFunctionKeysDispatch(t *testing.T) {
	v, ctrl := playingView(t)

	press(v, tea.KeyF5, 0, "")
	press(v, tea.KeyF6, 0, "")
	press(v, tea.KeyF2, 0, "")

	ctrl.waitFor(t, "finish, restart and leaderboard", func(m *mockController) bool {
		return m.finishCalls == 1 && m.restarts == 1 && m.boards == 1
	})
}

func TestF1OpensHelpAndEscCloses(t *testing.T) {
	v, _ := playingView(t)

	press(v, tea.KeyF1, 0, "")
	if v.topOverlay() != "help" {
		t.Fatalf("expected help overlay, got %q", v.topOverlay())
	}
	if !strings.Contains(v.frame(), "Help") {
		t.Fatalf("expected help panel in view")
	}
	typeWord(v, "c")
	if v.play.Grid.FilledCount(v.BoardState()) != 0 {
		t.Fatalf("expected letters to be swallowed while help is open")
	}

	press(v, tea.KeyEsc, 0, "")
	if v.helpOpen {
		t.Fatalf("expected help to close on escape")
	}
}

func TestLeaderboardOverlayListsRows(t *testing.T) {
	v, _ := playingView(t)
	v.motionLevel = "off"

	v.SetLeaderboard([]LeaderboardRow{{Rank: 1, Player: "ada", Points: 420, Puzzles: 2}}, true)
	if v.overlayPos != 1 {
		t.Fatalf("expected overlay to snap open without motion, got %v", v.overlayPos)
	}
	if out := v.frame(); !strings.Contains(out, "ada") || !strings.Contains(out, "420 pts") {
		t.Fatalf("expected leaderboard row in view:\n%s", out)
	}

	press(v, tea.KeyEnter, 0, "")
	if v.leaderboardOpen {
		t.Fatalf("expected enter to close the leaderboard")
	}
}

func TestResultEnterPlaysAgain(t *testing.T) {
	v, ctrl := playingView(t)
	v.SetResult(ResultState{Visible: true, Completed: true, Title: "Ring", Solved: 4, Total: 4, Score: 140})

	if !strings.Contains(v.frame(), "Final Score: 140") {
		t.Fatalf("expected score in result overlay")
	}
	press(v, tea.KeyEnter, 0, "")

	if v.result.Visible {
		t.Fatalf("expected result to close")
	}
	ctrl.waitFor(t, "OnRestart", func(m *mockController) bool { return m.restarts == 1 })
}

func TestResultEscCloses(t *testing.T) {
	v, _ := playingView(t)
	v.SetResult(ResultState{Visible: true, Summary: "x"})

	press(v, tea.KeyEsc, 0, "")
	if v.result.Visible {
		t.Fatalf("expected result modal to close on escape")
	}
}

func TestMouseClickOnSlotMovesCursor(t *testing.T) {
	v, _ := playingView(t)

	// Slot (3,3) sits two cells right and two rows down from the board origin.
	click(v, 2+2*cellWidth, 2+2*cellHeight)

	s := v.BoardState()
	if s.Focus.Cursor != (crossword.Coord{X: 3, Y: 3}) {
		t.Fatalf("expected cursor at (3,3), got %v", s.Focus.Cursor)
	}
	if got := v.play.Grid.Entry(s.Focus.EntryID).Answer; got != "rue" {
		t.Fatalf("expected remembered across orientation to pick RUE, got %s", got)
	}
}

func TestMouseClickOnClueFocusesEntry(t *testing.T) {
	v, _ := playingView(t)
	geo := v.geometry()

	// Rows: Across, 1, 3, spacer, Down, 1, 2.
	click(v, geo.clueOX+2, geo.clueOY+6)

	s := v.BoardState()
	if got := v.play.Grid.Entry(s.Focus.EntryID).Answer; got != "toe" {
		t.Fatalf("expected TOE focused, got %s", got)
	}
	if s.Focus.Cursor != (crossword.Coord{X: 3, Y: 1}) {
		t.Fatalf("expected cursor on first letter of TOE, got %v", s.Focus.Cursor)
	}
}

func TestMouseOffIgnoresClicks(t *testing.T) {
	v, _ := playingView(t)
	v.mouseScope = "off"
	before := v.BoardState().Focus

	click(v, 2+2*cellWidth, 2+2*cellHeight)

	if v.BoardState().Focus != before {
		t.Fatalf("expected clicks to be ignored with mouse off")
	}
}

func TestPuzzleSelectEnterStartsPuzzle(t *testing.T) {
	v := New(Options{ASCIIOnly: true})
	ctrl := &mockController{}
	v.SetController(ctrl)
	v.SetCatalog([]PackSummary{{
		PackID: "builtin",
		Name:   "Builtin",
		Puzzles: []PuzzleSummary{
			{PuzzleID: "one", Title: "One", Entries: 4},
			{PuzzleID: "two", Title: "Two", Entries: 6},
		},
	}})

	press(v, tea.KeyEnter, 0, "")
	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyEnter, 0, "")

	ctrl.waitFor(t, "OnStartPuzzle", func(m *mockController) bool {
		return len(m.started) == 1 && m.started[0] == "builtin/two"
	})
}

func TestTooSmallShowsResizePanel(t *testing.T) {
	v, _ := playingView(t)
	_, _ = v.Update(tea.WindowSizeMsg{Width: 50, Height: 15})

	if out := v.frame(); !strings.Contains(out, "Terminal too small") {
		t.Fatalf("expected resize message:\n%s", out)
	}
}

func TestCtrlQQuitsFromAnyScreen(t *testing.T) {
	v, ctrl := playingView(t)
	v.SetHelpOpen(true)

	press(v, 'q', tea.ModCtrl, "")

	ctrl.waitFor(t, "OnQuit", func(m *mockController) bool { return m.quitCalls == 1 })
}

func TestRenderText(t *testing.T) {
	g := ringGrid(t)
	s := g.Fill(g.Start(), 0, "cat")

	want := strings.Join([]string{
		"1       2",
		" C   A   T",
		"    ###",
		" .  ###  .",
		"3",
		" .   .   .",
		"Across",
		" 1. Feline",
		" 3. Regret",
		"",
		"Down",
		" 1. Vehicle",
		" 2. Foot digit",
	}, "\n") + "\n"
	if diff := cmp.Diff(want, RenderText(g, s)); diff != "" {
		t.Fatalf("RenderText mismatch (-want +got):\n%s", diff)
	}
}

func TestViewImplementsInterfaceCompileTime(t *testing.T) {
	var _ View = New(Options{})
}
