package ui

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"devcross/internal/crossword"
	"devcross/internal/term"
)

type applyMsg struct {
	fn func(*Root)
}

type clockMsg time.Time
type animateMsg time.Time

type gameKeyMap struct {
	Move        key.Binding
	Next        key.Binding
	Erase       key.Binding
	Help        key.Binding
	Leaderboard key.Binding
	Finish      key.Binding
	Restart     key.Binding
	Back        key.Binding
	Quit        key.Binding
}

func (k gameKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Leaderboard, k.Finish, k.Restart, k.Back}
}

func (k gameKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Move, k.Next, k.Erase}, {k.Help, k.Leaderboard, k.Finish}, {k.Restart, k.Back, k.Quit}}
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	styleVariant string
	motionLevel  string
	mouseScope   string

	mu      sync.Mutex
	program *tea.Program
	running bool

	screen Screen
	layout LayoutMode
	cols   int
	rows   int

	forceTooSmall bool
	tooSmallCols  int
	tooSmallRows  int

	play           PlayingState
	catalog        []PackSummary
	selectedPack   string
	selectedPuzzle string
	result         ResultState
	leaderboard    []LeaderboardRow
	setupMsg       string
	setupDetails   string
	statusFlash    string
	saving         bool

	helpOpen        bool
	leaderboardOpen bool

	packIndex    int
	puzzleIndex  int
	catalogFocus int
	resultIndex  int

	help       help.Model
	keymap     gameKeyMap
	progress   progress.Model
	saveSpin   spinner.Model
	markdown   *glamour.TermRenderer
	logger     *clog.Logger
	overlayPos float64
	overlayVel float64
	spring     harmonica.Spring

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
	MouseScope   string
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "devcross-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(60),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	mouseScope := normalizeMouseScope(opts.MouseScope)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}
	bar := progress.New(
		progress.WithWidth(16),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)
	if motionLevel == "off" {
		bar.SetSpringOptions(1000.0, 1.0)
	}
	saveSpin := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(theme.Accent),
	)

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		mouseScope:   mouseScope,
		screen:       ScreenPuzzleSelect,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		help:         h,
		progress:     bar,
		saveSpin:     saveSpin,
		markdown:     renderer,
		logger:       logger,
		spring:       spring,
	}
	r.keymap = gameKeyMap{
		Move:        key.NewBinding(key.WithKeys("left", "right", "up", "down"), key.WithHelp("←↑↓→", "Move")),
		Next:        key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("Tab/S-Tab", "Next/prev clue")),
		Erase:       key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("Bksp/Del", "Erase")),
		Help:        key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Help")),
		Leaderboard: key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Leaderboard")),
		Finish:      key.NewBinding(key.WithKeys("f5"), key.WithHelp("F5", "Finish")),
		Restart:     key.NewBinding(key.WithKeys("f6"), key.WithHelp("F6", "Restart")),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Puzzles")),
		Quit:        key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), spinnerTickCmd(r.saveSpin))
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.forceTooSmall = false
		if r.screen == ScreenPlaying {
			r.dispatchController(func(c Controller) { c.OnResize(msg.Width, msg.Height) })
		}
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case clockMsg:
		return r, clockTickCmd()
	case animateMsg:
		target := r.overlayTarget()
		r.overlayPos, r.overlayVel = r.spring.Update(r.overlayPos, r.overlayVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.overlayPos = target
		r.overlayVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.saveSpin, cmd = r.saveSpin.Update(msg)
		return r, cmd
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	v := tea.NewView(r.frame())
	v.AltScreen = true
	v.MouseMode = r.currentMouseMode()
	return v
}

// frame renders the whole screen as plain lines.
func (r *Root) frame() string {
	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	switch r.screen {
	case ScreenPuzzleSelect:
		base = r.renderPuzzleSelect()
	default:
		base = r.renderPlaying()
	}

	if top := r.topOverlay(); top != "" {
		spec, _ := r.overlaySpec(top)
		overlay := r.drawPanel(spec.title, spec.lines, spec.width, spec.height)
		if top == "leaderboard" {
			// slides up from the bottom edge as the spring settles
			row := spec.startRow + int(math.Round((1-r.overlayPos)*float64(r.rows-spec.startRow)))
			base = composeOverlayAt(base, overlay, r.cols, r.rows, row, spec.startCol)
		} else {
			base = composeOverlay(base, overlay, r.cols, r.rows)
		}
	}
	return base
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetScreen(screen Screen) {
	r.apply(func(m *Root) {
		m.screen = screen
		m.statusFlash = ""
		if screen == ScreenPlaying {
			if m.play.StartedAt.IsZero() {
				m.play.StartedAt = time.Now()
			}
			cols, rows := m.cols, m.rows
			m.dispatchController(func(c Controller) { c.OnResize(cols, rows) })
		}
	})
}

func (r *Root) SetCatalog(packs []PackSummary) {
	r.apply(func(m *Root) {
		m.catalog = append([]PackSummary(nil), packs...)
		m.syncCatalogSelection()
	})
}

func (r *Root) SetSelection(packID, puzzleID string) {
	r.apply(func(m *Root) {
		m.selectedPack = packID
		m.selectedPuzzle = puzzleID
		m.syncCatalogSelection()
	})
}

func (r *Root) SetPlayingState(s PlayingState) {
	r.apply(func(m *Root) {
		if s.StartedAt.IsZero() {
			s.StartedAt = time.Now()
		}
		m.play = s
	})
}

func (r *Root) SetTooSmall(cols, rows int) {
	r.apply(func(m *Root) {
		m.forceTooSmall = true
		m.tooSmallCols = cols
		m.tooSmallRows = rows
	})
}

func (r *Root) SetSetupError(msg, details string) {
	r.apply(func(m *Root) {
		m.setupMsg = msg
		m.setupDetails = details
		m.screen = ScreenPuzzleSelect
	})
}

func (r *Root) SetHelpOpen(open bool) {
	r.apply(func(m *Root) {
		m.helpOpen = open
	})
}

func (r *Root) SetLeaderboard(rows []LeaderboardRow, open bool) {
	r.apply(func(m *Root) {
		m.leaderboard = append([]LeaderboardRow(nil), rows...)
		m.leaderboardOpen = open
		if m.motionLevel == "off" {
			m.overlayPos = m.overlayTarget()
			m.overlayVel = 0
		}
	})
}

func (r *Root) SetResult(state ResultState) {
	r.apply(func(m *Root) {
		m.result = state
		if !state.Visible {
			m.resultIndex = 0
		}
	})
}

func (r *Root) SetSaving(saving bool) {
	r.apply(func(m *Root) {
		m.saving = saving
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

// BoardState returns the current engine state of the playing screen.
func (r *Root) BoardState() crossword.State {
	return r.play.State
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

// step runs one engine transition on the playing board.
func (r *Root) step(in crossword.Input) {
	g := r.play.Grid
	if g == nil || r.result.Visible {
		return
	}
	prev := r.play.State
	next := g.Step(prev, in)
	r.play.State = next
	if next.Solved.Len() <= prev.Solved.Len() {
		return
	}
	solves := next.Solved.Solves()
	last := solves[len(solves)-1]
	e := g.Entry(last.EntryID)
	r.statusFlash = fmt.Sprintf("Solved %d %s: %s", e.Position, e.Orientation, strings.ToUpper(last.Answer))
	runKey := r.play.RunKey
	r.dispatchController(func(c Controller) { c.OnSolved(runKey, next) })
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.overlayActive() {
		return r.handleOverlayKey(msg)
	}

	switch r.screen {
	case ScreenPuzzleSelect:
		return r.handlePuzzleSelectKey(msg)
	default:
		return r.handlePlayingKey(msg)
	}
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", mouse.X, mouse.Y, mouse.Button))

	if r.mouseScope == "off" || mouse.Button != tea.MouseLeft {
		return r, nil
	}
	if r.overlayActive() {
		return r.handleOverlayMouseClick(mouse.X, mouse.Y)
	}
	switch r.screen {
	case ScreenPuzzleSelect:
		return r.handlePuzzleSelectMouseClick(mouse.X, mouse.Y)
	default:
		return r.handlePlayingMouseClick(mouse.X, mouse.Y)
	}
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	mouse := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_wheel:%d,%d button:%v", mouse.X, mouse.Y, mouse.Button))

	if r.mouseScope != "full" || r.overlayActive() {
		return r, nil
	}
	delta := 0
	if mouse.Button == tea.MouseWheelUp {
		delta = -1
	} else if mouse.Button == tea.MouseWheelDown {
		delta = 1
	}
	if delta == 0 {
		return r, nil
	}
	if r.screen == ScreenPuzzleSelect {
		r.puzzleIndex = wrapIndex(r.puzzleIndex+delta, len(r.selectedPackPuzzles()))
		r.syncSelectionFromIndices()
		return r, nil
	}
	if delta < 0 {
		r.step(crossword.Key(crossword.InputBackTab))
	} else {
		r.step(crossword.Key(crossword.InputTab))
	}
	return r, nil
}

func (r *Root) handlePlayingMouseClick(x, y int) (tea.Model, tea.Cmd) {
	g := r.play.Grid
	if g == nil || r.layout == LayoutTooSmall || r.forceTooSmall {
		return r, nil
	}
	geo := r.geometry()
	if c, ok := geo.slotAt(g, x, y); ok {
		r.step(crossword.ClickSlot(c))
		return r, nil
	}
	if row, ok := geo.clueRow(x, y); ok {
		lines := clueLines(g)
		if row < len(lines) && lines[row].index >= 0 {
			r.step(crossword.ClickClue(lines[row].index))
		}
	}
	return r, nil
}

func (r *Root) handlePuzzleSelectMouseClick(x, y int) (tea.Model, tea.Cmd) {
	if y < 2 {
		return r, nil
	}
	row := y - 2
	leftW := r.packPanelWidth()
	middleW := r.puzzlePanelWidth()
	switch {
	case x >= 1 && x < leftW-1:
		if row < len(r.catalog) {
			r.catalogFocus = 0
			r.packIndex = row
			r.puzzleIndex = 0
			r.syncSelectionFromIndices()
		}
	case x > leftW && x < leftW+middleW-1:
		puzzles := r.selectedPackPuzzles()
		if row < len(puzzles) {
			if r.catalogFocus == 1 && r.puzzleIndex == row {
				r.startSelectedPuzzle()
				return r, nil
			}
			r.catalogFocus = 1
			r.puzzleIndex = row
			r.syncSelectionFromIndices()
		}
	}
	return r, nil
}

func (r *Root) handleOverlayMouseClick(x, y int) (tea.Model, tea.Cmd) {
	top := r.topOverlay()
	spec, ok := r.overlaySpec(top)
	if !ok {
		return r, nil
	}
	if x < spec.startCol+1 || x >= spec.startCol+spec.width-1 || y < spec.startRow+1 || y >= spec.startRow+spec.height-1 {
		return r, nil
	}
	contentRow := y - (spec.startRow + 1)
	switch top {
	case "result":
		buttons := r.resultButtons()
		baseRows := len(strings.Split(strings.TrimSuffix(r.resultText(), "\n"), "\n"))
		row := contentRow - (baseRows + 2)
		if row >= 0 && row < len(buttons) {
			r.resultIndex = row
			r.activateResultButton(buttons[row])
		}
	default:
		r.closeTopOverlay()
	}
	return r, r.animateIfNeeded()
}

func (r *Root) handleOverlayKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.Code == tea.KeyEsc || msg.Code == tea.KeyEscape ||
		(msg.Mod == 0 && (msg.Code == 'q' || msg.Code == 'Q')) {
		r.closeTopOverlay()
		return r, r.animateIfNeeded()
	}

	switch r.topOverlay() {
	case "help":
		if msg.Code == tea.KeyF1 || msg.Code == tea.KeyEnter {
			r.helpOpen = false
		}
	case "leaderboard":
		if msg.Code == tea.KeyF2 || msg.Code == tea.KeyEnter {
			r.leaderboardOpen = false
		}
	case "result":
		buttons := r.resultButtons()
		switch msg.Code {
		case tea.KeyUp:
			r.resultIndex = wrapIndex(r.resultIndex-1, len(buttons))
		case tea.KeyDown, tea.KeyTab:
			r.resultIndex = wrapIndex(r.resultIndex+1, len(buttons))
		case tea.KeyEnter:
			r.activateResultButton(buttons[wrapIndex(r.resultIndex, len(buttons))])
		}
	}
	return r, r.animateIfNeeded()
}

func (r *Root) handlePuzzleSelectKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, r.keymap.Help):
		r.helpOpen = true
		return r, nil
	case key.Matches(msg, r.keymap.Leaderboard):
		r.dispatchController(func(c Controller) { c.OnLeaderboard() })
		return r, nil
	}
	if msg.Code == tea.KeyEsc {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if msg.Code == tea.KeyTab && msg.Mod&tea.ModShift != 0 {
		r.catalogFocus = 0
		return r, nil
	}

	switch msg.Code {
	case tea.KeyLeft:
		r.catalogFocus = 0
	case tea.KeyRight, tea.KeyTab:
		r.catalogFocus = 1
	case tea.KeyUp, tea.KeyDown:
		delta := 1
		if msg.Code == tea.KeyUp {
			delta = -1
		}
		if r.catalogFocus == 0 {
			r.packIndex = wrapIndex(r.packIndex+delta, len(r.catalog))
			r.puzzleIndex = 0
		} else {
			r.puzzleIndex = wrapIndex(r.puzzleIndex+delta, len(r.selectedPackPuzzles()))
		}
		r.syncSelectionFromIndices()
	case tea.KeyEnter:
		if r.catalogFocus == 0 {
			r.catalogFocus = 1
			return r, nil
		}
		r.startSelectedPuzzle()
	}
	return r, nil
}

func (r *Root) handlePlayingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, r.keymap.Help):
		r.helpOpen = true
		return r, nil
	case key.Matches(msg, r.keymap.Leaderboard):
		r.dispatchController(func(c Controller) { c.OnLeaderboard() })
		return r, nil
	case key.Matches(msg, r.keymap.Finish):
		r.dispatchController(func(c Controller) { c.OnFinish() })
		return r, nil
	case key.Matches(msg, r.keymap.Restart):
		r.dispatchController(func(c Controller) { c.OnRestart() })
		return r, nil
	case key.Matches(msg, r.keymap.Back):
		r.dispatchController(func(c Controller) { c.OnOpenPuzzleSelect() })
		return r, nil
	}

	if in, ok := term.DecodeKeyPress(msg); ok {
		r.step(in)
	}
	return r, nil
}

func (r *Root) geometry() playGeometry {
	geo := computeGeometry(r.layout, r.play.Grid, r.cols, r.rows)
	if g := r.play.Grid; g != nil {
		geo.clueOffset = clueScroll(clueLines(g), r.play.State.Focus.ClueIndex, geo.clueInnerRows)
	}
	return geo
}

func (r *Root) renderPuzzleSelect() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render("devcross - Puzzle Select")

	packs := make([]string, len(r.catalog))
	for i, p := range r.catalog {
		prefix := "  "
		if r.catalogFocus == 0 && i == r.packIndex {
			prefix = "> "
		}
		packs[i] = fmt.Sprintf("%s%s (%d)", prefix, p.Name, len(p.Puzzles))
	}
	if len(packs) == 0 {
		packs = []string{"No packs loaded."}
	}
	left := r.drawPanel("Packs", packs, r.packPanelWidth(), max(8, h-2))

	puzzles := r.selectedPackPuzzles()
	lines := make([]string, len(puzzles))
	for i, pz := range puzzles {
		prefix := "  "
		if r.catalogFocus == 1 && i == r.puzzleIndex {
			prefix = "> "
		}
		mark := " "
		if pz.Completed {
			mark = "v"
			if !r.ascii {
				mark = "✓"
			}
		}
		lines[i] = fmt.Sprintf("%s%s %s [d:%d %dw]", prefix, mark, pz.Title, pz.Difficulty, pz.Entries)
	}
	if len(lines) == 0 {
		lines = []string{"No puzzles in this pack."}
	}
	middle := r.drawPanel("Puzzles", lines, r.puzzlePanelWidth(), max(8, h-2))

	detail := r.puzzleDetailText()
	right := r.drawPanel("Details", strings.Split(strings.TrimSuffix(detail, "\n"), "\n"), max(22, w-lipgloss.Width(left)-lipgloss.Width(middle)), max(8, h-2))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, middle, right)
	if r.setupMsg != "" {
		setup := r.drawPanel("Setup", strings.Split(strings.TrimSpace(r.setupMsg+"\n\n"+r.setupDetails), "\n"), min(100, w), 10)
		body = body + "\n" + setup
	}
	return header + "\n" + body
}

func (r *Root) packPanelWidth() int {
	return min(30, max(22, r.cols/4))
}

func (r *Root) puzzlePanelWidth() int {
	return min(44, max(28, r.cols/3))
}

func (r *Root) renderPlaying() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	if r.forceTooSmall {
		mode = LayoutTooSmall
	}
	r.layout = mode

	if mode == LayoutTooSmall {
		cols := w
		rows := h
		if r.forceTooSmall {
			cols = r.tooSmallCols
			rows = r.tooSmallRows
		}
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", cols, rows),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(60, w), min(12, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	g := r.play.Grid
	s := r.play.State
	geo := r.geometry()

	boardLines := r.boardLines(g, s)
	for i := range boardLines {
		boardLines[i] = " " + boardLines[i]
	}
	if mode == LayoutWide && g != nil {
		clue := g.Clues()[s.Focus.ClueIndex]
		boardLines = append(boardLines, "", " "+r.theme.Accent.Render(fmt.Sprintf("%d %s", clue.Position, clue.Orientation))+" "+clue.Text)
	}
	board := r.drawPanel(r.boardTitle(), boardLines, geo.boardW, geo.boardH)

	var clues []string
	if g != nil {
		clues = r.renderClueLines(g, s, clueLines(g), geo.clueOffset, geo.clueInnerRows, max(1, geo.clueW-2))
	}
	cluePanel := r.drawPanel("Clues", clues, geo.clueW, geo.clueH)

	var body string
	if mode == LayoutWide {
		body = lipgloss.JoinHorizontal(lipgloss.Top, board, cluePanel)
	} else {
		body = board + "\n" + cluePanel
	}
	return r.headerText() + "\n" + body + "\n" + r.statusText()
}

func (r *Root) boardTitle() string {
	return firstNonEmptyStr(r.play.Title, "Puzzle")
}

type overlaySpec struct {
	title    string
	lines    []string
	width    int
	height   int
	startRow int
	startCol int
}

func (r *Root) overlaySpec(top string) (overlaySpec, bool) {
	if top == "" {
		return overlaySpec{}, false
	}
	w := min(max(48, r.cols/2), r.cols)
	h := min(max(10, r.rows/2), max(8, r.rows-4))

	var title string
	var lines []string
	switch top {
	case "help":
		title = "Help"
		lines = []string{
			"Type letters to fill the active word. A word is checked",
			"as soon as every letter is in place.",
			"Click a square or a clue to jump to it.",
			"",
		}
		lines = append(lines, strings.Split(ansi.Strip(r.help.FullHelpView(r.keymap.FullHelp())), "\n")...)
		lines = append(lines, "", "Esc: Close")
	case "leaderboard":
		title = "Leaderboard"
		if len(r.leaderboard) == 0 {
			lines = append(lines, "No finished puzzles yet.")
		}
		for _, row := range r.leaderboard {
			lines = append(lines, fmt.Sprintf("%3d. %-16s %6d pts  %d puzzle(s)", row.Rank, trimForWidth(row.Player, 16), row.Points, row.Puzzles))
		}
		lines = append(lines, "", "Esc: Close")
	case "result":
		title = "Results"
		lines = strings.Split(strings.TrimSuffix(r.resultText(), "\n"), "\n")
		buttons := r.resultButtons()
		lines = append(lines, "", "Actions:")
		for i, b := range buttons {
			prefix := "  "
			if i == r.resultIndex {
				prefix = "> "
			}
			lines = append(lines, prefix+b)
		}
	default:
		return overlaySpec{}, false
	}
	needH := len(lines) + 2
	maxH := max(8, r.rows-4)
	if needH > h {
		h = min(needH, maxH)
	}
	return overlaySpec{
		title:    title,
		lines:    lines,
		width:    w,
		height:   h,
		startRow: (r.rows - h) / 2,
		startCol: (r.cols - w) / 2,
	}, true
}

func (r *Root) headerText() string {
	elapsed := r.play.ElapsedLabel
	if strings.TrimSpace(elapsed) == "" {
		d := time.Since(r.play.StartedAt).Truncate(time.Second)
		if r.play.StartedAt.IsZero() {
			d = 0
		}
		elapsed = d.String()
	}
	width := max(1, r.cols-1)
	parts := []string{"devcross"}
	if title := strings.TrimSpace(r.play.Title); title != "" {
		parts = append(parts, title)
	}
	parts = append(parts, elapsed)
	solved, total := 0, 0
	if g := r.play.Grid; g != nil {
		solved, total = r.play.State.Solved.Len(), len(g.Entries())
		parts = append(parts, fmt.Sprintf("%d/%d words", solved, total))
	}
	if r.play.Player != "" {
		parts = append(parts, r.play.Player)
	}
	txt := trimForWidth(strings.Join(parts, " | "), width)
	if r.debug {
		txt = trimForWidth(fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout), width)
	}
	if total > 0 && width-len([]rune(txt)) > 20 {
		txt += " " + r.progressBar(float64(solved)/float64(total))
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(txt)
}

func (r *Root) progressBar(ratio float64) string {
	bar := r.progress
	if r.ascii {
		bar.Full = '#'
		bar.Empty = '-'
	}
	return bar.ViewAs(ratio)
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "F1 Help  F2 Leaderboard  F5 Finish  F6 Restart  Esc Puzzles"
	}
	if r.saving {
		keys += " | " + r.theme.Accent.Render(strings.TrimSpace(r.saveSpin.View())+" Saving...")
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimStyled(keys, max(1, r.cols-1))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) resultText() string {
	if !r.result.Visible {
		return ""
	}
	banner := "UNFINISHED"
	if r.result.Completed {
		banner = "SOLVED"
	}
	var b strings.Builder
	b.WriteString(banner)
	if r.result.Title != "" {
		b.WriteString(" - " + r.result.Title)
	}
	b.WriteString("\n\n")
	if r.result.Summary != "" {
		b.WriteString(r.result.Summary + "\n")
	}
	b.WriteString(fmt.Sprintf("Words: %d/%d\n", r.result.Solved, r.result.Total))
	if r.result.Duration != "" {
		b.WriteString("Time: " + r.result.Duration + "\n")
	}
	if len(r.result.Breakdown) > 0 {
		b.WriteString("\nScoring\n")
		for _, row := range r.result.Breakdown {
			b.WriteString(fmt.Sprintf("- %s: %s\n", row.Label, row.Value))
		}
	}
	b.WriteString(fmt.Sprintf("\nFinal Score: %d\n", r.result.Score))
	return b.String()
}

func (r *Root) puzzleDetailText() string {
	pack := r.selectedPackSummary()
	if pack == nil {
		return "Load a pack to get started."
	}
	var b strings.Builder
	if desc := strings.TrimSpace(pack.DescriptionMD); desc != "" {
		b.WriteString(r.renderMarkdown(desc) + "\n\n")
	}
	if len(pack.Puzzles) == 0 {
		b.WriteString("No puzzles available in this pack.")
		return b.String()
	}
	pz := pack.Puzzles[wrapIndex(r.puzzleIndex, len(pack.Puzzles))]
	b.WriteString(pz.Title + "\n")
	b.WriteString(fmt.Sprintf("ID: %s\nDifficulty: %d\nWords: %d\n", pz.PuzzleID, pz.Difficulty, pz.Entries))
	if pz.EstimatedMinutes > 0 {
		b.WriteString(fmt.Sprintf("Estimated: %d min\n", pz.EstimatedMinutes))
	}
	if pz.BestScore > 0 {
		b.WriteString(fmt.Sprintf("Best score: %d\n", pz.BestScore))
	}
	if summary := strings.TrimSpace(pz.SummaryMD); summary != "" {
		b.WriteString("\n" + r.renderMarkdown(summary) + "\n")
	}
	b.WriteString("\nEnter: Start puzzle    F2: Leaderboard    Esc: Quit")
	return b.String()
}

func (r *Root) renderMarkdown(md string) string {
	if r.markdown == nil {
		return md
	}
	rendered, err := r.markdown.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(rendered, "\n")
}

func (r *Root) startSelectedPuzzle() {
	pack := r.selectedPackSummary()
	if pack == nil || len(pack.Puzzles) == 0 {
		return
	}
	pz := pack.Puzzles[wrapIndex(r.puzzleIndex, len(pack.Puzzles))]
	r.selectedPuzzle = pz.PuzzleID
	packID := pack.PackID
	r.dispatchController(func(c Controller) { c.OnStartPuzzle(packID, pz.PuzzleID) })
}

func (r *Root) syncCatalogSelection() {
	if len(r.catalog) == 0 {
		r.packIndex = 0
		r.puzzleIndex = 0
		return
	}
	pidx := 0
	if r.selectedPack != "" {
		for i, p := range r.catalog {
			if p.PackID == r.selectedPack {
				pidx = i
				break
			}
		}
	}
	r.packIndex = pidx
	pack := r.catalog[pidx]
	r.selectedPack = pack.PackID
	if len(pack.Puzzles) == 0 {
		r.puzzleIndex = 0
		return
	}
	idx := 0
	if r.selectedPuzzle != "" {
		for i, pz := range pack.Puzzles {
			if pz.PuzzleID == r.selectedPuzzle {
				idx = i
				break
			}
		}
	}
	r.puzzleIndex = idx
	r.selectedPuzzle = pack.Puzzles[idx].PuzzleID
}

func (r *Root) syncSelectionFromIndices() {
	if len(r.catalog) == 0 {
		return
	}
	r.packIndex = wrapIndex(r.packIndex, len(r.catalog))
	pack := r.catalog[r.packIndex]
	r.selectedPack = pack.PackID
	if len(pack.Puzzles) == 0 {
		r.puzzleIndex = 0
		r.selectedPuzzle = ""
		return
	}
	r.puzzleIndex = wrapIndex(r.puzzleIndex, len(pack.Puzzles))
	r.selectedPuzzle = pack.Puzzles[r.puzzleIndex].PuzzleID
}

func (r *Root) selectedPackSummary() *PackSummary {
	if len(r.catalog) == 0 {
		return nil
	}
	if r.packIndex < 0 || r.packIndex >= len(r.catalog) {
		r.packIndex = 0
	}
	return &r.catalog[r.packIndex]
}

func (r *Root) selectedPackPuzzles() []PuzzleSummary {
	pack := r.selectedPackSummary()
	if pack == nil {
		return nil
	}
	return pack.Puzzles
}

func (r *Root) topOverlay() string {
	switch {
	case r.helpOpen:
		return "help"
	case r.leaderboardOpen:
		return "leaderboard"
	case r.result.Visible:
		return "result"
	}
	return ""
}

func (r *Root) overlayActive() bool {
	return r.topOverlay() != ""
}

func (r *Root) closeTopOverlay() {
	switch r.topOverlay() {
	case "help":
		r.helpOpen = false
	case "leaderboard":
		r.leaderboardOpen = false
	case "result":
		r.result = ResultState{}
		r.resultIndex = 0
	}
}

func (r *Root) resultButtons() []string {
	if !r.result.Visible {
		return nil
	}
	return []string{"Play again", "Puzzle select", "Leaderboard", "Close"}
}

func (r *Root) activateResultButton(label string) {
	switch label {
	case "Play again":
		r.result = ResultState{}
		r.dispatchController(func(c Controller) { c.OnRestart() })
	case "Puzzle select":
		r.result = ResultState{}
		r.dispatchController(func(c Controller) { c.OnOpenPuzzleSelect() })
	case "Leaderboard":
		r.dispatchController(func(c Controller) { c.OnLeaderboard() })
	default:
		r.result = ResultState{}
	}
	r.resultIndex = 0
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "┌"
	tr := "┐"
	bl := "└"
	br := "┘"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + title + " "
		runes := []rune(top)
		start := 1
		for i, ch := range []rune(t) {
			pos := start + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padCells(line, innerW)
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(line)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) overlayTarget() float64 {
	if r.leaderboardOpen {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := r.overlayTarget()
	if r.motionLevel == "off" {
		r.overlayPos = target
		r.overlayVel = 0
		return nil
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.overlayPos < 0.999 || math.Abs(r.overlayVel) > 0.001
	}
	return r.overlayPos > 0.001 || math.Abs(r.overlayVel) > 0.001
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		i = n - 1
	}
	if i >= n {
		i = 0
	}
	return i
}

// padCells pads or cuts a possibly styled line to exactly width cells.
func padCells(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	w := ansi.StringWidth(s)
	if w > width {
		s = ansi.Truncate(s, width, "")
		w = ansi.StringWidth(s)
	}
	if w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(s, "\t", "    "))
	if len(r) > width {
		r = r[:width]
	}
	if len(r) < width {
		r = append(r, []rune(strings.Repeat(" ", width-len(r)))...)
	}
	return string(r)
}

func composeOverlay(base, overlay string, cols, rows int) string {
	overlayLines := strings.Split(strings.TrimRight(ansi.Strip(overlay), "\n"), "\n")
	oh := min(len(overlayLines), rows)
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, len([]rune(line)))
	}
	ow = min(ow, cols)
	return composeOverlayAt(base, overlay, cols, rows, (rows-oh)/2, max(0, (cols-ow)/2))
}

func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}

	overlayLines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range overlayLines {
		ow = max(ow, len([]rune(line)))
	}
	ow = min(ow, cols)
	startRow = max(0, startRow)
	startCol = max(0, startCol)

	for i, line := range overlayLines {
		row := startRow + i
		if row >= rows {
			break
		}
		dst := []rune(baseLines[row])
		src := []rune(line)
		if len(src) > ow {
			src = src[:ow]
		}
		for j := 0; j < ow && startCol+j < len(dst); j++ {
			dst[startCol+j] = ' '
		}
		for j := 0; j < len(src) && startCol+j < len(dst); j++ {
			dst[startCol+j] = src[j]
		}
		baseLines[row] = string(dst)
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// trimStyled cuts a styled line to width cells, keeping its escape codes.
func trimStyled(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func (r *Root) currentMouseMode() tea.MouseMode {
	if r.mouseScope == "off" {
		return tea.MouseModeNone
	}
	return tea.MouseModeCellMotion
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "cozy_clean", "retro_terminal", "modern_arcade":
		return strings.TrimSpace(v)
	default:
		return "modern_arcade"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func normalizeMouseScope(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "scoped", "full":
		return strings.TrimSpace(v)
	default:
		return "scoped"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}

	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"messageType", msgType,
		"screen", r.screen,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"overlay", r.topOverlay(),
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
