package term

import (
	"unicode/utf8"

	tea "charm.land/bubbletea/v2"

	"devcross/internal/crossword"
)

// DecodeKeyPress maps a Bubble Tea key press to an engine input.
func DecodeKeyPress(ev tea.KeyPressMsg) (crossword.Input, bool) {
	key := ev.Key()
	switch key.Code {
	case tea.KeyLeft:
		return crossword.Key(crossword.InputLeft), true
	case tea.KeyRight:
		return crossword.Key(crossword.InputRight), true
	case tea.KeyUp:
		return crossword.Key(crossword.InputUp), true
	case tea.KeyDown:
		return crossword.Key(crossword.InputDown), true
	case tea.KeyTab:
		if key.Mod&tea.ModShift != 0 {
			return crossword.Key(crossword.InputBackTab), true
		}
		return crossword.Key(crossword.InputTab), true
	case tea.KeyBackspace:
		return crossword.Key(crossword.InputBackspace), true
	case tea.KeyDelete:
		return crossword.Key(crossword.InputDelete), true
	}

	if key.Mod&(tea.ModCtrl|tea.ModAlt|tea.ModMeta|tea.ModSuper) != 0 {
		return crossword.Input{}, false
	}
	if utf8.RuneCountInString(key.Text) != 1 {
		return crossword.Input{}, false
	}
	r, _ := utf8.DecodeRuneInString(key.Text)
	if !isASCIILetter(r) {
		return crossword.Input{}, false
	}
	return crossword.Letter(r), true
}
