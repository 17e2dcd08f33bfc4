package term

import (
	"github.com/gdamore/tcell/v2"

	"devcross/internal/crossword"
)

// DecodeEvent maps a tcell key event to an engine input. Keys with no
// crossword meaning report false so the caller can handle them.
func DecodeEvent(ev *tcell.EventKey) (crossword.Input, bool) {
	if ev == nil {
		return crossword.Input{}, false
	}
	switch ev.Key() {
	case tcell.KeyLeft:
		return crossword.Key(crossword.InputLeft), true
	case tcell.KeyRight:
		return crossword.Key(crossword.InputRight), true
	case tcell.KeyUp:
		return crossword.Key(crossword.InputUp), true
	case tcell.KeyDown:
		return crossword.Key(crossword.InputDown), true
	case tcell.KeyTab:
		if ev.Modifiers()&tcell.ModShift != 0 {
			return crossword.Key(crossword.InputBackTab), true
		}
		return crossword.Key(crossword.InputTab), true
	case tcell.KeyBacktab:
		return crossword.Key(crossword.InputBackTab), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return crossword.Key(crossword.InputBackspace), true
	case tcell.KeyDelete:
		return crossword.Key(crossword.InputDelete), true
	case tcell.KeyRune:
		if ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) != 0 {
			return crossword.Input{}, false
		}
		if r := ev.Rune(); isASCIILetter(r) {
			return crossword.Letter(r), true
		}
	}
	return crossword.Input{}, false
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
