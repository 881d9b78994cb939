package view

import "github.com/gdamore/tcell/v2"

type Action int

const (
	ActionNone Action = iota
	ActionStart
	ActionReset
	ActionQuit
)

// ActionFor maps a terminal key to a race action
func ActionFor(ev *tcell.EventKey) Action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit
	case tcell.KeyEnter:
		return ActionStart
	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			return ActionStart
		case 'r', 'R':
			return ActionReset
		case 'q', 'Q':
			return ActionQuit
		}
	default:
	}
	return ActionNone
}
