package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyName int

const (
	KeyUp KeyName = iota
	KeyDown
	KeyNew
	KeyKill
	KeyCopy
	KeyQuit
	KeyAccel // manually toggle the accelerated context for the selected session

	KeySubmitName // SubmitName submits the name of a new session.
	KeyEsc
)

// GlobalKeyStringsMap is a global, immutable map string to keybinding.
var GlobalKeyStringsMap = map[string]KeyName{
	"up":   KeyUp,
	"k":    KeyUp,
	"down": KeyDown,
	"j":    KeyDown,
	"n":    KeyNew,
	"D":    KeyKill,
	"y":    KeyCopy,
	"g":    KeyAccel,
	"q":    KeyQuit,
}

// GlobalkeyBindings is a global, immutable map of KeyName to keybinding.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeyUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	KeyDown: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	KeyNew: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	KeyKill: key.NewBinding(
		key.WithKeys("D"),
		key.WithHelp("D", "kill"),
	),
	KeyCopy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy output"),
	),
	KeyAccel: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "toggle acceleration"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("q"),
		key.WithHelp("q", "quit"),
	),
	KeySubmitName: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("↵", "submit name"),
	),
	KeyEsc: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}
