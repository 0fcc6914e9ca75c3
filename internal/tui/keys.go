package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap is the key bindings of the allocation editor. It implements
// help.KeyMap.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	More      key.Binding
	Less      key.Binding
	MoreDay   key.Binding
	LessDay   key.Binding
	Clear     key.Binding
	Save      key.Binding
	Reset     key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		More: key.NewBinding(
			key.WithKeys("right", "l", "+"),
			key.WithHelp("→/+", "+1h"),
		),
		Less: key.NewBinding(
			key.WithKeys("left", "h", "-"),
			key.WithHelp("←/-", "-1h"),
		),
		MoreDay: key.NewBinding(
			key.WithKeys("shift+right", "L"),
			key.WithHelp("L", "+8h"),
		),
		LessDay: key.NewBinding(
			key.WithKeys("shift+left", "H"),
			key.WithHelp("H", "-8h"),
		),
		Clear: key.NewBinding(
			key.WithKeys("0", "x"),
			key.WithHelp("0", "clear"),
		),
		Save: key.NewBinding(
			key.WithKeys("s", "ctrl+s"),
			key.WithHelp("s", "save"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.More, k.Less, k.Save, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.More, k.Less, k.MoreDay, k.LessDay, k.Clear},
		{k.Save, k.Reset, k.Help, k.Quit},
	}
}
