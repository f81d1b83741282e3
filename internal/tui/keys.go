package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Switch   key.Binding
	MoveUp   key.Binding
	MoveDown key.Binding
	Remove   key.Binding
	Restore  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Switch:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch list")),
	MoveUp:   key.NewBinding(key.WithKeys("shift+up", "K"), key.WithHelp("K", "raise")),
	MoveDown: key.NewBinding(key.WithKeys("shift+down", "J"), key.WithHelp("J", "lower")),
	Remove:   key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "remove")),
	Restore:  key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "restore")),
	Quit:     key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.MoveUp, k.MoveDown, k.Remove, k.Restore, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Switch},
		{k.MoveUp, k.MoveDown, k.Remove, k.Restore},
		{k.Quit},
	}
}
