package editor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keys the editor handles itself. Every other key goes to
// the view's plugins.
//
// Vertical movement lives here because it needs the on-screen layout.
type KeyMap struct {
	Up, Down           key.Binding
	ShiftUp, ShiftDown key.Binding
	PageUp, PageDown   key.Binding

	// Suggestions opens the menu for the suggestion under the caret.
	Suggestions key.Binding

	MenuUp, MenuDown key.Binding
	MenuAccept       key.Binding
	MenuClose        key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		ShiftUp:   key.NewBinding(key.WithKeys("shift+up"), key.WithHelp("shift+↑", "select up")),
		ShiftDown: key.NewBinding(key.WithKeys("shift+down"), key.WithHelp("shift+↓", "select down")),
		PageUp:    key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:  key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),

		// ctrl+space arrives as ctrl+@ on most terminals.
		Suggestions: key.NewBinding(key.WithKeys("alt+s", "ctrl+@"), key.WithHelp("alt+s", "suggestions")),

		MenuUp:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "previous")),
		MenuDown:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next")),
		MenuAccept: key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter", "accept")),
		MenuClose:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Suggestions}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.ShiftUp, k.ShiftDown, k.PageUp, k.PageDown},
		{k.Suggestions, k.MenuUp, k.MenuDown, k.MenuAccept, k.MenuClose},
	}
}
