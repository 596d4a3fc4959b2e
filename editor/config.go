package editor

import "github.com/iw2rmb/quire/view"

// Config configures the editor Model.
type Config struct {
	// View is the live editor state. Required.
	View *view.View

	Style  Style
	KeyMap KeyMap

	// Toolbar shows the mark toolbar over a non-empty selection.
	Toolbar bool
}
