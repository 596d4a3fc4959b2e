package commands

import (
	"github.com/iw2rmb/quire/keymap"
	"github.com/iw2rmb/quire/state"
)

// BaseKeymap returns the bindings tried after every plugin keymap.
func BaseKeymap() []keymap.Binding {
	return []keymap.Binding{
		keymap.Bind(state.Chain(NewlineInCode, SplitBlock), "split block", "enter"),
		keymap.Bind(DeleteBackward, "delete left", "backspace", "ctrl+h"),
		keymap.Bind(DeleteForward, "delete right", "delete"),
		keymap.Bind(SelectAll, "select all", "Mod-a"),

		keymap.Bind(Move(-1, false), "left", "left"),
		keymap.Bind(Move(1, false), "right", "right"),
		keymap.Bind(Move(-1, true), "select left", "shift+left"),
		keymap.Bind(Move(1, true), "select right", "shift+right"),
		keymap.Bind(LineEdge(-1, false), "line start", "home"),
		keymap.Bind(LineEdge(1, false), "line end", "end", "ctrl+e"),
	}
}

// BasePlugin wraps BaseKeymap in a plugin. Register it last.
func BasePlugin() *state.Plugin { return keymap.New(BaseKeymap()...) }
