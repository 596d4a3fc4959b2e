// Package keymap binds key combinations to commands.
//
// Key names follow Bubble Tea's KeyMsg.String form ("ctrl+b", "shift+tab",
// "enter"). Names in the "Mod-b" style are accepted by Normalize, with Mod
// meaning ctrl.
package keymap

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/iw2rmb/quire/state"
)

// Binding runs Command when a key of Key is pressed.
type Binding struct {
	Key     key.Binding
	Command state.Command
}

// Bind builds a binding for keys. Keys are normalized.
func Bind(cmd state.Command, help string, keys ...string) Binding {
	norm := make([]string, len(keys))
	for i, k := range keys {
		norm[i] = Normalize(k)
	}
	opts := []key.BindingOpt{key.WithKeys(norm...)}
	if help != "" && len(norm) > 0 {
		opts = append(opts, key.WithHelp(norm[0], help))
	}
	return Binding{Key: key.NewBinding(opts...), Command: cmd}
}

type keyName string

func (k keyName) String() string { return string(k) }

// Match returns the commands bound to name, in binding order. Disabled
// bindings are skipped.
func Match(bindings []Binding, name string) []state.Command {
	name = Normalize(name)
	var out []state.Command
	for _, b := range bindings {
		if b.Command != nil && key.Matches(keyName(name), b.Key) {
			out = append(out, b.Command)
		}
	}
	return out
}

// Handle runs the commands bound to name until one returns true.
func Handle(bindings []Binding, s *state.State, dispatch state.Dispatch, name string) bool {
	return state.Chain(Match(bindings, name)...)(s, dispatch)
}

// New returns a plugin whose key handler looks up bindings.
func New(bindings ...Binding) *state.Plugin {
	bs := append([]Binding(nil), bindings...)
	return &state.Plugin{
		Props: state.Props{
			HandleKey: func(s *state.State, dispatch state.Dispatch, name string) bool {
				return Handle(bs, s, dispatch, name)
			},
		},
	}
}

var modifierNames = map[string]string{
	"mod":   "ctrl",
	"cmd":   "ctrl",
	"meta":  "ctrl",
	"ctrl":  "ctrl",
	"alt":   "alt",
	"shift": "shift",
}

var keyNames = map[string]string{
	"backspace": "backspace",
	"delete":    "delete",
	"enter":     "enter",
	"escape":    "esc",
	"esc":       "esc",
	"tab":       "tab",
	"space":     " ",
}

// Normalize converts a key name to Bubble Tea form. "Mod-Shift-z" becomes
// "ctrl+shift+z"; modifiers are ordered ctrl, alt, shift.
func Normalize(name string) string {
	if name == "" || name == " " || name == "+" || name == "-" {
		return name
	}
	sep := "+"
	if strings.Contains(name, "-") && !strings.Contains(name, "+") && len(name) > 1 {
		sep = "-"
	}
	parts := strings.Split(name, sep)
	base := parts[len(parts)-1]
	if base == "" {
		// A trailing separator names the separator key itself.
		base = sep
		parts[len(parts)-1] = sep
	}
	var ctrl, alt, shift bool
	for _, p := range parts[:len(parts)-1] {
		switch modifierNames[strings.ToLower(p)] {
		case "ctrl":
			ctrl = true
		case "alt":
			alt = true
		case "shift":
			shift = true
		}
	}
	if k, ok := keyNames[strings.ToLower(base)]; ok {
		base = k
	} else if lower := strings.ToLower(base); strings.HasPrefix(lower, "arrow") {
		base = strings.TrimPrefix(lower, "arrow")
	} else if len([]rune(base)) > 1 {
		base = strings.ToLower(base)
	}
	if shift && base == "tab" && !ctrl && !alt {
		return "shift+tab"
	}
	var b strings.Builder
	if ctrl {
		b.WriteString("ctrl+")
	}
	if alt {
		b.WriteString("alt+")
	}
	if shift {
		b.WriteString("shift+")
	}
	b.WriteString(base)
	return b.String()
}
