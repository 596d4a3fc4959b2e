package blocks

import (
	"github.com/iw2rmb/quire/commands"
	"github.com/iw2rmb/quire/decoration"
	"github.com/iw2rmb/quire/history"
	"github.com/iw2rmb/quire/inputrules"
	"github.com/iw2rmb/quire/keymap"
	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// Config tunes the editor plugins.
type Config struct {
	Schema *model.Schema
	// OpenLink receives the href of the link under the caret on Mod-Enter.
	OpenLink func(href string)
	History  history.Options
	// Placeholder is shown in an empty document. Empty disables it.
	Placeholder string
	// Extra plugins are mounted ahead of the editor's own.
	Extra []*state.Plugin
}

func (c Config) schema() *model.Schema {
	if c.Schema != nil {
		return c.Schema
	}
	return Schema
}

// DefaultKeyMap returns the editor bindings with no link opener.
func DefaultKeyMap() []keymap.Binding { return KeyMap(Config{}) }

// KeyMap returns every editor binding in the order it is tried: mark
// toggles, history, links and rule undo, then the list bindings. Types
// missing from the schema are skipped.
func KeyMap(cfg Config) []keymap.Binding {
	return append(editorKeyMap(cfg), lists.Keymap()...)
}

func editorKeyMap(cfg Config) []keymap.Binding {
	s := cfg.schema()
	var bs []keymap.Binding
	markKeys := []struct {
		name, help string
		keys       []string
	}{
		{Bold, "bold", []string{"Mod-b"}},
		// ctrl+i is tab in a terminal.
		{Italic, "italic", []string{"alt+i"}},
		{Strike, "strike", []string{"Mod-Shift-s"}},
		{Code, "code", []string{"Mod-`"}},
	}
	for _, mk := range markKeys {
		if mt := s.Mark(mk.name); mt != nil {
			bs = append(bs, keymap.Bind(commands.ToggleMark(mt, nil), mk.help, mk.keys...))
		}
	}
	bs = append(bs,
		keymap.Bind(history.Undo, "undo", "Mod-z"),
		keymap.Bind(history.Redo, "redo", "Mod-Shift-z", "Mod-y"),
	)
	if mt := s.Mark(Link); mt != nil {
		bs = append(bs, keymap.Bind(commands.InsertLink(mt), "link", "Mod-k"))
		if cfg.OpenLink != nil {
			// Falls through to the task toggle off a link.
			bs = append(bs, keymap.Bind(commands.OpenLink(mt, cfg.OpenLink), "open link", "Mod-Enter"))
		}
	}
	return append(bs, keymap.Bind(inputrules.UndoRule, "undo rule", "backspace"))
}

// PlaceholderKind is the decoration kind of the empty-document placeholder.
const PlaceholderKind = "placeholder"

// Placeholder returns a plugin decorating an empty document with text.
func Placeholder(text string) *state.Plugin {
	return &state.Plugin{
		Props: state.Props{
			Decorations: func(s *state.State) *decoration.Set {
				if !isEmpty(s.Doc) {
					return decoration.Empty
				}
				return decoration.NewSet(decoration.Decoration{From: 1, To: 1, Kind: PlaceholderKind, Payload: text})
			},
		},
	}
}

func isEmpty(doc *model.Node) bool {
	if doc.ChildCount() != 1 {
		return false
	}
	first := doc.Child(0)
	return first.IsTextblock() && first.Content().Size() == 0
}

// Plugins returns the editor plugin list in registration order: cfg.Extra,
// input rules, history, the editor key map, the list key map and task node
// view, the placeholder and finally the base keymap.
func Plugins(cfg Config) []*state.Plugin {
	s := cfg.schema()
	ps := append([]*state.Plugin(nil), cfg.Extra...)
	ps = append(ps,
		inputrules.Plugin(InputRules(s)...),
		history.New(cfg.History),
		keymap.New(editorKeyMap(cfg)...),
		lists.Plugin(),
	)
	if cfg.Placeholder != "" {
		ps = append(ps, Placeholder(cfg.Placeholder))
	}
	return append(ps, commands.BasePlugin())
}

// NewState creates an editor state over doc, or an empty document when doc
// is nil.
func NewState(cfg Config, doc *model.Node) (*state.State, error) {
	return state.New(state.Config{Schema: cfg.schema(), Doc: doc, Plugins: Plugins(cfg)})
}
