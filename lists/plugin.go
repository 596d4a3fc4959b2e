package lists

import (
	"strconv"

	"github.com/iw2rmb/quire/inputrules"
	"github.com/iw2rmb/quire/keymap"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// InputRules returns the rules turning "[] ", "1. " and "- " at the start of
// a textblock into lists. Types missing from s are skipped.
func InputRules(s *model.Schema) []inputrules.Rule {
	var rules []inputrules.Rule
	if t := s.Node(TaskList); t != nil {
		rules = append(rules, inputrules.TextblockType(`^\s*(\[\]|\[ \])\s$`, t, nil))
	}
	if t := s.Node(OrderedList); t != nil {
		rules = append(rules, inputrules.TextblockType(`^(\d+)\.\s$`, t, func(m []string) model.Attrs {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return nil
			}
			return model.Attrs{"start": n}
		}))
	}
	if t := s.Node(BulletList); t != nil {
		rules = append(rules, inputrules.TextblockType(`^\s*([-+])\s$`, t, nil))
	}
	return rules
}

// Keymap returns the list bindings: Enter splits, Tab and Shift-Tab change
// the level, Backspace removes an empty list and Mod-Enter toggles tasks.
func Keymap() []keymap.Binding {
	return []keymap.Binding{
		keymap.Bind(Split, "split list item", "enter"),
		keymap.Bind(Indent(), "indent", "tab"),
		keymap.Bind(Outdent(), "outdent", "shift+tab"),
		keymap.Bind(RemoveList(), "remove list", "backspace"),
		keymap.Bind(ToggleTaskChecked(), "toggle task", "Mod-Enter"),
	}
}

// Plugin returns the list keymap together with the task node view.
func Plugin() *state.Plugin {
	p := keymap.New(Keymap()...)
	p.Props.NodeViews = map[string]state.NodeViewFactory{TaskList: NewTaskView}
	return p
}
