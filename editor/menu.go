package editor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/quire/decoration"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/suggest"
)

// menu is the open suggestion menu: the candidates of one suggestion
// followed by an entry that ignores the phrase.
type menu struct {
	deco       decoration.Decoration
	phrase     string
	items      []string
	candidates int
	sel        int
}

func (mn menu) ignoreSelected() bool { return mn.sel >= mn.candidates }

// valid reports whether the suggestion is still decorated in s at the same
// range.
func (mn menu) valid(s *state.State) bool {
	d, _, ok := suggest.At(s, mn.deco.From)
	return ok && d.From == mn.deco.From && d.To == mn.deco.To
}

// openMenu opens the menu for the suggestion under the caret.
func (m *Model) openMenu() {
	s := m.v.State()
	d, sg, ok := suggest.At(s, s.Selection.Head)
	if !ok {
		return
	}
	items := append([]string(nil), sg.Candidates...)
	items = append(items, "Ignore \""+sg.Phrase+"\"")
	m.menu = &menu{deco: d, phrase: sg.Phrase, items: items, candidates: len(sg.Candidates)}
}

func (m Model) updateMenu(msg tea.KeyMsg) (Model, tea.Cmd) {
	km := m.cfg.KeyMap
	mn := *m.menu
	n := len(mn.items)
	switch {
	case key.Matches(msg, km.MenuUp):
		mn.sel = (mn.sel - 1 + n) % n
		m.menu = &mn
	case key.Matches(msg, km.MenuDown):
		mn.sel = (mn.sel + 1) % n
		m.menu = &mn
	case key.Matches(msg, km.MenuAccept):
		m.menu = nil
		if mn.ignoreSelected() {
			m.v.Exec(suggest.Ignore(mn.phrase))
		} else {
			m.v.Exec(suggest.Apply(mn.items[mn.sel], mn.deco))
		}
		m.sync(false)
		m.followCursor()
		return m, nil
	case key.Matches(msg, km.MenuClose):
		m.menu = nil
	default:
		m.menu = nil
		return m.updateKey(msg)
	}
	m.rebuildContent()
	return m, nil
}
