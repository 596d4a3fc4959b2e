package editor

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/state"
)

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	km := m.cfg.KeyMap
	vertical := false
	switch {
	case msg.Paste:
		m.v.HandleTextInput(string(msg.Runes))
	case key.Matches(msg, km.Up):
		m.moveLines(-1, false)
		vertical = true
	case key.Matches(msg, km.Down):
		m.moveLines(1, false)
		vertical = true
	case key.Matches(msg, km.ShiftUp):
		m.moveLines(-1, true)
		vertical = true
	case key.Matches(msg, km.ShiftDown):
		m.moveLines(1, true)
		vertical = true
	case key.Matches(msg, km.PageUp):
		m.moveLines(-m.pageRows(), false)
		vertical = true
	case key.Matches(msg, km.PageDown):
		m.moveLines(m.pageRows(), false)
		vertical = true
	case key.Matches(msg, km.Suggestions):
		m.openMenu()
	default:
		if m.v.HandleKey(msg.String()) {
			break
		}
		// Unbound alt combinations are not text.
		if msg.Alt {
			break
		}
		switch msg.Type { //nolint:exhaustive
		case tea.KeyRunes:
			m.v.HandleTextInput(string(msg.Runes))
		case tea.KeySpace:
			m.v.HandleTextInput(" ")
		}
	}
	if !vertical {
		m.goal = -1
	}
	m.sync(true)
	m.followCursor()
	return m, nil
}

func (m Model) pageRows() int {
	return max(1, m.viewport.Height-m.viewport.Style.GetVerticalFrameSize()-1)
}

// moveLines moves the caret n rows down (up when negative), keeping the
// goal column. Rows of leaf blocks are skipped. Past the first or last row
// the caret goes to the document edge.
func (m *Model) moveLines(n int, extend bool) {
	m.sync(false)
	if m.lay == nil {
		return
	}
	head := m.st.Selection.Head
	row, col, ok := m.lay.coords(head)
	if !ok {
		return
	}
	if m.goal < 0 {
		m.goal = col
	}
	dir := 1
	if n < 0 {
		dir = -1
	}
	target := row + n
	for target >= 0 && target < len(m.lay.rows) && m.lay.rows[target].blockType.IsLeaf() {
		target += dir
	}
	var pos int
	switch {
	case target < 0:
		pos = state.AtStart(m.st.Doc).Head
	case target >= len(m.lay.rows):
		pos = state.AtEnd(m.st.Doc).Head
	default:
		pos, _ = m.lay.posAt(m.goal, target)
	}
	_ = m.v.Update(func(s *state.State) *state.Transaction {
		sel := state.Caret(pos)
		if extend {
			sel.Anchor = s.Selection.Anchor
		}
		return s.Tr().SetSelection(sel)
	})
}

func (m Model) updateMouse(msg tea.MouseMsg) (Model, tea.Cmd) {
	if isWheel(msg) {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.rebuildContent()
		return m, cmd
	}
	if !m.focused || m.v == nil || m.lay == nil {
		return m, nil
	}

	switch msg.Action { //nolint:exhaustive
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.mouseInBounds(msg.X, msg.Y) {
			return m, nil
		}
		m.menu = nil
		m.goal = -1
		x, y := m.contentXY(msg.X, msg.Y)
		if c, ok := m.lay.cellAt(x, y); ok && c.kind == cellCheckbox {
			m.v.HandleNodeEvent(m.lay.rows[y].block, state.NodeEvent{Type: "click", Target: lists.CheckboxTarget})
			m.sync(false)
			return m, nil
		}
		pos, ok := m.lay.posAt(x, y)
		if !ok {
			return m, nil
		}
		anchor := pos
		if msg.Shift {
			anchor = m.st.Selection.Anchor
		}
		m.mouseAnchor = anchor
		m.mouseDragging = true
		m.setSelection(anchor, pos)

	case tea.MouseActionMotion:
		if !m.mouseDragging {
			return m, nil
		}
		x, y := m.contentXY(m.clampMouseToBounds(msg.X, msg.Y))
		if pos, ok := m.lay.posAt(x, y); ok {
			m.setSelection(m.mouseAnchor, pos)
		}

	case tea.MouseActionRelease:
		m.mouseDragging = false
	}
	return m, nil
}

func (m *Model) setSelection(anchor, head int) {
	_ = m.v.Update(func(s *state.State) *state.Transaction {
		return s.Tr().SetSelection(state.Selection{Anchor: anchor, Head: head})
	})
	m.sync(false)
}

func isWheel(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionPress &&
		(msg.Button == tea.MouseButtonWheelUp ||
			msg.Button == tea.MouseButtonWheelDown ||
			msg.Button == tea.MouseButtonWheelLeft ||
			msg.Button == tea.MouseButtonWheelRight)
}

func (m Model) mouseInBounds(x, y int) bool {
	if m.viewport.Width <= 0 || m.viewport.Height <= 0 {
		return false
	}
	return x >= 0 && x < m.viewport.Width && y >= 0 && y < m.viewport.Height
}

func (m Model) clampMouseToBounds(x, y int) (int, int) {
	if m.viewport.Width > 0 {
		x = max(0, min(x, m.viewport.Width-1))
	}
	if m.viewport.Height > 0 {
		y = max(0, min(y, m.viewport.Height-1))
	}
	return x, y
}

// contentXY converts viewport coordinates to layout coordinates.
func (m Model) contentXY(x, y int) (int, int) {
	return x, y + m.viewport.YOffset
}
