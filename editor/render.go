package editor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/commands"
	"github.com/iw2rmb/quire/decoration"
	"github.com/iw2rmb/quire/internal/textseg"
	"github.com/iw2rmb/quire/suggest"
	"github.com/iw2rmb/quire/view"
)

type styledCell struct {
	text  string
	width int
	style lipgloss.Style
}

func cellsWidth(cells []styledCell) int {
	w := 0
	for _, c := range cells {
		w += c.width
	}
	return w
}

func (m *Model) renderContent() string {
	if m.lay == nil || m.st == nil {
		return ""
	}
	lines := m.renderRows()
	if m.menu != nil {
		lines = m.overlayMenu(lines)
	} else if m.cfg.Toolbar {
		lines = m.overlayToolbar(lines)
	}

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, c := range line {
			sb.WriteString(c.style.Render(c.text))
		}
	}
	return sb.String()
}

func (m *Model) renderRows() [][]styledCell {
	st := m.cfg.Style
	sel := m.st.Selection
	caret := m.focused && sel.Empty()
	caretRow := -1
	if caret {
		caretRow, _, _ = m.lay.coords(sel.Head)
	}

	var suggestions []decoration.Decoration
	placeholder := ""
	for _, d := range view.Decorations(m.st).All() {
		switch d.Kind {
		case suggest.Kind:
			suggestions = append(suggestions, d)
		case blocks.PlaceholderKind:
			if text, ok := d.Payload.(string); ok {
				placeholder = text
			}
		}
	}
	suggested := func(pos int) bool {
		for _, d := range suggestions {
			if pos >= d.From && pos < d.To {
				return true
			}
		}
		return false
	}

	lines := make([][]styledCell, len(m.lay.rows))
	for i, r := range m.lay.rows {
		base := st.blockStyle(r.node)
		out := make([]styledCell, 0, len(r.cells)+1)
		caretDrawn := false
		hasText := false
		for _, c := range r.cells {
			cs := base
			switch c.kind {
			case cellPrefix, cellCheckbox:
				cs = st.Prefix
			case cellRule:
				cs = st.Rule
			case cellText:
				hasText = true
				cs = st.markStyle(base, c.marks)
				if suggested(c.pos) {
					cs = st.Suggestion.Inherit(cs)
				}
				if m.focused && c.pos >= sel.From() && c.pos < sel.To() {
					cs = st.Selection.Inherit(cs)
				}
				if i == caretRow && c.pos == sel.Head {
					cs = st.Cursor.Inherit(cs)
					caretDrawn = true
				}
			}
			out = append(out, styledCell{text: c.text, width: c.width, style: cs})
		}

		if placeholder != "" && r.last && !hasText && r.start == 1 {
			for j, g := range textseg.Split(placeholder) {
				cs := st.Placeholder
				if j == 0 && i == caretRow {
					cs = st.Cursor.Inherit(cs)
					caretDrawn = true
				}
				out = append(out, styledCell{text: g, width: runewidth.StringWidth(g), style: cs})
			}
		}
		if i == caretRow && !caretDrawn {
			out = append(out, styledCell{text: " ", width: 1, style: st.Cursor.Inherit(base)})
		}
		lines[i] = out
	}
	return lines
}

// overlayMenu draws the suggestion menu below the phrase.
func (m *Model) overlayMenu(lines [][]styledCell) [][]styledCell {
	mn := m.menu
	phrase, ok := m.CoordsAtPos(mn.deco.From)
	if !ok {
		return lines
	}
	w := 0
	for _, it := range mn.items {
		w = max(w, runewidth.StringWidth(it))
	}
	w += 2
	st := m.cfg.Style
	items := make([][]styledCell, len(mn.items))
	for i, it := range mn.items {
		style := st.Menu
		if i == mn.sel {
			style = st.MenuSelected
		}
		text := " " + it + strings.Repeat(" ", w-1-runewidth.StringWidth(it))
		items[i] = stringCells(text, style)
	}
	p := view.PlaceMenu(phrase, m.box(), view.Size{W: w, H: len(items)})
	return m.overlay(lines, p, items)
}

var toolbarMarks = []struct {
	name, label string
}{
	{blocks.Bold, "B"},
	{blocks.Italic, "I"},
	{blocks.Strike, "S"},
	{blocks.Code, "`"},
	{blocks.Link, "L"},
}

// overlayToolbar draws the mark toolbar over a non-empty selection. Marks
// active across the whole selection are highlighted.
func (m *Model) overlayToolbar(lines [][]styledCell) [][]styledCell {
	sel := m.st.Selection
	if !m.focused || sel.Empty() {
		return lines
	}
	st := m.cfg.Style
	var bar []styledCell
	for _, tm := range toolbarMarks {
		mt := m.st.Schema().Mark(tm.name)
		if mt == nil {
			continue
		}
		style := st.Menu
		if commands.RangeHasMark(m.st.Doc, sel.From(), sel.To(), mt) {
			style = st.MenuSelected
		}
		bar = append(bar, stringCells(" "+tm.label+" ", style)...)
	}
	if len(bar) == 0 {
		return lines
	}
	p, ok := view.TooltipAt(*m, sel.Anchor, sel.Head, m.box(), view.Size{W: cellsWidth(bar), H: 1})
	if !ok {
		return lines
	}
	return m.overlay(lines, p, [][]styledCell{bar})
}

func stringCells(s string, style lipgloss.Style) []styledCell {
	var out []styledCell
	for _, g := range textseg.Split(s) {
		out = append(out, styledCell{text: g, width: runewidth.StringWidth(g), style: style})
	}
	return out
}

// overlay draws block at viewport point p.
func (m *Model) overlay(lines [][]styledCell, p view.Point, block [][]styledCell) [][]styledCell {
	top := p.Y + m.viewport.YOffset
	for i, over := range block {
		y := top + i
		for y >= len(lines) {
			lines = append(lines, nil)
		}
		lines[y] = splice(lines[y], p.X, over, m.cfg.Style.Text)
	}
	return lines
}

// splice replaces the columns of line covered by over, starting at column
// x. Wide cells cut by the edges become spaces.
func splice(line []styledCell, x int, over []styledCell, pad lipgloss.Style) []styledCell {
	end := x + cellsWidth(over)
	out := make([]styledCell, 0, len(line)+len(over))
	i, at := 0, 0
	for i < len(line) && at+line[i].width <= x {
		out = append(out, line[i])
		at += line[i].width
		i++
	}
	for col := at; col < x; col++ {
		style := pad
		if i < len(line) {
			style = line[i].style
		}
		out = append(out, styledCell{text: " ", width: 1, style: style})
	}
	out = append(out, over...)
	for i < len(line) && at < end {
		at += line[i].width
		i++
	}
	for ; at > end; at-- {
		out = append(out, styledCell{text: " ", width: 1, style: line[i-1].style})
	}
	return append(out, line[i:]...)
}
