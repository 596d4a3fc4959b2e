package editor

import "github.com/iw2rmb/quire/view"

var _ view.Coords = Model{}

// CoordsAtPos returns the viewport cell of the caret at pos. It reports
// false when pos is not on a visible row.
func (m Model) CoordsAtPos(pos int) (view.Rect, bool) {
	if m.lay == nil {
		return view.Rect{}, false
	}
	row, col, ok := m.lay.coords(pos)
	if !ok {
		return view.Rect{}, false
	}
	y := row - m.viewport.YOffset
	if h := m.visibleRows(); y < 0 || (h > 0 && y >= h) {
		return view.Rect{}, false
	}
	return view.Rect{Left: col, Top: y, Right: col + 1, Bottom: y + 1}, true
}

// PosAtCoords returns the document position closest to viewport cell
// (x, y).
func (m Model) PosAtCoords(x, y int) (int, bool) {
	if m.lay == nil {
		return 0, false
	}
	return m.lay.posAt(m.contentXY(x, y))
}

func (m Model) visibleRows() int {
	return max(0, m.viewport.Height-m.viewport.Style.GetVerticalFrameSize())
}

// box is the visible area in viewport coordinates.
func (m Model) box() view.Rect {
	return view.Rect{Right: max(0, m.textWidth()), Bottom: m.visibleRows()}
}
