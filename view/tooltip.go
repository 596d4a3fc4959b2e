package view

// Rect is an on-screen box in cells. Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Point is a position relative to a container's top-left corner.
type Point struct {
	X, Y int
}

// Size is the extent of a tooltip or menu.
type Size struct {
	W, H int
}

// Coords is implemented by renderers that can locate a document position
// on screen.
type Coords interface {
	CoordsAtPos(pos int) (Rect, bool)
}

// PlaceTooltip positions a selection toolbar of the given size inside box.
// anchor and head are the screen boxes of the selection endpoints. The
// toolbar sits on the line above the earlier endpoint, horizontally at the
// midpoint of the two endpoints but never left of the start; when there is
// no room above it goes below the start line. The result is clamped to the
// box.
func PlaceTooltip(anchor, head, box Rect, size Size) Point {
	start, end := anchor, head
	if head.Top < anchor.Top || (head.Top == anchor.Top && head.Left < anchor.Left) {
		start, end = head, anchor
	}
	// Across lines the end may lie left of the start.
	left := max((start.Left+end.Left)/2, start.Left)
	p := Point{X: left - box.Left, Y: start.Top - box.Top - size.H}
	if p.Y < 0 {
		p.Y = start.Bottom - box.Top
	}
	return clampPoint(p, box, size)
}

// PlaceMenu positions a menu for the phrase starting at phrase: directly
// below its first cell, clamped to the box.
func PlaceMenu(phrase, box Rect, size Size) Point {
	return clampPoint(Point{X: phrase.Left - box.Left, Y: phrase.Bottom - box.Top}, box, size)
}

func clampPoint(p Point, box Rect, size Size) Point {
	p.X = max(0, min(p.X, box.Width()-size.W))
	p.Y = max(0, min(p.Y, box.Height()-size.H))
	return p
}

// TooltipAt locates the selection endpoints through c and places a
// toolbar. It reports false when either endpoint is off screen.
func TooltipAt(c Coords, anchorPos, headPos int, box Rect, size Size) (Point, bool) {
	a, ok := c.CoordsAtPos(anchorPos)
	if !ok {
		return Point{}, false
	}
	h, ok := c.CoordsAtPos(headPos)
	if !ok {
		return Point{}, false
	}
	return PlaceTooltip(a, h, box, size), true
}
