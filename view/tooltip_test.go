package view

import "testing"

type fixedCoords map[int]Rect

func (c fixedCoords) CoordsAtPos(pos int) (Rect, bool) {
	r, ok := c[pos]
	return r, ok
}

func TestPlaceTooltip(t *testing.T) {
	box := Rect{Left: 2, Top: 1, Right: 42, Bottom: 21}
	size := Size{W: 10, H: 1}
	tests := []struct {
		name         string
		anchor, head Rect
		want         Point
	}{
		{
			name:   "same line midpoint above",
			anchor: Rect{Left: 10, Top: 5, Right: 11, Bottom: 6},
			head:   Rect{Left: 20, Top: 5, Right: 21, Bottom: 6},
			want:   Point{X: 13, Y: 3},
		},
		{
			name:   "backward selection uses the earlier endpoint",
			anchor: Rect{Left: 20, Top: 5, Right: 21, Bottom: 6},
			head:   Rect{Left: 10, Top: 5, Right: 11, Bottom: 6},
			want:   Point{X: 13, Y: 3},
		},
		{
			name:   "end left of start across lines",
			anchor: Rect{Left: 20, Top: 5, Right: 21, Bottom: 6},
			head:   Rect{Left: 4, Top: 7, Right: 5, Bottom: 8},
			want:   Point{X: 18, Y: 3},
		},
		{
			name:   "no room above goes below",
			anchor: Rect{Left: 10, Top: 1, Right: 11, Bottom: 2},
			head:   Rect{Left: 10, Top: 1, Right: 11, Bottom: 2},
			want:   Point{X: 8, Y: 1},
		},
		{
			name:   "clamped to the right edge",
			anchor: Rect{Left: 40, Top: 5, Right: 41, Bottom: 6},
			head:   Rect{Left: 40, Top: 5, Right: 41, Bottom: 6},
			want:   Point{X: 30, Y: 3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlaceTooltip(tt.anchor, tt.head, box, size); got != tt.want {
				t.Fatalf("PlaceTooltip=%+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPlaceMenu(t *testing.T) {
	box := Rect{Left: 0, Top: 0, Right: 30, Bottom: 10}
	if got, want := PlaceMenu(Rect{Left: 5, Top: 2, Right: 6, Bottom: 3}, box, Size{W: 8, H: 3}), (Point{X: 5, Y: 3}); got != want {
		t.Fatalf("PlaceMenu=%+v, want %+v", got, want)
	}
	if got, want := PlaceMenu(Rect{Left: 28, Top: 8, Right: 29, Bottom: 9}, box, Size{W: 8, H: 3}), (Point{X: 22, Y: 7}); got != want {
		t.Fatalf("PlaceMenu at the corner=%+v, want %+v", got, want)
	}
}

func TestTooltipAt(t *testing.T) {
	c := fixedCoords{3: {Left: 4, Top: 2, Right: 5, Bottom: 3}}
	box := Rect{Right: 20, Bottom: 10}
	if _, ok := TooltipAt(c, 3, 9, box, Size{W: 4, H: 1}); ok {
		t.Fatalf("TooltipAt with an off-screen head reported ok")
	}
	got, ok := TooltipAt(c, 3, 3, box, Size{W: 4, H: 1})
	if !ok || got != (Point{X: 4, Y: 1}) {
		t.Fatalf("TooltipAt=%+v,%v, want {4 1},true", got, ok)
	}
}
