// Package decoration holds view-only annotations over document ranges.
// Decorations never change the document; they are remapped through each
// transaction's mapping and dropped when the text they cover is edited.
package decoration

import (
	"sort"

	"github.com/iw2rmb/quire/transform"
)

// Decoration annotates [From, To). Point decorations have From == To.
type Decoration struct {
	From, To int
	Kind     string
	Payload  any
}

// Set is an immutable set of decorations ordered by From then To.
type Set struct {
	decos []Decoration
}

// Empty holds no decorations.
var Empty = &Set{}

// NewSet builds a set from decos.
func NewSet(decos ...Decoration) *Set {
	if len(decos) == 0 {
		return Empty
	}
	out := append([]Decoration(nil), decos...)
	sortDecos(out)
	return &Set{decos: out}
}

func sortDecos(d []Decoration) {
	sort.SliceStable(d, func(i, j int) bool {
		if d[i].From != d[j].From {
			return d[i].From < d[j].From
		}
		return d[i].To < d[j].To
	})
}

func (s *Set) Len() int { return len(s.decos) }

// All returns a copy of every decoration in order.
func (s *Set) All() []Decoration { return append([]Decoration(nil), s.decos...) }

// Add returns a set with decos added.
func (s *Set) Add(decos ...Decoration) *Set {
	if len(decos) == 0 {
		return s
	}
	out := make([]Decoration, 0, len(s.decos)+len(decos))
	out = append(out, s.decos...)
	out = append(out, decos...)
	sortDecos(out)
	return &Set{decos: out}
}

// Remove returns a set without the decorations drop matches.
func (s *Set) Remove(drop func(Decoration) bool) *Set {
	var out []Decoration
	for _, d := range s.decos {
		if !drop(d) {
			out = append(out, d)
		}
	}
	if len(out) == len(s.decos) {
		return s
	}
	return &Set{decos: out}
}

// RemoveInside drops decorations lying entirely inside [from, to].
func (s *Set) RemoveInside(from, to int) *Set {
	return s.Remove(func(d Decoration) bool { return d.From >= from && d.To <= to })
}

// Find returns decorations overlapping [from, to]. Touching counts, so a
// caret at a decoration's edge finds it.
func (s *Set) Find(from, to int) []Decoration {
	var out []Decoration
	for _, d := range s.decos {
		if d.From > to {
			break
		}
		if d.To >= from {
			out = append(out, d)
		}
	}
	return out
}

// Map remaps the set through m. A decoration is dropped when a deletion
// overlaps it, content is inserted strictly inside it, or it collapses.
func (s *Set) Map(m *transform.Mapping) *Set {
	if m == nil || m.Len() == 0 || len(s.decos) == 0 {
		return s
	}
	out := make([]Decoration, 0, len(s.decos))
	for _, d := range s.decos {
		if d.From == d.To {
			r := m.MapResult(d.From, 1)
			if r.DeletedAcross {
				continue
			}
			d.From, d.To = r.Pos, r.Pos
			out = append(out, d)
			continue
		}
		if m.Touches(d.From, d.To) {
			continue
		}
		from, to := m.Map(d.From, 1), m.Map(d.To, -1)
		if to <= from {
			continue
		}
		d.From, d.To = from, to
		out = append(out, d)
	}
	sortDecos(out)
	return &Set{decos: out}
}
