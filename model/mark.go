package model

import (
	"sort"
	"strings"
)

// Mark is an inline annotation such as bold or a link.
type Mark struct {
	Type  *MarkType
	Attrs Attrs
}

// Eq reports whether m and o have the same type and attrs.
func (m Mark) Eq(o Mark) bool { return m.Type == o.Type && attrsEqual(m.Attrs, o.Attrs) }

// AddToSet returns set with m added. A mark of the same type is replaced,
// and the result is ordered by mark rank.
func (m Mark) AddToSet(set []Mark) []Mark {
	out := make([]Mark, 0, len(set)+1)
	placed := false
	for _, x := range set {
		if x.Type == m.Type {
			continue
		}
		if !placed && x.Type.rank > m.Type.rank {
			out = append(out, m)
			placed = true
		}
		out = append(out, x)
	}
	if !placed {
		out = append(out, m)
	}
	return out
}

// RemoveFromSet returns set without m.
func (m Mark) RemoveFromSet(set []Mark) []Mark {
	var out []Mark
	for _, x := range set {
		if !x.Eq(m) {
			out = append(out, x)
		}
	}
	return out
}

// IsInSet reports whether an equal mark is in set.
func (m Mark) IsInSet(set []Mark) bool {
	for _, x := range set {
		if x.Eq(m) {
			return true
		}
	}
	return false
}

func (m Mark) String() string {
	if len(m.Attrs) == 0 {
		return m.Type.Name
	}
	var b strings.Builder
	b.WriteString(m.Type.Name)
	b.WriteByte('(')
	for i, k := range m.Attrs.keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(attrString(m.Attrs[k]))
	}
	b.WriteByte(')')
	return b.String()
}

// SameMarkSet reports whether a and b hold equal marks in the same order.
func SameMarkSet(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Eq(b[i]) {
			return false
		}
	}
	return true
}

func normalizeMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	var out []Mark
	for _, m := range marks {
		out = m.AddToSet(out)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Type.rank < out[j].Type.rank })
	return out
}

func marksString(marks []Mark) string {
	parts := make([]string, len(marks))
	for i, m := range marks {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
