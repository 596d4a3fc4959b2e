package model

import (
	"fmt"
	"strings"
)

// Fragment is an immutable ordered sequence of sibling nodes.
type Fragment struct {
	nodes []*Node
	size  int
}

// EmptyFragment holds no nodes.
var EmptyFragment = Fragment{}

// NewFragment builds a fragment, dropping empty text and joining adjacent
// text nodes that carry the same marks.
func NewFragment(nodes ...*Node) Fragment {
	var out []*Node
	size := 0
	for _, n := range nodes {
		if n == nil || (n.IsText() && n.textLen == 0) {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.IsText() && n.IsText() && SameMarkSet(last.marks, n.marks) {
				out[len(out)-1] = last.withText(last.text + n.text)
				size += n.NodeSize()
				continue
			}
		}
		out = append(out, n)
		size += n.NodeSize()
	}
	return Fragment{nodes: out, size: size}
}

func (f Fragment) Size() int       { return f.size }
func (f Fragment) ChildCount() int { return len(f.nodes) }

// Child returns the i-th child. It panics when i is out of range.
func (f Fragment) Child(i int) *Node { return f.nodes[i] }

// MaybeChild returns the i-th child or nil.
func (f Fragment) MaybeChild(i int) *Node {
	if i < 0 || i >= len(f.nodes) {
		return nil
	}
	return f.nodes[i]
}

func (f Fragment) FirstChild() *Node { return f.MaybeChild(0) }
func (f Fragment) LastChild() *Node  { return f.MaybeChild(len(f.nodes) - 1) }

// Nodes returns a copy of the child list.
func (f Fragment) Nodes() []*Node { return append([]*Node(nil), f.nodes...) }

// Eq compares fragments structurally.
func (f Fragment) Eq(o Fragment) bool {
	if len(f.nodes) != len(o.nodes) {
		return false
	}
	for i := range f.nodes {
		if !f.nodes[i].Eq(o.nodes[i]) {
			return false
		}
	}
	return true
}

// Append concatenates o after f, joining text at the seam.
func (f Fragment) Append(o Fragment) Fragment {
	if o.size == 0 && len(o.nodes) == 0 {
		return f
	}
	if f.size == 0 && len(f.nodes) == 0 {
		return o
	}
	nodes := make([]*Node, 0, len(f.nodes)+len(o.nodes))
	nodes = append(nodes, f.nodes...)
	nodes = append(nodes, o.nodes...)
	return NewFragment(nodes...)
}

// AddToStart prepends n.
func (f Fragment) AddToStart(n *Node) Fragment {
	return NewFragment(append([]*Node{n}, f.nodes...)...)
}

// AddToEnd appends n.
func (f Fragment) AddToEnd(n *Node) Fragment {
	nodes := append(append([]*Node(nil), f.nodes...), n)
	return NewFragment(nodes...)
}

// ReplaceChild returns f with the i-th child swapped for n.
func (f Fragment) ReplaceChild(i int, n *Node) Fragment {
	if f.nodes[i] == n {
		return f
	}
	nodes := append([]*Node(nil), f.nodes...)
	nodes[i] = n
	return Fragment{nodes: nodes, size: f.size - f.nodes[i].NodeSize() + n.NodeSize()}
}

// Cut returns the part of f between from and to.
func (f Fragment) Cut(from, to int) Fragment {
	if from <= 0 && to >= f.size {
		return f
	}
	var out []*Node
	size := 0
	if to > from {
		pos := 0
		for _, child := range f.nodes {
			if pos >= to {
				break
			}
			end := pos + child.NodeSize()
			if end > from {
				if pos < from || end > to {
					if child.IsText() {
						child = child.Cut(max(0, from-pos), min(child.textLen, to-pos))
					} else {
						child = child.Cut(max(0, from-pos-1), min(child.content.size, to-pos-1))
					}
				}
				out = append(out, child)
				size += child.NodeSize()
			}
			pos = end
		}
	}
	return Fragment{nodes: out, size: size}
}

// CutFrom returns the part of f from pos to its end.
func (f Fragment) CutFrom(from int) Fragment { return f.Cut(from, f.size) }

// findIndex locates the child at pos. With round <= 0 a position on a child
// boundary resolves to the child after it; with round > 0 a position inside
// a child resolves past it.
func (f Fragment) findIndex(pos, round int) (index, offset int, err error) {
	if pos == 0 {
		return 0, 0, nil
	}
	if pos == f.size {
		return len(f.nodes), pos, nil
	}
	if pos > f.size || pos < 0 {
		return 0, 0, fmt.Errorf("%w: %d outside fragment of size %d", ErrPosition, pos, f.size)
	}
	cur := 0
	for i, child := range f.nodes {
		end := cur + child.NodeSize()
		if end >= pos {
			if end == pos || round > 0 {
				return i + 1, end, nil
			}
			return i, cur, nil
		}
		cur = end
	}
	return len(f.nodes), f.size, nil
}

// NodesBetween calls fn for every node overlapping [from, to), descending
// into children unless fn returns false. pos is relative to start.
func (f Fragment) NodesBetween(from, to int, fn func(n *Node, pos int, parent *Node, index int) bool, start int, parent *Node) {
	pos := 0
	for i, child := range f.nodes {
		if pos >= to {
			break
		}
		end := pos + child.NodeSize()
		if end > from && fn(child, start+pos, parent, i) && child.content.size > 0 {
			inner := pos + 1
			child.content.NodesBetween(max(0, from-inner), min(child.content.size, to-inner), fn, start+inner, child)
		}
		pos = end
	}
}

// TextContent concatenates the text of all descendants.
func (f Fragment) TextContent() string {
	var b strings.Builder
	for _, n := range f.nodes {
		n.writeText(&b)
	}
	return b.String()
}

func (f Fragment) typeList() string {
	names := make([]string, len(f.nodes))
	for i, n := range f.nodes {
		names[i] = n.typ.Name
	}
	return "[" + strings.Join(names, " ") + "]"
}

func (f Fragment) String() string {
	parts := make([]string, len(f.nodes))
	for i, n := range f.nodes {
		parts[i] = n.String()
	}
	return "<" + strings.Join(parts, ", ") + ">"
}
