package model

import "fmt"

type pathStep struct {
	node   *Node
	index  int
	offset int
}

// ResolvedPos is a position with the context of its ancestors.
type ResolvedPos struct {
	Pos          int
	Depth        int
	ParentOffset int
	path         []pathStep
}

// Resolve resolves pos against n's content.
func (n *Node) Resolve(pos int) (*ResolvedPos, error) {
	if pos < 0 || pos > n.content.size {
		return nil, fmt.Errorf("%w: %d outside document of size %d", ErrPosition, pos, n.content.size)
	}
	var path []pathStep
	start := 0
	parentOffset := pos
	for node := n; ; {
		index, offset, err := node.content.findIndex(parentOffset, 0)
		if err != nil {
			return nil, err
		}
		rem := parentOffset - offset
		path = append(path, pathStep{node: node, index: index, offset: start + offset})
		if rem == 0 {
			break
		}
		child := node.Child(index)
		if child.IsText() {
			break
		}
		node = child
		parentOffset = rem - 1
		start += offset + 1
	}
	return &ResolvedPos{Pos: pos, Depth: len(path) - 1, ParentOffset: parentOffset, path: path}, nil
}

func (r *ResolvedPos) resolveDepth(d int) int {
	if d < 0 {
		return r.Depth + d
	}
	return d
}

// Node returns the ancestor at depth d. Negative depths count up from the
// parent.
func (r *ResolvedPos) Node(d int) *Node { return r.path[r.resolveDepth(d)].node }

// Index returns the child index at depth d.
func (r *ResolvedPos) Index(d int) int { return r.path[r.resolveDepth(d)].index }

// IndexAfter returns the index of the child after the position at depth d.
func (r *ResolvedPos) IndexAfter(d int) int {
	d = r.resolveDepth(d)
	if d == r.Depth && r.TextOffset() == 0 {
		return r.Index(d)
	}
	return r.Index(d) + 1
}

// Start returns the position where the content of the ancestor at depth d
// starts.
func (r *ResolvedPos) Start(d int) int {
	d = r.resolveDepth(d)
	if d == 0 {
		return 0
	}
	return r.path[d-1].offset + 1
}

// End returns the position where the content of the ancestor at depth d
// ends.
func (r *ResolvedPos) End(d int) int {
	d = r.resolveDepth(d)
	return r.Start(d) + r.Node(d).content.size
}

// Before returns the position before the ancestor at depth d (d >= 1).
func (r *ResolvedPos) Before(d int) int {
	d = r.resolveDepth(d)
	if d == 0 {
		return 0
	}
	if d == r.Depth+1 {
		return r.Pos
	}
	return r.path[d-1].offset
}

// After returns the position after the ancestor at depth d (d >= 1).
func (r *ResolvedPos) After(d int) int {
	d = r.resolveDepth(d)
	if d == 0 {
		return r.Doc().content.size
	}
	if d == r.Depth+1 {
		return r.Pos
	}
	return r.path[d-1].offset + r.path[d].node.NodeSize()
}

func (r *ResolvedPos) Parent() *Node { return r.Node(r.Depth) }
func (r *ResolvedPos) Doc() *Node    { return r.Node(0) }

// TextOffset is the offset into the text node the position points into, or
// 0 at a node boundary.
func (r *ResolvedPos) TextOffset() int {
	return r.Pos - r.path[len(r.path)-1].offset
}

// NodeAfter returns the node directly after the position, cut when the
// position is inside text.
func (r *ResolvedPos) NodeAfter() *Node {
	parent := r.Parent()
	index := r.Index(r.Depth)
	if index == parent.ChildCount() {
		return nil
	}
	child := parent.Child(index)
	if off := r.TextOffset(); off > 0 {
		return child.Cut(off, child.textLen)
	}
	return child
}

// NodeBefore returns the node directly before the position.
func (r *ResolvedPos) NodeBefore() *Node {
	index := r.Index(r.Depth)
	if off := r.TextOffset(); off > 0 {
		return r.Parent().Child(index).Cut(0, off)
	}
	if index == 0 {
		return nil
	}
	return r.Parent().Child(index - 1)
}

// Marks returns the marks text inserted at the position would get.
func (r *ResolvedPos) Marks() []Mark {
	parent := r.Parent()
	index := r.Index(r.Depth)
	if parent.content.size == 0 {
		return nil
	}
	if r.TextOffset() > 0 {
		return parent.Child(index).marks
	}
	main, other := parent.MaybeChild(index-1), parent.MaybeChild(index)
	if main == nil {
		main, other = other, main
	}
	marks := main.marks
	out := marks[:0:0]
	for _, m := range marks {
		if !m.Type.Inclusive() && (other == nil || !m.IsInSet(other.marks)) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SharedDepth returns the depth of the deepest ancestor containing both r
// and pos.
func (r *ResolvedPos) SharedDepth(pos int) int {
	for d := r.Depth; d > 0; d-- {
		if r.Start(d) <= pos && r.End(d) >= pos {
			return d
		}
	}
	return 0
}

// Textblock returns the depth of the innermost textblock ancestor, or -1.
func (r *ResolvedPos) Textblock() int {
	for d := r.Depth; d >= 0; d-- {
		if r.Node(d).IsTextblock() {
			return d
		}
	}
	return -1
}

func (r *ResolvedPos) String() string {
	s := ""
	for d := 1; d <= r.Depth; d++ {
		if s != "" {
			s += "/"
		}
		s += fmt.Sprintf("%s_%d", r.Node(d).typ.Name, r.Index(d-1))
	}
	return fmt.Sprintf("%s:%d", s, r.ParentOffset)
}
