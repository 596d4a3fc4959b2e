package model

import "fmt"

// Slice is a piece of document content with open sides. OpenStart and
// OpenEnd count how many levels of the first and last nodes are open, so
// that replacing can join them with the surrounding content.
type Slice struct {
	Content   Fragment
	OpenStart int
	OpenEnd   int
}

// EmptySlice deletes when used in a replace.
var EmptySlice = Slice{}

// NewSlice builds a slice.
func NewSlice(content Fragment, openStart, openEnd int) Slice {
	return Slice{Content: content, OpenStart: openStart, OpenEnd: openEnd}
}

// MaxOpenSlice opens a fragment as far as its first and last descendants
// allow.
func MaxOpenSlice(f Fragment) Slice {
	openStart, openEnd := 0, 0
	for n := f.FirstChild(); n != nil && !n.IsLeaf() && !n.IsText(); n = n.content.FirstChild() {
		openStart++
	}
	for n := f.LastChild(); n != nil && !n.IsLeaf() && !n.IsText(); n = n.content.LastChild() {
		openEnd++
	}
	return Slice{Content: f, OpenStart: openStart, OpenEnd: openEnd}
}

// Size is the number of position units the slice inserts.
func (s Slice) Size() int { return s.Content.size - s.OpenStart - s.OpenEnd }

// Eq compares slices structurally.
func (s Slice) Eq(o Slice) bool {
	return s.OpenStart == o.OpenStart && s.OpenEnd == o.OpenEnd && s.Content.Eq(o.Content)
}

func (s Slice) String() string {
	return fmt.Sprintf("%s(%d,%d)", s.Content, s.OpenStart, s.OpenEnd)
}

// Slice cuts the content between from and to into a slice, opened at the
// depth the endpoints share.
func (n *Node) Slice(from, to int) (Slice, error) {
	if from == to {
		return EmptySlice, nil
	}
	rf, err := n.Resolve(from)
	if err != nil {
		return Slice{}, err
	}
	rt, err := n.Resolve(to)
	if err != nil {
		return Slice{}, err
	}
	depth := rf.SharedDepth(to)
	start := rf.Start(depth)
	content := rf.Node(depth).content.Cut(rf.Pos-start, rt.Pos-start)
	return Slice{Content: content, OpenStart: rf.Depth - depth, OpenEnd: rt.Depth - depth}, nil
}

// Replace returns a copy of n with [from, to) replaced by slice. The result
// is validated on every level that was rebuilt.
func (n *Node) Replace(from, to int, slice Slice) (*Node, error) {
	rf, err := n.Resolve(from)
	if err != nil {
		return nil, err
	}
	rt, err := n.Resolve(to)
	if err != nil {
		return nil, err
	}
	return replaceResolved(rf, rt, slice)
}

func replaceResolved(from, to *ResolvedPos, slice Slice) (*Node, error) {
	if slice.OpenStart > from.Depth {
		return nil, fmt.Errorf("%w: inserted content deeper than insertion position", ErrReplace)
	}
	if from.Depth-slice.OpenStart != to.Depth-slice.OpenEnd {
		return nil, fmt.Errorf("%w: inconsistent open depths", ErrReplace)
	}
	return replaceOuter(from, to, slice, 0)
}

func replaceOuter(from, to *ResolvedPos, slice Slice, depth int) (*Node, error) {
	index, node := from.Index(depth), from.Node(depth)
	switch {
	case index == to.Index(depth) && depth < from.Depth-slice.OpenStart:
		inner, err := replaceOuter(from, to, slice, depth+1)
		if err != nil {
			return nil, err
		}
		return node.Copy(node.content.ReplaceChild(index, inner)), nil
	case slice.Content.size == 0:
		content, err := replaceTwoWay(from, to, depth)
		if err != nil {
			return nil, err
		}
		return closeNode(node, content)
	case slice.OpenStart == 0 && slice.OpenEnd == 0 && from.Depth == depth && to.Depth == depth:
		parent := from.Parent()
		c := parent.content
		return closeNode(parent, c.Cut(0, from.ParentOffset).Append(slice.Content).Append(c.CutFrom(to.ParentOffset)))
	default:
		start, end, err := prepareSliceForReplace(slice, from)
		if err != nil {
			return nil, err
		}
		content, err := replaceThreeWay(from, start, end, to, depth)
		if err != nil {
			return nil, err
		}
		return closeNode(node, content)
	}
}

func checkJoin(main, sub *Node) error {
	if !sub.typ.CompatibleContent(main.typ) {
		return violation(main.typ.Name, "cannot join %s onto %s", sub.typ.Name, main.typ.Name)
	}
	return nil
}

func joinable(before, after *ResolvedPos, depth int) (*Node, error) {
	node := before.Node(depth)
	if err := checkJoin(node, after.Node(depth)); err != nil {
		return nil, err
	}
	return node, nil
}

func addNode(child *Node, target []*Node) []*Node {
	last := len(target) - 1
	if last >= 0 && child.IsText() && child.SameMarkup(target[last]) {
		target[last] = child.withText(target[last].text + child.text)
		return target
	}
	return append(target, child)
}

// addRange appends the children of the node at depth between start and end.
// A nil start means from the beginning, a nil end means to the end.
func addRange(start, end *ResolvedPos, depth int, target []*Node) []*Node {
	ref := end
	if ref == nil {
		ref = start
	}
	node := ref.Node(depth)
	startIndex, endIndex := 0, node.ChildCount()
	if end != nil {
		endIndex = end.Index(depth)
	}
	if start != nil {
		startIndex = start.Index(depth)
		if start.Depth > depth {
			startIndex++
		} else if start.TextOffset() > 0 {
			target = addNode(start.NodeAfter(), target)
			startIndex++
		}
	}
	for i := startIndex; i < endIndex; i++ {
		target = addNode(node.Child(i), target)
	}
	if end != nil && end.Depth == depth && end.TextOffset() > 0 {
		target = addNode(end.NodeBefore(), target)
	}
	return target
}

func closeNode(node *Node, content Fragment) (*Node, error) {
	if err := node.typ.CheckContent(content); err != nil {
		return nil, err
	}
	return node.Copy(content), nil
}

func replaceThreeWay(from, start, end, to *ResolvedPos, depth int) (Fragment, error) {
	var openStart, openEnd *Node
	var err error
	if from.Depth > depth {
		if openStart, err = joinable(from, start, depth+1); err != nil {
			return Fragment{}, err
		}
	}
	if to.Depth > depth {
		if openEnd, err = joinable(end, to, depth+1); err != nil {
			return Fragment{}, err
		}
	}

	content := addRange(nil, from, depth, nil)
	if openStart != nil && openEnd != nil && start.Index(depth) == end.Index(depth) {
		if err := checkJoin(openStart, openEnd); err != nil {
			return Fragment{}, err
		}
		inner, err := replaceThreeWay(from, start, end, to, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		closed, err := closeNode(openStart, inner)
		if err != nil {
			return Fragment{}, err
		}
		content = addNode(closed, content)
	} else {
		if openStart != nil {
			inner, err := replaceTwoWay(from, start, depth+1)
			if err != nil {
				return Fragment{}, err
			}
			closed, err := closeNode(openStart, inner)
			if err != nil {
				return Fragment{}, err
			}
			content = addNode(closed, content)
		}
		content = addRange(start, end, depth, content)
		if openEnd != nil {
			inner, err := replaceTwoWay(end, to, depth+1)
			if err != nil {
				return Fragment{}, err
			}
			closed, err := closeNode(openEnd, inner)
			if err != nil {
				return Fragment{}, err
			}
			content = addNode(closed, content)
		}
	}
	content = addRange(to, nil, depth, content)
	return NewFragment(content...), nil
}

func replaceTwoWay(from, to *ResolvedPos, depth int) (Fragment, error) {
	content := addRange(nil, from, depth, nil)
	if from.Depth > depth {
		typ, err := joinable(from, to, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		inner, err := replaceTwoWay(from, to, depth+1)
		if err != nil {
			return Fragment{}, err
		}
		closed, err := closeNode(typ, inner)
		if err != nil {
			return Fragment{}, err
		}
		content = addNode(closed, content)
	}
	content = addRange(to, nil, depth, content)
	return NewFragment(content...), nil
}

// prepareSliceForReplace wraps the slice in copies of the ancestors of along
// so that its open sides can be resolved at matching depths.
func prepareSliceForReplace(slice Slice, along *ResolvedPos) (*ResolvedPos, *ResolvedPos, error) {
	extra := along.Depth - slice.OpenStart
	node := along.Node(extra).Copy(slice.Content)
	for i := extra - 1; i >= 0; i-- {
		node = along.Node(i).Copy(NewFragment(node))
	}
	start, err := node.Resolve(slice.OpenStart + extra)
	if err != nil {
		return nil, nil, err
	}
	end, err := node.Resolve(node.content.size - slice.OpenEnd - extra)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}
