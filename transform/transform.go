package transform

import (
	"errors"
	"fmt"

	"github.com/iw2rmb/quire/model"
)

// Transform accumulates steps against a document. Steps are applied as they
// are added; the first failure is recorded and every later call is ignored.
type Transform struct {
	Doc     *model.Node
	Steps   []Step
	Docs    []*model.Node
	Mapping *Mapping
	err     error
}

// New starts a transform of doc.
func New(doc *model.Node) *Transform {
	return &Transform{Doc: doc, Mapping: NewMapping()}
}

// Before returns the document the transform started from.
func (tr *Transform) Before() *model.Node {
	if len(tr.Docs) > 0 {
		return tr.Docs[0]
	}
	return tr.Doc
}

// Err returns the first step failure, if any.
func (tr *Transform) Err() error { return tr.err }

// DocChanged reports whether any step was applied.
func (tr *Transform) DocChanged() bool { return len(tr.Steps) > 0 }

// Fail records err unless an earlier failure is already recorded.
func (tr *Transform) Fail(err error) *Transform {
	if tr.err == nil && err != nil {
		tr.err = err
	}
	return tr
}

// Step applies s, recording a failure instead of returning it.
func (tr *Transform) Step(s Step) *Transform {
	if tr.err != nil {
		return tr
	}
	if err := tr.MaybeStep(s); err != nil {
		tr.err = err
	}
	return tr
}

// MaybeStep applies s and returns its error without recording it.
func (tr *Transform) MaybeStep(s Step) error {
	if tr.err != nil {
		return tr.err
	}
	doc, err := s.Apply(tr.Doc)
	if err != nil {
		return err
	}
	tr.Docs = append(tr.Docs, tr.Doc)
	tr.Steps = append(tr.Steps, s)
	tr.Mapping.AppendMap(s.GetMap())
	tr.Doc = doc
	return nil
}

// Replace replaces [from, to) with slice. An empty replace adds no step.
func (tr *Transform) Replace(from, to int, slice model.Slice) *Transform {
	if from == to && slice.Size() == 0 {
		return tr
	}
	return tr.Step(NewReplaceStep(from, to, slice))
}

// ReplaceWith replaces [from, to) with nodes.
func (tr *Transform) ReplaceWith(from, to int, nodes ...*model.Node) *Transform {
	return tr.Replace(from, to, model.NewSlice(model.NewFragment(nodes...), 0, 0))
}

// Insert inserts nodes at pos.
func (tr *Transform) Insert(pos int, nodes ...*model.Node) *Transform {
	return tr.ReplaceWith(pos, pos, nodes...)
}

// Delete removes [from, to). When the endpoints sit in textblocks that a
// plain replace cannot join, the textblock holding to is merged into the one
// holding from; ancestors of from keep their content before the range and
// ancestors of to keep their content after it.
func (tr *Transform) Delete(from, to int) *Transform {
	if tr.err != nil || from == to {
		return tr
	}
	err := tr.MaybeStep(NewReplaceStep(from, to, model.EmptySlice))
	if err == nil {
		return tr
	}
	if !errors.Is(err, model.ErrReplace) && !errors.Is(err, model.ErrSchemaViolation) {
		return tr.Fail(err)
	}
	return tr.Fail(tr.deleteAcross(from, to, err))
}

func (tr *Transform) deleteAcross(from, to int, cause error) error {
	rf, err := tr.Doc.Resolve(from)
	if err != nil {
		return err
	}
	rt, err := tr.Doc.Resolve(to)
	if err != nil {
		return err
	}
	if !rf.Parent().IsTextblock() || !rt.Parent().IsTextblock() {
		return cause
	}
	d := rf.SharedDepth(to)
	if d >= rf.Depth || d >= rt.Depth {
		return cause
	}
	head := rf.Parent().Content().Cut(0, rf.ParentOffset)
	tail := rt.Parent().Content().CutFrom(rt.ParentOffset)
	left := rf.Parent().Copy(head.Append(tail))
	for k := rf.Depth - 1; k > d; k-- {
		before := rf.Node(k).Content().Cut(0, rf.Before(k+1)-rf.Start(k))
		left = rf.Node(k).Copy(before.AddToEnd(left))
	}
	var right *model.Node
	for k := rt.Depth - 1; k > d; k-- {
		rest := rt.Node(k).Content().CutFrom(rt.After(k+1) - rt.Start(k))
		if right != nil {
			rest = rest.AddToStart(right)
		}
		right = nil
		if rest.ChildCount() > 0 {
			right = rt.Node(k).Copy(rest)
		}
	}
	nodes := []*model.Node{left}
	if right != nil {
		nodes = append(nodes, right)
	}
	return tr.MaybeStep(NewReplaceStep(rf.Before(d+1), rt.After(d+1), model.NewSlice(model.NewFragment(nodes...), 0, 0)))
}

// InsertText replaces [from, to) with text carrying marks. Empty text
// deletes.
func (tr *Transform) InsertText(text string, from, to int, marks []model.Mark) *Transform {
	if tr.err != nil {
		return tr
	}
	if text == "" {
		return tr.Delete(from, to)
	}
	node, err := tr.Doc.Type().Schema.TextNode(text, marks)
	if err != nil {
		return tr.Fail(err)
	}
	return tr.ReplaceWith(from, to, node)
}

// AddMark adds mark to inline content in [from, to), splitting the change
// into one step per run whose marks actually change.
func (tr *Transform) AddMark(from, to int, mark model.Mark) *Transform {
	if tr.err != nil || from >= to {
		return tr
	}
	var steps []Step
	tr.Doc.NodesBetween(from, to, func(n *model.Node, pos int, parent *model.Node, _ int) bool {
		if !n.IsInline() {
			return true
		}
		if mark.IsInSet(n.Marks()) || !parent.Type().AllowsMarkType(mark.Type) {
			return false
		}
		start, end := max(pos, from), min(pos+n.NodeSize(), to)
		if last := len(steps) - 1; last >= 0 {
			if prev := steps[last].(*AddMarkStep); prev.To == start {
				prev.To = end
				return false
			}
		}
		steps = append(steps, NewAddMarkStep(start, end, mark))
		return false
	})
	for _, s := range steps {
		tr.Step(s)
	}
	return tr
}

// RemoveMark removes marks of type mt (every mark when mt is nil) from
// inline content in [from, to).
func (tr *Transform) RemoveMark(from, to int, mt *model.MarkType) *Transform {
	if tr.err != nil || from >= to {
		return tr
	}
	var steps []*RemoveMarkStep
	tr.Doc.NodesBetween(from, to, func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if !n.IsInline() {
			return true
		}
		start, end := max(pos, from), min(pos+n.NodeSize(), to)
		for _, m := range n.Marks() {
			if mt != nil && m.Type != mt {
				continue
			}
			merged := false
			for _, s := range steps {
				if s.Mark.Eq(m) && s.To == start {
					s.To = end
					merged = true
					break
				}
			}
			if !merged {
				steps = append(steps, NewRemoveMarkStep(start, end, m))
			}
		}
		return false
	})
	for _, s := range steps {
		tr.Step(s)
	}
	return tr
}

// SetNodeMarkup changes the node at pos to typ with attrs. A nil typ keeps
// the node's type.
func (tr *Transform) SetNodeMarkup(pos int, typ *model.NodeType, attrs model.Attrs) *Transform {
	if tr.err != nil {
		return tr
	}
	node := tr.Doc.NodeAt(pos)
	if node == nil {
		return tr.Fail(failed(fmt.Errorf("no node at %d", pos)))
	}
	if typ == nil {
		typ = node.Type()
	}
	return tr.Step(NewSetNodeMarkupStep(pos, typ, attrs))
}

// SetBlockType converts every textblock overlapping [from, to) to typ. Marks
// the new type does not allow are removed first.
func (tr *Transform) SetBlockType(from, to int, typ *model.NodeType, attrs model.Attrs) *Transform {
	if tr.err != nil {
		return tr
	}
	var starts []int
	tr.Doc.NodesBetween(from, to, func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if n.IsTextblock() {
			starts = append(starts, pos)
			return false
		}
		return true
	})
	mapFrom := tr.Mapping.Len()
	for _, start := range starts {
		pos := tr.Mapping.Slice(mapFrom, tr.Mapping.Len()).Map(start, 1)
		node := tr.Doc.NodeAt(pos)
		if node == nil {
			continue
		}
		for _, mt := range node.Type().Schema.MarkTypes() {
			if !typ.AllowsMarkType(mt) {
				tr.RemoveMark(pos+1, pos+node.NodeSize()-1, mt)
			}
		}
		tr.SetNodeMarkup(pos, typ, attrs)
	}
	return tr
}

// NodeTypeAttrs names a node type with attributes, for Split.
type NodeTypeAttrs struct {
	Type  *model.NodeType
	Attrs model.Attrs
}

// Split splits the node at pos and depth-1 of its ancestors. typesAfter
// optionally gives the type of each new node from the outermost inward.
func (tr *Transform) Split(pos, depth int, typesAfter []NodeTypeAttrs) *Transform {
	if tr.err != nil {
		return tr
	}
	rp, err := tr.Doc.Resolve(pos)
	if err != nil {
		return tr.Fail(failed(err))
	}
	if depth < 1 || depth > rp.Depth {
		return tr.Fail(failed(fmt.Errorf("cannot split %d levels at depth %d", depth, rp.Depth)))
	}
	before, after := model.EmptyFragment, model.EmptyFragment
	for d, e, i := rp.Depth, rp.Depth-depth, depth-1; d > e; d, i = d-1, i-1 {
		before = model.NewFragment(rp.Node(d).Copy(before))
		if i < len(typesAfter) && typesAfter[i].Type != nil {
			n, err := typesAfter[i].Type.Create(typesAfter[i].Attrs, after, nil)
			if err != nil {
				return tr.Fail(failed(err))
			}
			after = model.NewFragment(n)
		} else {
			after = model.NewFragment(rp.Node(d).Copy(after))
		}
	}
	return tr.Step(NewReplaceStep(pos, pos, model.NewSlice(before.Append(after), depth, depth)))
}

// Join joins the blocks around pos at the given depth.
func (tr *Transform) Join(pos, depth int) *Transform {
	return tr.Step(NewReplaceStep(pos-depth, pos+depth, model.EmptySlice))
}

// CanJoin reports whether the nodes directly before and after pos can be
// joined.
func CanJoin(doc *model.Node, pos int) bool {
	rp, err := doc.Resolve(pos)
	if err != nil {
		return false
	}
	a, b := rp.NodeBefore(), rp.NodeAfter()
	return a != nil && b != nil && !a.IsLeaf() && !a.IsText() && !b.IsLeaf() && !b.IsText() &&
		a.Type().CompatibleContent(b.Type())
}

// CanSplit reports whether splitting at pos with the given depth and types
// would produce a valid document.
func CanSplit(doc *model.Node, pos, depth int, typesAfter []NodeTypeAttrs) bool {
	tr := New(doc)
	tr.Split(pos, depth, typesAfter)
	return tr.Err() == nil
}
