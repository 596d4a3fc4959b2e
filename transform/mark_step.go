package transform

import (
	"fmt"

	"github.com/iw2rmb/quire/model"
)

// AddMarkStep adds Mark to the inline content in [From, To).
type AddMarkStep struct {
	From, To int
	Mark     model.Mark
}

// RemoveMarkStep removes Mark from the inline content in [From, To).
type RemoveMarkStep struct {
	From, To int
	Mark     model.Mark
}

func NewAddMarkStep(from, to int, mark model.Mark) *AddMarkStep {
	return &AddMarkStep{From: from, To: to, Mark: mark}
}

func NewRemoveMarkStep(from, to int, mark model.Mark) *RemoveMarkStep {
	return &RemoveMarkStep{From: from, To: to, Mark: mark}
}

func (s *AddMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return applyMarkChange(doc, s.From, s.To, func(n *model.Node, parent *model.Node) *model.Node {
		if !parent.Type().AllowsMarkType(s.Mark.Type) {
			return n
		}
		return n.WithMarks(s.Mark.AddToSet(n.Marks()))
	})
}

func (s *RemoveMarkStep) Apply(doc *model.Node) (*model.Node, error) {
	return applyMarkChange(doc, s.From, s.To, func(n *model.Node, _ *model.Node) *model.Node {
		return n.WithMarks(s.Mark.RemoveFromSet(n.Marks()))
	})
}

func applyMarkChange(doc *model.Node, from, to int, fn func(n, parent *model.Node) *model.Node) (*model.Node, error) {
	old, err := doc.Slice(from, to)
	if err != nil {
		return nil, failed(err)
	}
	rf, err := doc.Resolve(from)
	if err != nil {
		return nil, failed(err)
	}
	parent := rf.Node(rf.SharedDepth(to))
	slice := model.NewSlice(mapInline(old.Content, fn, parent), old.OpenStart, old.OpenEnd)
	out, err := doc.Replace(from, to, slice)
	if err != nil {
		return nil, failed(err)
	}
	return out, nil
}

func mapInline(f model.Fragment, fn func(n, parent *model.Node) *model.Node, parent *model.Node) model.Fragment {
	mapped := make([]*model.Node, 0, f.ChildCount())
	for i := 0; i < f.ChildCount(); i++ {
		child := f.Child(i)
		if child.Content().Size() > 0 {
			child = child.Copy(mapInline(child.Content(), fn, child))
		}
		if child.IsInline() {
			child = fn(child, parent)
		}
		mapped = append(mapped, child)
	}
	return model.NewFragment(mapped...)
}

func (s *AddMarkStep) GetMap() StepMap    { return EmptyStepMap }
func (s *RemoveMarkStep) GetMap() StepMap { return EmptyStepMap }

func (s *AddMarkStep) Invert(*model.Node) Step { return NewRemoveMarkStep(s.From, s.To, s.Mark) }

func (s *RemoveMarkStep) Invert(*model.Node) Step { return NewAddMarkStep(s.From, s.To, s.Mark) }

func mapMarkRange(m Mappable, from, to int) (int, int, bool) {
	f := m.MapResult(from, 1)
	t := m.MapResult(to, -1)
	if (f.Deleted && t.Deleted) || f.Pos >= t.Pos {
		return 0, 0, false
	}
	return f.Pos, t.Pos, true
}

func (s *AddMarkStep) Map(m Mappable) Step {
	from, to, ok := mapMarkRange(m, s.From, s.To)
	if !ok {
		return nil
	}
	return NewAddMarkStep(from, to, s.Mark)
}

func (s *RemoveMarkStep) Map(m Mappable) Step {
	from, to, ok := mapMarkRange(m, s.From, s.To)
	if !ok {
		return nil
	}
	return NewRemoveMarkStep(from, to, s.Mark)
}

func (s *AddMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*AddMarkStep)
	if ok && o.Mark.Eq(s.Mark) && s.From <= o.To && s.To >= o.From {
		return NewAddMarkStep(min(s.From, o.From), max(s.To, o.To), s.Mark), true
	}
	return nil, false
}

func (s *RemoveMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*RemoveMarkStep)
	if ok && o.Mark.Eq(s.Mark) && s.From <= o.To && s.To >= o.From {
		return NewRemoveMarkStep(min(s.From, o.From), max(s.To, o.To), s.Mark), true
	}
	return nil, false
}

func (s *AddMarkStep) String() string {
	return fmt.Sprintf("addMark(%d,%d,%s)", s.From, s.To, s.Mark)
}

func (s *RemoveMarkStep) String() string {
	return fmt.Sprintf("removeMark(%d,%d,%s)", s.From, s.To, s.Mark)
}

// SetNodeMarkupStep changes the type and attributes of the node starting
// at Pos, keeping its content and marks.
type SetNodeMarkupStep struct {
	Pos   int
	Type  *model.NodeType
	Attrs model.Attrs
}

func NewSetNodeMarkupStep(pos int, typ *model.NodeType, attrs model.Attrs) *SetNodeMarkupStep {
	return &SetNodeMarkupStep{Pos: pos, Type: typ, Attrs: attrs}
}

func (s *SetNodeMarkupStep) Apply(doc *model.Node) (*model.Node, error) {
	node := doc.NodeAt(s.Pos)
	if node == nil || node.IsText() {
		return nil, failed(fmt.Errorf("no node at %d", s.Pos))
	}
	repl, err := s.Type.Create(s.Attrs, node.Content(), node.Marks())
	if err != nil {
		return nil, failed(err)
	}
	out, err := doc.Replace(s.Pos, s.Pos+node.NodeSize(), model.NewSlice(model.NewFragment(repl), 0, 0))
	if err != nil {
		return nil, failed(err)
	}
	return out, nil
}

func (s *SetNodeMarkupStep) GetMap() StepMap { return EmptyStepMap }

func (s *SetNodeMarkupStep) Invert(doc *model.Node) Step {
	node := doc.NodeAt(s.Pos)
	if node == nil {
		return nil
	}
	return NewSetNodeMarkupStep(s.Pos, node.Type(), node.Attrs())
}

func (s *SetNodeMarkupStep) Map(m Mappable) Step {
	r := m.MapResult(s.Pos, 1)
	if r.Deleted {
		return nil
	}
	return NewSetNodeMarkupStep(r.Pos, s.Type, s.Attrs)
}

func (s *SetNodeMarkupStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*SetNodeMarkupStep)
	if ok && o.Pos == s.Pos {
		return o, true
	}
	return nil, false
}

func (s *SetNodeMarkupStep) String() string {
	return fmt.Sprintf("setMarkup(%d,%s)", s.Pos, s.Type)
}
