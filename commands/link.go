package commands

import (
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// InsertLink links the selection to its own text.
func InsertLink(mt *model.MarkType) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		sel := s.Selection
		if sel.Empty() || !markApplies(s.Doc, sel.From(), sel.To(), mt) {
			return false
		}
		href := s.Doc.Content().Cut(sel.From(), sel.To()).TextContent()
		mark, err := mt.Create(model.Attrs{"href": href})
		if err != nil {
			return false
		}
		return commit(s.Tr().AddMark(sel.From(), sel.To(), mark), dispatch)
	}
}

// LinkAt returns the mark of type mt at pos and the extent of the
// contiguous run of inline nodes carrying it.
func LinkAt(doc *model.Node, pos int, mt *model.MarkType) (mark model.Mark, from, to int, ok bool) {
	rp, err := doc.Resolve(pos)
	if err != nil || !rp.Parent().Type().InlineContent() {
		return model.Mark{}, 0, 0, false
	}
	parent := rp.Parent()
	index := rp.Index(rp.Depth)
	if rp.TextOffset() == 0 {
		// Between two nodes: prefer the one after the position.
		if n := parent.MaybeChild(index); n == nil || !hasMark(n, mt) {
			index--
		}
	}
	n := parent.MaybeChild(index)
	if n == nil {
		return model.Mark{}, 0, 0, false
	}
	mark, ok = mt.IsInSet(n.Marks())
	if !ok {
		return model.Mark{}, 0, 0, false
	}
	start := rp.Start(rp.Depth)
	first, last := index, index
	for first > 0 && mark.IsInSet(parent.Child(first-1).Marks()) {
		first--
	}
	for last+1 < parent.ChildCount() && mark.IsInSet(parent.Child(last+1).Marks()) {
		last++
	}
	from = start
	for i := 0; i < first; i++ {
		from += parent.Child(i).NodeSize()
	}
	to = from
	for i := first; i <= last; i++ {
		to += parent.Child(i).NodeSize()
	}
	return mark, from, to, true
}

func hasMark(n *model.Node, mt *model.MarkType) bool {
	_, ok := mt.IsInSet(n.Marks())
	return ok
}

// OpenLink passes the href of the link at the selection start to open.
func OpenLink(mt *model.MarkType, open func(href string)) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		mark, _, _, ok := LinkAt(s.Doc, s.Selection.From(), mt)
		if !ok {
			return false
		}
		if dispatch != nil && open != nil {
			open(mark.Attrs.String("href"))
		}
		return true
	}
}

// UpdateHref replaces the href of the link around the selection start,
// keeping its other attributes.
func UpdateHref(mt *model.MarkType, href string) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		mark, from, to, ok := LinkAt(s.Doc, s.Selection.From(), mt)
		if !ok {
			return false
		}
		next, err := mt.Create(mark.Attrs.With("href", href))
		if err != nil {
			return false
		}
		tr := s.Tr().RemoveMark(from, to, mt)
		tr.AddMark(from, to, next)
		return commit(tr, dispatch)
	}
}

// RemoveLink removes the link around the selection start. A selection that
// extends past the run removes the mark from the whole selection too.
func RemoveLink(mt *model.MarkType) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		_, from, to, ok := LinkAt(s.Doc, s.Selection.From(), mt)
		if !ok {
			return false
		}
		from, to = min(from, s.Selection.From()), max(to, s.Selection.To())
		return commit(s.Tr().RemoveMark(from, to, mt), dispatch)
	}
}
