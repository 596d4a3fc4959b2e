package commands

import (
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// RangeHasMark reports whether any inline node in [from, to) carries a mark
// of type mt.
func RangeHasMark(doc *model.Node, from, to int, mt *model.MarkType) bool {
	found := false
	doc.NodesBetween(from, to, func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if found {
			return false
		}
		if _, ok := mt.IsInSet(n.Marks()); ok {
			found = true
		}
		return !found
	})
	return found
}

// markApplies reports whether some textblock in [from, to) allows mt.
func markApplies(doc *model.Node, from, to int, mt *model.MarkType) bool {
	ok := false
	doc.NodesBetween(from, max(to, from+1), func(n *model.Node, _ int, _ *model.Node, _ int) bool {
		if ok {
			return false
		}
		if n.Type().InlineContent() {
			ok = n.Type().AllowsMarkType(mt)
			return false
		}
		return true
	})
	return ok
}

// ToggleMark adds a mark of type mt with attrs to the selection, or removes
// it when the selection already has it. On a caret it toggles the stored
// marks used by the next typed text.
func ToggleMark(mt *model.MarkType, attrs model.Attrs) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		sel := s.Selection
		from, to := sel.From(), sel.To()
		if !markApplies(s.Doc, from, to, mt) {
			return false
		}
		mark, err := mt.Create(attrs)
		if err != nil {
			return false
		}
		if sel.Empty() {
			rp, err := s.Doc.Resolve(from)
			if err != nil {
				return false
			}
			marks := s.StoredMarks
			if marks == nil {
				marks = rp.Marks()
			}
			var next []model.Mark
			if _, ok := mt.IsInSet(marks); ok {
				next = mt.RemoveFromSet(marks)
			} else {
				next = mark.AddToSet(marks)
			}
			if next == nil {
				// Explicitly no marks, not "inherit from the position".
				next = []model.Mark{}
			}
			return commit(s.Tr().SetStoredMarks(next), dispatch)
		}
		tr := s.Tr()
		if RangeHasMark(s.Doc, from, to, mt) {
			tr.RemoveMark(from, to, mt)
		} else {
			tr.AddMark(from, to, mark)
		}
		return commit(tr, dispatch)
	}
}
