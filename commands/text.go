// Package commands holds the baseline editing commands and the base keymap.
//
// Every command follows the state.Command contract: with a nil dispatch it
// only reports whether it applies.
package commands

import (
	"github.com/iw2rmb/quire/internal/textseg"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/transform"
)

// InsertText replaces the selection with text.
func InsertText(text string) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		if text == "" {
			return false
		}
		sel := s.Selection
		tr := s.Tr().InsertText(text, sel.From(), sel.To())
		return commit(tr, dispatch)
	}
}

// commit dispatches tr when it holds no failure.
func commit(tr *state.Transaction, dispatch state.Dispatch) bool {
	if tr.Err() != nil {
		return false
	}
	if dispatch != nil {
		dispatch(tr)
	}
	return true
}

// DeleteSelection deletes a non-empty selection.
func DeleteSelection(s *state.State, dispatch state.Dispatch) bool {
	if s.Selection.Empty() {
		return false
	}
	return commit(s.Tr().DeleteSelection(), dispatch)
}

// DeleteBackward deletes the selection, or the grapheme cluster before the
// caret, or joins the textblock with the one before it.
func DeleteBackward(s *state.State, dispatch state.Dispatch) bool {
	if DeleteSelection(s, dispatch) {
		return true
	}
	pos := s.Selection.Head
	rp, err := s.Doc.Resolve(pos)
	if err != nil || !rp.Parent().IsTextblock() {
		return false
	}
	if rp.ParentOffset == 0 {
		return JoinBackward(s, dispatch)
	}
	start := rp.Start(rp.Depth)
	n := textseg.ClusterBefore(s.Doc.AlignedText(start, pos), pos-start)
	if n == 0 {
		n = 1
	}
	return commit(s.Tr().Delete(pos-n, pos), dispatch)
}

// DeleteForward deletes the selection, or the grapheme cluster after the
// caret, or joins the next textblock into this one.
func DeleteForward(s *state.State, dispatch state.Dispatch) bool {
	if DeleteSelection(s, dispatch) {
		return true
	}
	pos := s.Selection.Head
	rp, err := s.Doc.Resolve(pos)
	if err != nil || !rp.Parent().IsTextblock() {
		return false
	}
	end := rp.End(rp.Depth)
	if pos == end {
		return JoinForward(s, dispatch)
	}
	start := rp.Start(rp.Depth)
	n := textseg.ClusterAfter(s.Doc.AlignedText(start, end), pos-start)
	if n == 0 {
		n = 1
	}
	return commit(s.Tr().Delete(pos, pos+n), dispatch)
}

// JoinBackward joins the textblock at the caret start with the previous
// textblock, or deletes a leaf block directly before it.
func JoinBackward(s *state.State, dispatch state.Dispatch) bool {
	sel := s.Selection
	if !sel.Empty() {
		return false
	}
	rp, err := s.Doc.Resolve(sel.Head)
	if err != nil || rp.ParentOffset != 0 || rp.Depth == 0 {
		return false
	}
	before := rp.Before(rp.Depth)
	br, err := s.Doc.Resolve(before)
	if err != nil {
		return false
	}
	if leaf := br.NodeBefore(); leaf != nil && leaf.IsLeaf() {
		return commit(s.Tr().Delete(before-leaf.NodeSize(), before), dispatch)
	}
	prev, ok := prevTextEnd(s.Doc, before)
	if !ok {
		return false
	}
	return commit(s.Tr().Delete(prev, sel.Head), dispatch)
}

// JoinForward joins the next textblock into the one ending at the caret,
// or deletes a leaf block directly after it.
func JoinForward(s *state.State, dispatch state.Dispatch) bool {
	sel := s.Selection
	if !sel.Empty() {
		return false
	}
	rp, err := s.Doc.Resolve(sel.Head)
	if err != nil || rp.Depth == 0 || sel.Head != rp.End(rp.Depth) {
		return false
	}
	after := rp.After(rp.Depth)
	ar, err := s.Doc.Resolve(after)
	if err != nil {
		return false
	}
	if leaf := ar.NodeAfter(); leaf != nil && leaf.IsLeaf() {
		return commit(s.Tr().Delete(after, after+leaf.NodeSize()), dispatch)
	}
	next, ok := nextTextStart(s.Doc, after)
	if !ok {
		return false
	}
	return commit(s.Tr().Delete(sel.Head, next), dispatch)
}

func prevTextEnd(doc *model.Node, pos int) (int, bool) {
	best, ok := 0, false
	doc.Descendants(func(n *model.Node, p int, _ *model.Node, _ int) bool {
		if p >= pos {
			return false
		}
		if n.IsTextblock() {
			if end := p + n.NodeSize() - 1; end < pos {
				best, ok = end, true
			}
			return false
		}
		return true
	})
	return best, ok
}

func nextTextStart(doc *model.Node, pos int) (int, bool) {
	best, ok := 0, false
	doc.Descendants(func(n *model.Node, p int, _ *model.Node, _ int) bool {
		if ok {
			return false
		}
		if n.IsTextblock() {
			if p >= pos {
				best, ok = p+1, true
			}
			return false
		}
		return true
	})
	return best, ok
}

// NewlineInCode inserts a newline when the selection is in a code block.
func NewlineInCode(s *state.State, dispatch state.Dispatch) bool {
	rp, err := s.Doc.Resolve(s.Selection.From())
	if err != nil || !rp.Parent().Type().IsCode() {
		return false
	}
	sel := s.Selection
	return commit(s.Tr().InsertText("\n", sel.From(), sel.To()), dispatch)
}

// defaultTextblock returns the first textblock type parent accepts.
func defaultTextblock(parent *model.NodeType) *model.NodeType {
	for _, t := range parent.Schema.NodeTypes() {
		if t.IsTextblock() && !t.IsCode() && parent.ContentAllows(t) {
			return t
		}
	}
	return nil
}

// SplitBlock deletes the selection and splits the textblock at the caret.
// Splitting at the end of a block starts a default block.
func SplitBlock(s *state.State, dispatch state.Dispatch) bool {
	tr := s.Tr().DeleteSelection()
	pos := tr.Selection().Head
	rp, err := tr.Doc.Resolve(pos)
	if err != nil || !rp.Parent().IsTextblock() || rp.Depth == 0 {
		return false
	}
	var types []transform.NodeTypeAttrs
	if pos == rp.End(rp.Depth) {
		if t := defaultTextblock(rp.Node(rp.Depth - 1).Type()); t != nil {
			types = []transform.NodeTypeAttrs{{Type: t}}
		}
	}
	if !transform.CanSplit(tr.Doc, pos, 1, types) {
		types = nil
		if !transform.CanSplit(tr.Doc, pos, 1, nil) {
			return false
		}
	}
	tr.Split(pos, 1, types)
	return commit(tr, dispatch)
}

// SelectAll selects the whole document.
func SelectAll(s *state.State, dispatch state.Dispatch) bool {
	return commit(s.Tr().SetSelection(state.All(s.Doc)), dispatch)
}

// SetBlockType converts the textblocks in the selection to typ. It does not
// apply when every one already has that type and attrs.
func SetBlockType(typ *model.NodeType, attrs model.Attrs) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		full, err := typ.ComputeAttrs(attrs)
		if err != nil {
			return false
		}
		from, to := s.Selection.From(), s.Selection.To()
		applicable := false
		s.Doc.NodesBetween(from, max(to, from+1), func(n *model.Node, pos int, parent *model.Node, _ int) bool {
			if applicable {
				return false
			}
			if !n.IsTextblock() {
				return true
			}
			if (n.Type() != typ || !n.Attrs().Eq(full)) && parent.Type().ContentAllows(typ) {
				applicable = true
			}
			return false
		})
		if !applicable {
			return false
		}
		return commit(s.Tr().SetBlockType(from, to, typ, full), dispatch)
	}
}
