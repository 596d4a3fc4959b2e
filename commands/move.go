package commands

import (
	"github.com/iw2rmb/quire/internal/textseg"
	"github.com/iw2rmb/quire/state"
)

// Move moves the caret one grapheme cluster backward (dir < 0) or forward,
// crossing into the neighbouring textblock at block edges. With extend the
// anchor stays put.
func Move(dir int, extend bool) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		sel := s.Selection
		if !extend && !sel.Empty() {
			pos := sel.To()
			if dir < 0 {
				pos = sel.From()
			}
			return commit(s.Tr().SetSelection(state.Caret(pos)), dispatch)
		}
		pos, ok := step(s, sel.Head, dir)
		if !ok {
			return false
		}
		next := state.Caret(pos)
		if extend {
			next.Anchor = sel.Anchor
		}
		return commit(s.Tr().SetSelection(next), dispatch)
	}
}

func step(s *state.State, pos, dir int) (int, bool) {
	rp, err := s.Doc.Resolve(pos)
	if err != nil || !rp.Parent().IsTextblock() {
		return 0, false
	}
	start, end := rp.Start(rp.Depth), rp.End(rp.Depth)
	text := s.Doc.AlignedText(start, end)
	if dir < 0 {
		if pos > start {
			return pos - max(1, textseg.ClusterBefore(text, pos-start)), true
		}
		return prevTextEnd(s.Doc, rp.Before(rp.Depth))
	}
	if pos < end {
		return pos + max(1, textseg.ClusterAfter(text, pos-start)), true
	}
	return nextTextStart(s.Doc, rp.After(rp.Depth))
}

// LineEdge moves the caret to the start (dir < 0) or end of its textblock.
func LineEdge(dir int, extend bool) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		sel := s.Selection
		rp, err := s.Doc.Resolve(sel.Head)
		if err != nil || !rp.Parent().IsTextblock() {
			return false
		}
		pos := rp.End(rp.Depth)
		if dir < 0 {
			pos = rp.Start(rp.Depth)
		}
		next := state.Caret(pos)
		if extend {
			next.Anchor = sel.Anchor
		}
		if next == sel {
			return false
		}
		return commit(s.Tr().SetSelection(next), dispatch)
	}
}
