package state

import (
	"fmt"

	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/transform"
)

// Selection is a text selection. It is a caret when Anchor == Head.
type Selection struct {
	Anchor, Head int
}

// Caret returns a collapsed selection at pos.
func Caret(pos int) Selection { return Selection{Anchor: pos, Head: pos} }

func (s Selection) From() int   { return min(s.Anchor, s.Head) }
func (s Selection) To() int     { return max(s.Anchor, s.Head) }
func (s Selection) Empty() bool { return s.Anchor == s.Head }

// Map maps both endpoints through m.
func (s Selection) Map(m transform.Mappable) Selection {
	return Selection{Anchor: m.Map(s.Anchor, 1), Head: m.Map(s.Head, 1)}
}

func (s Selection) String() string {
	if s.Empty() {
		return fmt.Sprintf("caret(%d)", s.Head)
	}
	return fmt.Sprintf("sel(%d,%d)", s.Anchor, s.Head)
}

type textRange struct{ start, end int }

func textblocks(doc *model.Node) []textRange {
	var out []textRange
	doc.Descendants(func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if n.IsTextblock() {
			out = append(out, textRange{pos + 1, pos + n.NodeSize() - 1})
			return false
		}
		return !n.IsLeaf()
	})
	return out
}

// NearestTextPos returns the text position closest to pos: pos itself when
// it is inside a textblock, otherwise the first textblock start after it
// (bias >= 0) or the last textblock end before it (bias < 0). When nothing
// lies in the preferred direction the other direction is used.
func NearestTextPos(doc *model.Node, pos, bias int) (int, bool) {
	blocks := textblocks(doc)
	if len(blocks) == 0 {
		return 0, false
	}
	pos = max(0, min(pos, doc.Content().Size()))
	fwd, back := -1, -1
	for _, b := range blocks {
		if pos >= b.start && pos <= b.end {
			return pos, true
		}
		if b.start > pos && fwd < 0 {
			fwd = b.start
		}
		if b.end < pos {
			back = b.end
		}
	}
	if bias < 0 {
		if back >= 0 {
			return back, true
		}
		return fwd, true
	}
	if fwd >= 0 {
		return fwd, true
	}
	return back, true
}

// Normalize moves both endpoints of sel into textblocks.
func Normalize(doc *model.Node, sel Selection) Selection {
	bias := 1
	if sel.Head < sel.Anchor {
		bias = -1
	}
	anchor, ok := NearestTextPos(doc, sel.Anchor, bias)
	if !ok {
		return Caret(0)
	}
	head, _ := NearestTextPos(doc, sel.Head, -bias)
	if sel.Empty() {
		head = anchor
	}
	return Selection{Anchor: anchor, Head: head}
}

// AtStart returns a caret at the first text position of doc.
func AtStart(doc *model.Node) Selection {
	pos, _ := NearestTextPos(doc, 0, 1)
	return Caret(pos)
}

// AtEnd returns a caret at the last text position of doc.
func AtEnd(doc *model.Node) Selection {
	pos, _ := NearestTextPos(doc, doc.Content().Size(), -1)
	return Caret(pos)
}

// All selects from the first to the last text position.
func All(doc *model.Node) Selection {
	return Selection{Anchor: AtStart(doc).Head, Head: AtEnd(doc).Head}
}
