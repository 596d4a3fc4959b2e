package editor

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/internal/textseg"
	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/model"
)

type cellKind uint8

const (
	cellText cellKind = iota
	// cellPrefix is a list bullet, heading marker or quote bar.
	cellPrefix
	// cellCheckbox is a task item's checkbox.
	cellCheckbox
	// cellRule draws a horizontal rule.
	cellRule
)

// cell is one grapheme cluster on screen.
type cell struct {
	text  string
	width int
	kind  cellKind
	// pos is the document position before the cluster; for prefix cells the
	// position of the block's content start.
	pos   int
	runes int
	marks []model.Mark
}

// row is one screen line of a block.
type row struct {
	cells []cell
	// block is the start position of the block the row belongs to.
	block     int
	node      *model.Node
	blockType *model.NodeType
	// start and end are the document positions at the row edges.
	start, end int
	prefixW    int
	// last is set on the final row of a block; its end is a caret stop.
	last bool
	// hardBreak is set when the row ends at a newline inside a code block.
	hardBreak bool
}

func (r row) width() int {
	w := 0
	for _, c := range r.cells {
		w += c.width
	}
	return w
}

// layout is the document arranged in rows for a given width.
type layout struct {
	doc   *model.Node
	width int
	rows  []row
}

func newLayout(doc *model.Node, width int) *layout {
	l := &layout{doc: doc, width: width}
	var numbers [lists.MaxLevel + 1]int
	doc.Content().NodesBetween(0, doc.Content().Size(), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		prefix := l.prefix(n, &numbers)
		switch {
		case n.IsLeaf():
			l.rule(n, pos)
		case n.IsTextblock():
			l.block(n, pos, prefix)
		}
		return false
	}, 0, doc)
	return l
}

// prefix returns the marker drawn before a block. numbers tracks ordered
// list numbering per level across consecutive list items.
func (l *layout) prefix(n *model.Node, numbers *[lists.MaxLevel + 1]int) []cell {
	t := n.Type()
	if !lists.IsList(t) {
		*numbers = [lists.MaxLevel + 1]int{}
		switch t.Name {
		case blocks.Heading:
			return textCells(strings.Repeat("#", max(1, n.Attrs().Int("level")))+" ", cellPrefix)
		case blocks.Blockquote:
			return textCells("│ ", cellPrefix)
		case blocks.CodeBlock:
			return textCells("  ", cellPrefix)
		}
		return nil
	}
	level := lists.Level(n)
	indent := textCells(strings.Repeat("  ", level), cellPrefix)
	for i := level + 1; i < len(numbers); i++ {
		numbers[i] = 0
	}
	switch t.Name {
	case lists.OrderedList:
		if n.Attr("start") != nil {
			numbers[level] = n.Attrs().Int("start")
		} else {
			numbers[level]++
		}
		return append(indent, textCells(strconv.Itoa(numbers[level])+". ", cellPrefix)...)
	case lists.TaskList:
		numbers[level] = 0
		box := "[ ]"
		if n.Attrs().Bool("checked") {
			box = "[x]"
		}
		return append(append(indent, textCells(box, cellCheckbox)...), textCells(" ", cellPrefix)...)
	default:
		numbers[level] = 0
		return append(indent, textCells("• ", cellPrefix)...)
	}
}

func textCells(s string, kind cellKind) []cell {
	var out []cell
	for _, g := range textseg.Split(s) {
		out = append(out, cell{text: g, width: runewidth.StringWidth(g), kind: kind})
	}
	return out
}

func (l *layout) rule(n *model.Node, pos int) {
	w := max(3, l.width)
	cells := make([]cell, w)
	for i := range cells {
		cells[i] = cell{text: "─", width: 1, kind: cellRule, pos: pos}
	}
	l.rows = append(l.rows, row{cells: cells, block: pos, node: n, blockType: n.Type(), start: pos, end: pos})
}

func (l *layout) block(n *model.Node, pos int, prefix []cell) {
	start := pos + 1
	for i := range prefix {
		prefix[i].pos = start
	}
	prefixW := 0
	for _, c := range prefix {
		prefixW += c.width
	}
	cur := row{cells: prefix, block: pos, node: n, blockType: n.Type(), start: start, prefixW: prefixW}
	curW := prefixW
	flush := func(next int) {
		cur.end = next
		l.rows = append(l.rows, cur)
		indent := make([]cell, 0, prefixW)
		for range prefixW {
			indent = append(indent, cell{text: " ", width: 1, kind: cellPrefix, pos: next})
		}
		cur = row{cells: indent, block: pos, node: n, blockType: n.Type(), start: next, prefixW: prefixW}
		curW = prefixW
	}

	at := start
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if !child.IsText() {
			at += child.NodeSize()
			continue
		}
		for _, g := range textseg.Split(child.Text()) {
			runes := utf8.RuneCountInString(g)
			if g == "\n" {
				cur.hardBreak = true
				flush(at + runes)
				at += runes
				continue
			}
			w := runewidth.StringWidth(g)
			if l.width > 0 && curW+w > l.width && curW > prefixW {
				l.wrapAt(&cur, flush, at)
				curW = cur.width()
			}
			cur.cells = append(cur.cells, cell{text: g, width: w, kind: cellText, pos: at, runes: runes, marks: child.Marks()})
			curW += w
			at += runes
		}
	}
	cur.end = at
	cur.last = true
	l.rows = append(l.rows, cur)
}

// wrapAt breaks the current row before the last word when it has one,
// otherwise before the next cluster.
func (l *layout) wrapAt(cur *row, flush func(int), next int) {
	cells := cur.cells
	cut := -1
	for i := len(cells) - 1; i > 0 && cells[i].kind == cellText; i-- {
		if cells[i-1].kind == cellText && cells[i-1].text == " " {
			cut = i
			break
		}
	}
	if cut < 0 {
		flush(next)
		return
	}
	tail := append([]cell(nil), cells[cut:]...)
	cur.cells = cells[:cut]
	flush(tail[0].pos)
	cur.cells = append(cur.cells, tail...)
}

// rowOf returns the row index showing pos. A position on a wrap boundary
// belongs to the later row.
func (l *layout) rowOf(pos int) (int, bool) {
	found := -1
	for i, r := range l.rows {
		if r.blockType != nil && r.blockType.IsLeaf() {
			continue
		}
		if pos >= r.start && (pos < r.end || (pos == r.end && r.last)) {
			return i, true
		}
		if pos == r.end && found < 0 {
			found = i
		}
	}
	return found, found >= 0
}

// coords returns the row and column of the caret at pos.
func (l *layout) coords(pos int) (int, int, bool) {
	i, ok := l.rowOf(pos)
	if !ok {
		return 0, 0, false
	}
	r := l.rows[i]
	col := 0
	for _, c := range r.cells {
		if c.kind == cellText && c.pos >= pos {
			break
		}
		col += c.width
	}
	return i, col, true
}

// posAt returns the document position closest to column x of row y.
func (l *layout) posAt(x, y int) (int, bool) {
	if len(l.rows) == 0 {
		return 0, false
	}
	y = max(0, min(y, len(l.rows)-1))
	r := l.rows[y]
	if r.blockType != nil && r.blockType.IsLeaf() {
		return r.start, false
	}
	col := 0
	for _, c := range r.cells {
		if c.kind != cellText {
			col += c.width
			continue
		}
		if x < col+(c.width+1)/2 {
			return c.pos, true
		}
		col += c.width
	}
	if r.hardBreak {
		return r.end - 1, true
	}
	return r.end, true
}

// cellAt returns the cell drawn at column x of row y.
func (l *layout) cellAt(x, y int) (cell, bool) {
	if y < 0 || y >= len(l.rows) || x < 0 {
		return cell{}, false
	}
	col := 0
	for _, c := range l.rows[y].cells {
		if x < col+c.width {
			return c, true
		}
		col += c.width
	}
	return cell{}, false
}
