package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Node is an immutable document node.
type Node struct {
	typ     *NodeType
	attrs   Attrs
	content Fragment
	marks   []Mark
	text    string
	textLen int
}

func newText(t *NodeType, text string, marks []Mark) *Node {
	return &Node{typ: t, text: text, textLen: utf8.RuneCountInString(text), marks: marks}
}

func (n *Node) Type() *NodeType   { return n.typ }
func (n *Node) Attrs() Attrs      { return n.attrs }
func (n *Node) Attr(k string) any { return n.attrs[k] }
func (n *Node) Content() Fragment { return n.content }
func (n *Node) Marks() []Mark     { return n.marks }
func (n *Node) Text() string      { return n.text }

func (n *Node) IsText() bool      { return n.typ.IsText() }
func (n *Node) IsLeaf() bool      { return n.typ.IsLeaf() }
func (n *Node) IsInline() bool    { return n.typ.IsInline() }
func (n *Node) IsBlock() bool     { return n.typ.IsBlock() }
func (n *Node) IsTextblock() bool { return n.typ.IsTextblock() }

// NodeSize is the number of position units n occupies in its parent.
func (n *Node) NodeSize() int {
	switch {
	case n.IsText():
		return n.textLen
	case n.IsLeaf():
		return 1
	default:
		return n.content.size + 2
	}
}

func (n *Node) ChildCount() int       { return n.content.ChildCount() }
func (n *Node) Child(i int) *Node     { return n.content.Child(i) }
func (n *Node) MaybeChild(i int) *Node { return n.content.MaybeChild(i) }

// Copy returns a node with n's markup and the given content. The content is
// not validated.
func (n *Node) Copy(content Fragment) *Node {
	return &Node{typ: n.typ, attrs: n.attrs, content: content, marks: n.marks}
}

// WithMarks returns n carrying marks instead of its own.
func (n *Node) WithMarks(marks []Mark) *Node {
	if SameMarkSet(n.marks, marks) {
		return n
	}
	c := *n
	c.marks = marks
	return &c
}

func (n *Node) withText(text string) *Node {
	if text == n.text {
		return n
	}
	return newText(n.typ, text, n.marks)
}

// Cut returns the part of n between from and to, in content coordinates
// (rune offsets for text).
func (n *Node) Cut(from, to int) *Node {
	if n.IsText() {
		if from == 0 && to == n.textLen {
			return n
		}
		rs := []rune(n.text)
		return n.withText(string(rs[from:to]))
	}
	if from == 0 && to == n.content.size {
		return n
	}
	return n.Copy(n.content.Cut(from, to))
}

// Eq compares nodes structurally.
func (n *Node) Eq(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	return n.SameMarkup(o) && n.text == o.text && n.content.Eq(o.content)
}

// SameMarkup reports whether n and o share type, attrs and marks.
func (n *Node) SameMarkup(o *Node) bool {
	return n.typ == o.typ && attrsEqual(n.attrs, o.attrs) && SameMarkSet(n.marks, o.marks)
}

// NodeAt returns the node starting at content position pos, or nil.
func (n *Node) NodeAt(pos int) *Node {
	node := n
	for {
		index, offset, err := node.content.findIndex(pos, 0)
		if err != nil {
			return nil
		}
		child := node.content.MaybeChild(index)
		if child == nil {
			return nil
		}
		if offset == pos || child.IsText() {
			return child
		}
		pos -= offset + 1
		node = child
	}
}

// NodesBetween calls fn for every descendant overlapping [from, to), with
// positions relative to n's content. Returning false skips the children.
func (n *Node) NodesBetween(from, to int, fn func(node *Node, pos int, parent *Node, index int) bool) {
	n.content.NodesBetween(from, to, fn, 0, n)
}

// Descendants visits every descendant.
func (n *Node) Descendants(fn func(node *Node, pos int, parent *Node, index int) bool) {
	n.NodesBetween(0, n.content.size, fn)
}

// TextContent concatenates the text of n and its descendants.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.text
	}
	return n.content.TextContent()
}

func (n *Node) writeText(b *strings.Builder) {
	if n.IsText() {
		b.WriteString(n.text)
		return
	}
	for _, c := range n.content.nodes {
		c.writeText(b)
	}
}

// AlignedText returns the content between from and to as exactly to-from
// runes: text runes as-is, node boundaries as '\n' and leaf nodes as
// U+FFFC, so offsets into the result map back to positions by adding from.
func (n *Node) AlignedText(from, to int) string {
	from = max(0, from)
	to = min(n.content.size, to)
	if to <= from {
		return ""
	}
	out := make([]rune, 0, to-from)
	n.content.alignedText(from, to, &out)
	return string(out)
}

func (f Fragment) alignedText(from, to int, out *[]rune) {
	pos := 0
	for _, child := range f.nodes {
		if pos >= to {
			return
		}
		end := pos + child.NodeSize()
		if end > from {
			switch {
			case child.IsText():
				rs := []rune(child.text)
				*out = append(*out, rs[max(0, from-pos):min(len(rs), to-pos)]...)
			case child.IsLeaf():
				*out = append(*out, '\uFFFC')
			default:
				if pos >= from {
					*out = append(*out, '\n')
				}
				child.content.alignedText(max(0, from-pos-1), min(child.content.size, to-pos-1), out)
				if end-1 < to {
					*out = append(*out, '\n')
				}
			}
		}
		pos = end
	}
}

// Check validates n and all descendants against the schema.
func (n *Node) Check() error {
	if n.IsText() {
		if n.text == "" {
			return violation("text", "empty text node")
		}
		return nil
	}
	if _, err := computeAttrs(n.typ.Name, n.typ.spec.Attrs, n.attrs); err != nil {
		return err
	}
	if err := n.typ.CheckContent(n.content); err != nil {
		return err
	}
	for _, c := range n.content.nodes {
		if err := c.Check(); err != nil {
			return err
		}
	}
	return nil
}

// String renders n in a compact debugging form such as
// doc(paragraph("hi")).
func (n *Node) String() string {
	var b strings.Builder
	n.writeDebug(&b)
	return b.String()
}

func (n *Node) writeDebug(b *strings.Builder) {
	for _, m := range n.marks {
		b.WriteString(m.String())
		b.WriteByte('(')
	}
	if n.IsText() {
		b.WriteString(strconv.Quote(n.text))
	} else {
		b.WriteString(n.typ.Name)
		if len(n.attrs) > 0 {
			b.WriteByte('{')
			for i, k := range n.attrs.keys() {
				if i > 0 {
					b.WriteByte(',')
				}
				fmt.Fprintf(b, "%s=%s", k, attrString(n.attrs[k]))
			}
			b.WriteByte('}')
		}
		if n.content.size > 0 || len(n.content.nodes) > 0 {
			b.WriteByte('(')
			for i, c := range n.content.nodes {
				if i > 0 {
					b.WriteString(", ")
				}
				c.writeDebug(b)
			}
			b.WriteByte(')')
		}
	}
	for range n.marks {
		b.WriteByte(')')
	}
}

func attrString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprint(x)
	}
}
