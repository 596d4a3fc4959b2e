// Package schematest provides a small schema and node builders for tests.
package schematest

import (
	"fmt"

	"github.com/iw2rmb/quire/model"
)

// Schema has doc, paragraph, heading(level), quote, rule and text nodes and
// bold, em and link(href) marks.
var Schema = mustSchema()

func mustSchema() *model.Schema {
	s, err := model.NewSchema([]model.NodeSpec{
		{Name: "doc", Content: "block+"},
		{Name: "paragraph", Content: "inline*", Group: "block"},
		{Name: "heading", Content: "inline*", Group: "block", Attrs: map[string]model.AttributeSpec{"level": {Default: 1}}},
		{Name: "quote", Content: "block+", Group: "block"},
		{Name: "code", Content: "text*", Group: "block", Marks: model.NoMarks, Code: true},
		{Name: "rule", Group: "block"},
		{Name: "text", Group: "inline"},
	}, []model.MarkSpec{
		{Name: "bold"},
		{Name: "em"},
		{Name: "link", Attrs: map[string]model.AttributeSpec{"href": {Required: true}}, NonInclusive: true},
	})
	if err != nil {
		panic(err)
	}
	return s
}

// Node builds a node of the named type. Strings become text nodes.
func Node(name string, attrs model.Attrs, children ...any) *model.Node {
	var nodes []*model.Node
	for _, c := range children {
		switch x := c.(type) {
		case string:
			nodes = append(nodes, Text(x))
		case *model.Node:
			nodes = append(nodes, x)
		default:
			panic(fmt.Sprintf("schematest: unexpected child %T", c))
		}
	}
	n, err := Schema.Node(name).Create(attrs, model.NewFragment(nodes...), nil)
	if err != nil {
		panic(err)
	}
	return n
}

func Doc(children ...any) *model.Node   { return Node("doc", nil, children...) }
func P(children ...any) *model.Node     { return Node("paragraph", nil, children...) }
func Quote(children ...any) *model.Node { return Node("quote", nil, children...) }
func Rule() *model.Node                 { return Node("rule", nil) }

func H(level int, children ...any) *model.Node {
	return Node("heading", model.Attrs{"level": level}, children...)
}

// Text builds a text node with marks.
func Text(s string, marks ...model.Mark) *model.Node {
	n, err := Schema.TextNode(s, marks)
	if err != nil {
		panic(err)
	}
	return n
}

// Mark builds a mark of the named type.
func Mark(name string, attrs model.Attrs) model.Mark {
	m, err := Schema.Mark(name).Create(attrs)
	if err != nil {
		panic(err)
	}
	return m
}

func Bold() model.Mark             { return Mark("bold", nil) }
func Em() model.Mark               { return Mark("em", nil) }
func Link(href string) model.Mark { return Mark("link", model.Attrs{"href": href}) }
