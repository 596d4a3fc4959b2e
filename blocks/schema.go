// Package blocks assembles the rich-text editor: its schema, the
// markdown-style input rules, the default key map and the plugin list a
// host mounts.
package blocks

import (
	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/model"
)

// Node type names.
const (
	Doc            = "doc"
	Paragraph      = "paragraph"
	Heading        = "heading"
	CodeBlock      = "code_block"
	Blockquote     = "blockquote"
	HorizontalRule = "horizontal_rule"
	Text           = "text"
)

// Mark type names.
const (
	Bold      = "bold"
	Italic    = "italic"
	Strike    = "strike"
	Code      = "code"
	Link      = "link"
	Color     = "color"
	Highlight = "highlight"
)

// MaxHeadingLevel is the deepest heading the input rules create.
const MaxHeadingLevel = 3

// ColorPalette maps palette names to text colors.
var ColorPalette = map[string]string{
	"red":    "#EA2027",
	"orange": "#e58e26",
	"yellow": "#FFC312",
	"green":  "#009432",
	"blue":   "#0652DD",
	"purple": "#5758BB",
	"pink":   "#D980FA",
}

// HighlightPalette maps palette names to background colors.
var HighlightPalette = map[string]string{
	"red":    "rgb(251, 228, 228)",
	"orange": "rgb(250, 235, 221)",
	"yellow": "rgb(251, 243, 219)",
	"green":  "rgb(221, 237, 234)",
	"blue":   "rgb(221, 235, 241)",
	"purple": "rgb(234, 228, 242)",
	"pink":   "rgb(244, 223, 235)",
}

// NodeSpecs returns the editor's node specs, lists included.
func NodeSpecs() []model.NodeSpec {
	specs := []model.NodeSpec{
		{Name: Doc, Content: "block+"},
		{Name: Paragraph, Content: "inline*", Group: "block"},
		{
			Name:    Heading,
			Content: "inline*",
			Group:   "block",
			Attrs:   map[string]model.AttributeSpec{"level": {Default: 1}},
		},
		{Name: CodeBlock, Content: "text*", Group: "block", Marks: model.NoMarks, Code: true},
		{Name: Blockquote, Content: "inline*", Group: "block"},
		{Name: HorizontalRule, Group: "block"},
	}
	specs = append(specs, lists.NodeSpecs()...)
	return append(specs, model.NodeSpec{Name: Text, Group: "inline"})
}

// MarkSpecs returns the editor's mark specs. Link is not continued when
// typing at its end.
func MarkSpecs() []model.MarkSpec {
	color := map[string]model.AttributeSpec{"color": {Required: true}}
	return []model.MarkSpec{
		{Name: Bold},
		{Name: Italic},
		{Name: Strike},
		{Name: Code},
		{Name: Link, Attrs: map[string]model.AttributeSpec{"href": {Required: true}}, NonInclusive: true},
		{Name: Color, Attrs: color},
		{Name: Highlight, Attrs: color},
	}
}

// NewSchema builds the editor schema.
func NewSchema() (*model.Schema, error) {
	return model.NewSchema(NodeSpecs(), MarkSpecs())
}

// Schema is the shared editor schema.
var Schema = mustSchema()

func mustSchema() *model.Schema {
	s, err := NewSchema()
	if err != nil {
		panic(err)
	}
	return s
}
