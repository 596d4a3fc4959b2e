package model

import (
	"fmt"
	"strings"
)

// Marks values with special meaning in NodeSpec.Marks.
const (
	// AllMarks allows every mark type.
	AllMarks = "_"
	// NoMarks allows none.
	NoMarks = "none"
)

// NodeSpec declares a node type.
type NodeSpec struct {
	Name string
	// Content is a content expression such as "block+" or "text*". Empty
	// means leaf.
	Content string
	// Group is a space-separated list of group names.
	Group  string
	Inline bool
	Attrs  map[string]AttributeSpec
	// Marks is a space-separated list of mark type names, AllMarks or
	// NoMarks. Empty allows every mark for nodes with inline content and
	// none otherwise.
	Marks string
	// Code marks code textblocks; input rules do not fire inside them.
	Code bool
}

// MarkSpec declares a mark type.
type MarkSpec struct {
	Name  string
	Attrs map[string]AttributeSpec
	// NonInclusive marks are not continued when typing at their end.
	NonInclusive bool
}

// Schema is an immutable set of node and mark types.
type Schema struct {
	nodes     []*NodeType
	marks     []*MarkType
	nodeByKey map[string]*NodeType
	markByKey map[string]*MarkType
	groups    map[string][]*NodeType

	Top  *NodeType
	Text *NodeType
}

// NodeType is a node type bound to its schema.
type NodeType struct {
	Name   string
	Schema *Schema
	spec   NodeSpec
	index  int
	groups []string

	content  *contentExpr
	allMarks bool
	marks    map[*MarkType]bool
}

// MarkType is a mark type bound to its schema.
type MarkType struct {
	Name   string
	Schema *Schema
	spec   MarkSpec
	rank   int
}

// NewSchema builds a schema. The first node spec is the top-level type; a
// node named "text" is required and is the inline text type.
func NewSchema(nodes []NodeSpec, marks []MarkSpec) (*Schema, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("schema: no node types")
	}
	s := &Schema{
		nodeByKey: make(map[string]*NodeType, len(nodes)),
		markByKey: make(map[string]*MarkType, len(marks)),
		groups:    map[string][]*NodeType{},
	}
	for i, spec := range nodes {
		if spec.Name == "" {
			return nil, fmt.Errorf("schema: node %d has no name", i)
		}
		if _, dup := s.nodeByKey[spec.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate node type %q", spec.Name)
		}
		t := &NodeType{Name: spec.Name, Schema: s, spec: spec, index: i, groups: strings.Fields(spec.Group)}
		if spec.Name == "text" {
			t.spec.Inline = true
		}
		s.nodes = append(s.nodes, t)
		s.nodeByKey[spec.Name] = t
		for _, g := range t.groups {
			s.groups[g] = append(s.groups[g], t)
		}
	}
	for i, spec := range marks {
		if spec.Name == "" {
			return nil, fmt.Errorf("schema: mark %d has no name", i)
		}
		if _, dup := s.markByKey[spec.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate mark type %q", spec.Name)
		}
		m := &MarkType{Name: spec.Name, Schema: s, spec: spec, rank: i}
		s.marks = append(s.marks, m)
		s.markByKey[spec.Name] = m
	}
	s.Top = s.nodes[0]
	s.Text = s.nodeByKey["text"]
	if s.Text == nil {
		return nil, fmt.Errorf("schema: missing text node type")
	}
	if s.Top == s.Text {
		return nil, fmt.Errorf("schema: top node cannot be text")
	}
	for _, t := range s.nodes {
		expr, err := compileContent(s, t.Name, t.spec.Content)
		if err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
		t.content = expr
		if err := t.compileMarks(); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}
	return s, nil
}

func (s *Schema) resolveName(name string) []*NodeType {
	if t, ok := s.nodeByKey[name]; ok {
		return []*NodeType{t}
	}
	return s.groups[name]
}

// Node returns the node type with name n, or nil.
func (s *Schema) Node(n string) *NodeType { return s.nodeByKey[n] }

// Mark returns the mark type with name n, or nil.
func (s *Schema) Mark(n string) *MarkType { return s.markByKey[n] }

// NodeTypes returns the node types in declaration order.
func (s *Schema) NodeTypes() []*NodeType { return append([]*NodeType(nil), s.nodes...) }

// MarkTypes returns the mark types in rank order.
func (s *Schema) MarkTypes() []*MarkType { return append([]*MarkType(nil), s.marks...) }

// TextNode creates a text node. Empty text is rejected.
func (s *Schema) TextNode(text string, marks []Mark) (*Node, error) {
	if text == "" {
		return nil, violation("text", "empty text node")
	}
	for _, m := range marks {
		if m.Type == nil || m.Type.Schema != s {
			return nil, violation("text", "mark from another schema")
		}
	}
	return newText(s.Text, text, normalizeMarks(marks)), nil
}

// EmptyDoc returns the smallest valid top-level node: an empty top node when
// its expression allows it, otherwise a top node holding one empty textblock.
func (s *Schema) EmptyDoc() (*Node, error) {
	if n, err := s.Top.Create(nil, EmptyFragment, nil); err == nil {
		return n, nil
	}
	for _, t := range s.nodes {
		if !t.IsTextblock() || !s.Top.content.allows(t) {
			continue
		}
		block, err := t.Create(nil, EmptyFragment, nil)
		if err != nil {
			continue
		}
		if doc, err := s.Top.Create(nil, NewFragment(block), nil); err == nil {
			return doc, nil
		}
	}
	return nil, violation(s.Top.Name, "no empty document satisfies the schema")
}

func (t *NodeType) compileMarks() error {
	raw := strings.TrimSpace(t.spec.Marks)
	switch raw {
	case "":
		t.allMarks = t.content.inlineContent()
		return nil
	case AllMarks:
		t.allMarks = true
		return nil
	case NoMarks:
		return nil
	}
	t.marks = map[*MarkType]bool{}
	for _, name := range strings.Fields(raw) {
		m := t.Schema.markByKey[name]
		if m == nil {
			return fmt.Errorf("node %s: unknown mark type %q", t.Name, name)
		}
		t.marks[m] = true
	}
	return nil
}

func (t *NodeType) String() string { return t.Name }

// Spec returns the declaration t was built from.
func (t *NodeType) Spec() NodeSpec { return t.spec }

func (t *NodeType) IsText() bool   { return t == t.Schema.Text }
func (t *NodeType) IsInline() bool { return t.spec.Inline }
func (t *NodeType) IsBlock() bool  { return !t.spec.Inline }
func (t *NodeType) IsLeaf() bool   { return !t.IsText() && t.content.empty() }
func (t *NodeType) IsCode() bool   { return t.spec.Code }

// IsTextblock reports whether t is a block whose content is inline.
func (t *NodeType) IsTextblock() bool { return t.IsBlock() && t.content.inlineContent() }

// InlineContent reports whether t holds inline children.
func (t *NodeType) InlineContent() bool { return t.content.inlineContent() }

// InGroup reports whether t belongs to group g.
func (t *NodeType) InGroup(g string) bool {
	for _, x := range t.groups {
		if x == g {
			return true
		}
	}
	return false
}

// AllowsMarkType reports whether children of t may carry marks of type m.
func (t *NodeType) AllowsMarkType(m *MarkType) bool {
	return t.allMarks || t.marks[m]
}

// AllowsMarks reports whether every mark in set is allowed.
func (t *NodeType) AllowsMarks(set []Mark) bool {
	for _, m := range set {
		if !t.AllowsMarkType(m.Type) {
			return false
		}
	}
	return true
}

// AllowedMarks filters set down to the marks t allows.
func (t *NodeType) AllowedMarks(set []Mark) []Mark {
	if t.AllowsMarks(set) {
		return set
	}
	var out []Mark
	for _, m := range set {
		if t.AllowsMarkType(m.Type) {
			out = append(out, m)
		}
	}
	return out
}

// ValidContent reports whether f matches t's content expression and every
// child's marks are allowed.
func (t *NodeType) ValidContent(f Fragment) bool { return t.CheckContent(f) == nil }

// CheckContent is ValidContent returning the reason as a *SchemaViolation.
func (t *NodeType) CheckContent(f Fragment) error {
	if t.IsText() {
		return violation(t.Name, "text nodes have no content")
	}
	if !t.content.matches(f) {
		return violation(t.Name, "invalid content %s for expression %q", f.typeList(), t.spec.Content)
	}
	for _, n := range f.nodes {
		if !t.AllowsMarks(n.marks) {
			return violation(t.Name, "marks %s not allowed inside", marksString(n.marks))
		}
	}
	return nil
}

// ContentAllows reports whether child may appear in t's content at all.
func (t *NodeType) ContentAllows(child *NodeType) bool { return t.content.allows(child) }

// CompatibleContent reports whether content of t can be joined with content
// of o.
func (t *NodeType) CompatibleContent(o *NodeType) bool {
	return t == o || t.spec.Content == o.spec.Content
}

// ComputeAttrs fills defaults and validates attrs against the type.
func (t *NodeType) ComputeAttrs(attrs Attrs) (Attrs, error) {
	return computeAttrs(t.Name, t.spec.Attrs, attrs)
}

// HasAttr reports whether t declares attribute name.
func (t *NodeType) HasAttr(name string) bool {
	_, ok := t.spec.Attrs[name]
	return ok
}

// Create builds a validated node of type t.
func (t *NodeType) Create(attrs Attrs, content Fragment, marks []Mark) (*Node, error) {
	if t.IsText() {
		return nil, violation(t.Name, "use Schema.TextNode for text")
	}
	computed, err := t.ComputeAttrs(attrs)
	if err != nil {
		return nil, err
	}
	if err := t.CheckContent(content); err != nil {
		return nil, err
	}
	return &Node{typ: t, attrs: computed, content: content, marks: normalizeMarks(marks)}, nil
}

func (m *MarkType) String() string { return m.Name }

// Spec returns the declaration m was built from.
func (m *MarkType) Spec() MarkSpec { return m.spec }

// Inclusive reports whether typing at the end of the mark continues it.
func (m *MarkType) Inclusive() bool { return !m.spec.NonInclusive }

// Create builds a mark of type m.
func (m *MarkType) Create(attrs Attrs) (Mark, error) {
	computed, err := computeAttrs(m.Name, m.spec.Attrs, attrs)
	if err != nil {
		return Mark{}, err
	}
	return Mark{Type: m, Attrs: computed}, nil
}

// IsInSet returns the mark of type m in set, if any.
func (m *MarkType) IsInSet(set []Mark) (Mark, bool) {
	for _, x := range set {
		if x.Type == m {
			return x, true
		}
	}
	return Mark{}, false
}

// RemoveFromSet drops marks of type m from set.
func (m *MarkType) RemoveFromSet(set []Mark) []Mark {
	var out []Mark
	for _, x := range set {
		if x.Type != m {
			out = append(out, x)
		}
	}
	return out
}
