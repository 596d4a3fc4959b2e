package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Portable is the serialized form of a node:
// {type, attrs, content, marks, text}.
type Portable struct {
	Type    string         `json:"type" yaml:"type"`
	Attrs   map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	Content []Portable     `json:"content,omitempty" yaml:"content,omitempty"`
	Marks   []PortableMark `json:"marks,omitempty" yaml:"marks,omitempty"`
	Text    string         `json:"text,omitempty" yaml:"text,omitempty"`
}

// PortableMark is the serialized form of a mark.
type PortableMark struct {
	Type  string         `json:"type" yaml:"type"`
	Attrs map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// ToPortable converts n into its portable tree.
func ToPortable(n *Node) Portable {
	p := Portable{Type: n.typ.Name}
	if len(n.attrs) > 0 {
		p.Attrs = map[string]any(n.attrs.Clone())
	}
	for _, m := range n.marks {
		pm := PortableMark{Type: m.Type.Name}
		if len(m.Attrs) > 0 {
			pm.Attrs = map[string]any(m.Attrs.Clone())
		}
		p.Marks = append(p.Marks, pm)
	}
	if n.IsText() {
		p.Text = n.text
		return p
	}
	for _, c := range n.content.nodes {
		p.Content = append(p.Content, ToPortable(c))
	}
	return p
}

// FromPortable rebuilds and validates a node tree. Unknown node or mark
// types are schema violations.
func FromPortable(s *Schema, p Portable) (*Node, error) {
	marks := make([]Mark, 0, len(p.Marks))
	for _, pm := range p.Marks {
		mt := s.Mark(pm.Type)
		if mt == nil {
			return nil, violation(pm.Type, "unknown mark type")
		}
		m, err := mt.Create(Attrs(pm.Attrs))
		if err != nil {
			return nil, err
		}
		marks = append(marks, m)
	}
	t := s.Node(p.Type)
	if t == nil {
		return nil, violation(p.Type, "unknown node type")
	}
	if t.IsText() {
		if len(p.Content) > 0 || len(p.Attrs) > 0 {
			return nil, violation("text", "text nodes carry neither attrs nor content")
		}
		return s.TextNode(p.Text, marks)
	}
	if p.Text != "" {
		return nil, violation(p.Type, "non-text node carries text")
	}
	children := make([]*Node, 0, len(p.Content))
	for _, pc := range p.Content {
		c, err := FromPortable(s, pc)
		if err != nil {
			return nil, err
		}
		children = append(children, c)
	}
	return t.Create(Attrs(p.Attrs), NewFragment(children...), marks)
}

// MarshalJSON encodes n as its portable tree.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(ToPortable(n))
}

// ParseJSON decodes a portable JSON document and checks that it is rooted
// at the schema's top node type.
func ParseJSON(s *Schema, data []byte) (*Node, error) {
	var p Portable
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	n, err := FromPortable(s, p)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if n.typ != s.Top {
		return nil, fmt.Errorf("parse document: %w", violation(n.typ.Name, "document root must be %s", s.Top.Name))
	}
	return n, nil
}

// LoadOrEmpty parses data as a document and falls back to the schema's
// empty document when data is absent, malformed or invalid. The reason for
// a fallback is logged at warn level.
func LoadOrEmpty(s *Schema, data []byte, logger *slog.Logger) *Node {
	if len(data) > 0 {
		doc, err := ParseJSON(s, data)
		if err == nil {
			return doc
		}
		if logger != nil {
			logger.Warn("document rejected, starting empty", "err", err, "schema_violation", errors.Is(err, ErrSchemaViolation))
		}
	} else if logger != nil {
		logger.Debug("no document, starting empty")
	}
	doc, err := s.EmptyDoc()
	if err != nil {
		// A schema without an empty document cannot host an editor.
		panic(fmt.Sprintf("model: %v", err))
	}
	return doc
}
