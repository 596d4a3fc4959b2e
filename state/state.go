// Package state holds the editor state: document, selection, stored marks
// and plugin fields. States are immutable; Apply derives the next one from a
// Transaction.
package state

import (
	"errors"
	"fmt"

	"github.com/iw2rmb/quire/model"
)

// ErrMismatchedTransaction is returned when a transaction is applied to a
// state other than the one it was started from.
var ErrMismatchedTransaction = errors.New("transaction applied to a different state")

// Config describes a new state.
type Config struct {
	Schema *model.Schema
	// Doc defaults to the schema's empty document.
	Doc *model.Node
	// Selection defaults to a caret at the start of Doc.
	Selection   *Selection
	StoredMarks []model.Mark
	Plugins     []*Plugin
}

// State is an immutable editor state.
type State struct {
	Doc         *model.Node
	Selection   Selection
	StoredMarks []model.Mark

	schema  *model.Schema
	plugins []*Plugin
	fields  map[*PluginKey]any
}

// New builds a state and initializes every plugin field in order.
func New(cfg Config) (*State, error) {
	schema := cfg.Schema
	if schema == nil && cfg.Doc != nil {
		schema = cfg.Doc.Type().Schema
	}
	if schema == nil {
		return nil, fmt.Errorf("state: schema or doc required")
	}
	doc := cfg.Doc
	if doc == nil {
		var err error
		if doc, err = schema.EmptyDoc(); err != nil {
			return nil, fmt.Errorf("state: %w", err)
		}
	}
	if doc.Type() != schema.Top {
		return nil, fmt.Errorf("state: document root is %s, want %s", doc.Type(), schema.Top)
	}
	if err := doc.Check(); err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}
	seen := map[*PluginKey]bool{}
	for _, p := range cfg.Plugins {
		if p.State != nil && p.Key == nil {
			return nil, fmt.Errorf("state: plugin with state field needs a key")
		}
		if p.Key != nil {
			if seen[p.Key] {
				return nil, fmt.Errorf("state: duplicate plugin key %s", p.Key)
			}
			seen[p.Key] = true
		}
	}
	s := &State{
		Doc:         doc,
		StoredMarks: cfg.StoredMarks,
		schema:      schema,
		plugins:     append([]*Plugin(nil), cfg.Plugins...),
		fields:      make(map[*PluginKey]any, len(cfg.Plugins)),
	}
	if cfg.Selection != nil {
		s.Selection = Normalize(doc, *cfg.Selection)
	} else {
		s.Selection = AtStart(doc)
	}
	for _, p := range s.plugins {
		if p.State != nil && p.State.Init != nil {
			s.fields[p.Key] = p.State.Init(s)
		}
	}
	return s, nil
}

func (s *State) Schema() *model.Schema { return s.schema }

// Plugins returns the plugins in registration order.
func (s *State) Plugins() []*Plugin { return append([]*Plugin(nil), s.plugins...) }

// Tr starts a transaction against s.
func (s *State) Tr() *Transaction { return newTransaction(s) }

// Apply commits tr. A failed transaction is rejected and s is unchanged.
// The selection is mapped through the transaction, moved into a textblock
// if necessary, and every plugin field is updated in registration order.
func (s *State) Apply(tr *Transaction) (*State, error) {
	if tr.before != s {
		return s, ErrMismatchedTransaction
	}
	if err := tr.Err(); err != nil {
		return s, fmt.Errorf("apply transaction: %w", err)
	}
	if tr.Doc.Type() != s.schema.Top {
		return s, fmt.Errorf("apply transaction: document root is %s", tr.Doc.Type())
	}
	ns := &State{
		Doc:     tr.Doc,
		schema:  s.schema,
		plugins: s.plugins,
		fields:  make(map[*PluginKey]any, len(s.fields)),
	}
	ns.Selection = Normalize(tr.Doc, tr.Selection())
	if ns.Selection.Empty() {
		ns.StoredMarks = tr.StoredMarks()
	}
	for _, p := range s.plugins {
		if p.Key == nil || p.State == nil {
			continue
		}
		value := s.fields[p.Key]
		if p.State.Apply != nil {
			value = p.State.Apply(tr, value, s, ns)
		}
		ns.fields[p.Key] = value
	}
	return ns, nil
}

// Reconfigure returns a state with the same document and selection but a
// new plugin list. Fields of plugins present in both are kept.
func (s *State) Reconfigure(plugins []*Plugin) (*State, error) {
	ns, err := New(Config{Schema: s.schema, Doc: s.Doc, Selection: &s.Selection, StoredMarks: s.StoredMarks})
	if err != nil {
		return nil, err
	}
	ns.plugins = append([]*Plugin(nil), plugins...)
	for _, p := range ns.plugins {
		if p.Key == nil || p.State == nil {
			continue
		}
		if v, ok := s.fields[p.Key]; ok {
			ns.fields[p.Key] = v
		} else if p.State.Init != nil {
			ns.fields[p.Key] = p.State.Init(ns)
		}
	}
	return ns, nil
}
