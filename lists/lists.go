// Package lists implements flat, level-indented list blocks.
//
// Bullet, ordered and task lists are textblocks carrying a level in
// [0, MaxLevel]; nesting is expressed by level rather than by tree depth.
// Ordered lists may carry an explicit start number, task lists a checked
// flag.
package lists

import (
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/transform"
)

// Node type names.
const (
	BulletList  = "bullet_list"
	OrderedList = "ordered_list"
	TaskList    = "task_list"
)

// Group is the schema group every list node type belongs to.
const Group = "list"

// MaxLevel is the deepest indentation level.
const MaxLevel = 8

// NodeSpecs returns the list node specs for inclusion in a schema.
func NodeSpecs() []model.NodeSpec {
	level := model.AttributeSpec{Default: 0}
	return []model.NodeSpec{
		{
			Name:    BulletList,
			Content: "inline*",
			Group:   "block " + Group,
			Attrs:   map[string]model.AttributeSpec{"level": level},
		},
		{
			Name:    OrderedList,
			Content: "inline*",
			Group:   "block " + Group,
			// A nil start continues the numbering of the preceding items.
			Attrs: map[string]model.AttributeSpec{"level": level, "start": {}},
		},
		{
			Name:    TaskList,
			Content: "inline*",
			Group:   "block " + Group,
			Attrs:   map[string]model.AttributeSpec{"level": level, "checked": {Default: false}},
		},
	}
}

// IsList reports whether t is a list node type.
func IsList(t *model.NodeType) bool { return t.InGroup(Group) }

// Level returns the clamped level of a list node.
func Level(n *model.Node) int { return clamp(n.Attrs().Int("level")) }

func clamp(level int) int { return max(0, min(level, MaxLevel)) }

func paragraphType(s *model.Schema) *model.NodeType {
	if t := s.Node("paragraph"); t != nil {
		return t
	}
	for _, t := range s.NodeTypes() {
		if t.IsTextblock() && !t.IsCode() && !IsList(t) {
			return t
		}
	}
	return nil
}

// listAt returns the list node holding the selection start and its
// position.
func listAt(s *state.State) (*model.Node, int, bool) {
	rp, err := s.Doc.Resolve(s.Selection.From())
	if err != nil || rp.Depth == 0 {
		return nil, 0, false
	}
	n := rp.Parent()
	if !IsList(n.Type()) {
		return nil, 0, false
	}
	return n, rp.Before(rp.Depth), true
}

func commit(tr *state.Transaction, dispatch state.Dispatch) bool {
	if tr.Err() != nil {
		return false
	}
	if dispatch != nil {
		dispatch(tr)
	}
	return true
}

// Split handles Enter in a list node. An empty item is outdented, or
// turned into a paragraph at level 0. Elsewhere the item is split into two
// siblings of the same type; an ordered list's start is not copied.
func Split(s *state.State, dispatch state.Dispatch) bool {
	n, pos, ok := listAt(s)
	if !ok {
		return false
	}
	if n.Content().Size() == 0 {
		tr := s.Tr()
		if level := Level(n); level > 0 {
			tr.SetNodeMarkup(pos, nil, n.Attrs().With("level", level-1))
		} else {
			p := paragraphType(s.Schema())
			if p == nil {
				return false
			}
			tr.SetNodeMarkup(pos, p, nil)
		}
		return commit(tr, dispatch)
	}
	tr := s.Tr().DeleteSelection()
	at := tr.Selection().Head
	var types []transform.NodeTypeAttrs
	if n.Type().Name == OrderedList {
		types = []transform.NodeTypeAttrs{{Type: n.Type(), Attrs: n.Attrs().With("start", nil)}}
	}
	if !transform.CanSplit(tr.Doc, at, 1, types) {
		return false
	}
	tr.Split(at, 1, types)
	return commit(tr, dispatch)
}

func adjustLevel(delta int) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		from, to := s.Selection.From(), s.Selection.To()
		type target struct {
			pos  int
			node *model.Node
		}
		var targets []target
		s.Doc.NodesBetween(from, max(to, from+1), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
			if IsList(n.Type()) {
				targets = append(targets, target{pos, n})
				return false
			}
			return !n.IsTextblock()
		})
		if len(targets) == 0 {
			return false
		}
		tr := s.Tr()
		for _, t := range targets {
			attrs := t.node.Attrs().With("level", clamp(Level(t.node)+delta))
			if t.node.Type().Name == OrderedList {
				if delta > 0 {
					attrs = attrs.With("start", 1)
				} else {
					attrs = attrs.With("start", nil)
				}
			}
			tr.SetNodeMarkup(t.pos, nil, attrs)
		}
		return commit(tr, dispatch)
	}
}

// Indent increases the level of every list node in the selection. Ordered
// lists restart at 1.
func Indent() state.Command { return adjustLevel(1) }

// Outdent decreases the level of every list node in the selection. Ordered
// lists drop their start.
func Outdent() state.Command { return adjustLevel(-1) }

// ToggleTaskChecked sets every task item in the selection to the negation
// of the task item at the selection start.
func ToggleTaskChecked() state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		src, _, ok := listAt(s)
		if !ok || src.Type().Name != TaskList {
			return false
		}
		checked := !src.Attrs().Bool("checked")
		from, to := s.Selection.From(), s.Selection.To()
		tr := s.Tr()
		s.Doc.NodesBetween(from, max(to, from+1), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
			if n.Type().Name == TaskList {
				tr.SetNodeMarkup(pos, nil, n.Attrs().With("checked", checked))
				return false
			}
			return !n.IsTextblock()
		})
		return commit(tr, dispatch)
	}
}

// RemoveList converts every empty list node in the selection to a paragraph.
func RemoveList() state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		p := paragraphType(s.Schema())
		if p == nil {
			return false
		}
		from, to := s.Selection.From(), s.Selection.To()
		tr := s.Tr()
		s.Doc.NodesBetween(from, max(to, from+1), func(n *model.Node, pos int, _ *model.Node, _ int) bool {
			if IsList(n.Type()) {
				if n.Content().Size() == 0 {
					tr.SetNodeMarkup(pos, p, nil)
				}
				return false
			}
			return !n.IsTextblock()
		})
		if !tr.DocChanged() {
			return false
		}
		return commit(tr, dispatch)
	}
}
