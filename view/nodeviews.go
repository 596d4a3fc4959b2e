package view

import (
	"sync/atomic"

	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/transform"
)

// nodeEntry is one mounted node view. Its identity survives edits as long
// as the node's start position does; pos and alive are read by getPos from
// any goroutine.
type nodeEntry struct {
	id    uint64
	node  *model.Node
	view  state.NodeView
	pos   atomic.Int64
	alive atomic.Bool
}

func (e *nodeEntry) getPos() (int, bool) {
	return int(e.pos.Load()), e.alive.Load()
}

// nodeViews keeps one node view per node whose type has a factory. All
// methods run with the owning View's mutex held.
type nodeViews struct {
	host    state.Host
	entries []*nodeEntry
	nextID  uint64
}

func newNodeViews(host state.Host) *nodeViews {
	return &nodeViews{host: host}
}

func factories(s *state.State) map[string]state.NodeViewFactory {
	out := map[string]state.NodeViewFactory{}
	for _, p := range s.Plugins() {
		for name, f := range p.Props.NodeViews {
			// Earlier plugins win.
			if _, ok := out[name]; !ok && f != nil {
				out[name] = f
			}
		}
	}
	return out
}

// sync brings the mounted views in line with s.Doc. m maps positions of
// the previous document; nil means the views are built from scratch.
// A view whose node start was deleted or whose node changed type is
// destroyed; an attribute change goes through UpdateAttrs first.
func (nv *nodeViews) sync(s *state.State, m *transform.Mapping) {
	fs := factories(s)
	if len(fs) == 0 && len(nv.entries) == 0 {
		return
	}
	kept := nv.entries[:0]
	taken := map[int]bool{}
	for _, e := range nv.entries {
		pos := int(e.pos.Load())
		if m != nil {
			r := m.MapResult(pos, 1)
			if r.Deleted || r.DeletedAcross {
				nv.drop(e)
				continue
			}
			pos = r.Pos
		}
		node := s.Doc.NodeAt(pos)
		if node == nil || node.Type() != e.node.Type() || taken[pos] || fs[node.Type().Name] == nil {
			nv.drop(e)
			continue
		}
		if node != e.node && !node.Attrs().Eq(e.node.Attrs()) && !e.view.UpdateAttrs(node) {
			nv.drop(e)
			continue
		}
		e.node = node
		e.pos.Store(int64(pos))
		taken[pos] = true
		kept = append(kept, e)
	}
	nv.entries = kept

	s.Doc.Descendants(func(n *model.Node, pos int, _ *model.Node, _ int) bool {
		if f := fs[n.Type().Name]; f != nil && !taken[pos] {
			nv.mount(f, n, pos)
			taken[pos] = true
		}
		return !n.IsTextblock()
	})
	sortEntries(nv.entries)
}

func (nv *nodeViews) mount(f state.NodeViewFactory, n *model.Node, pos int) {
	nv.nextID++
	e := &nodeEntry{id: nv.nextID, node: n}
	e.pos.Store(int64(pos))
	e.alive.Store(true)
	e.view = f(n, nv.host, e.getPos)
	if e.view == nil {
		return
	}
	e.view.Mount()
	nv.entries = append(nv.entries, e)
}

func (nv *nodeViews) drop(e *nodeEntry) {
	e.alive.Store(false)
	e.view.Destroy()
}

func sortEntries(es []*nodeEntry) {
	for i := 1; i < len(es); i++ {
		for j := i; j > 0 && es[j].pos.Load() < es[j-1].pos.Load(); j-- {
			es[j], es[j-1] = es[j-1], es[j]
		}
	}
}

// at returns the view of the node starting at pos.
func (nv *nodeViews) at(pos int) state.NodeView {
	for _, e := range nv.entries {
		if int(e.pos.Load()) == pos {
			return e.view
		}
	}
	return nil
}

// ids returns the identity of every mounted view by position.
func (nv *nodeViews) ids() map[int]uint64 {
	out := make(map[int]uint64, len(nv.entries))
	for _, e := range nv.entries {
		out[int(e.pos.Load())] = e.id
	}
	return out
}

func (nv *nodeViews) destroyAll() {
	for _, e := range nv.entries {
		nv.drop(e)
	}
	nv.entries = nil
}
