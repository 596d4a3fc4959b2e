// Package history records undo groups of inverse steps as a state plugin.
//
// Undo and redo are ordinary commands: they build a transaction from the
// stored inverse steps and dispatch it like any other edit. Transactions
// that opt out of history are mapped into the stored groups so the groups
// stay valid over remote or meta changes.
package history

import (
	"time"

	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/transform"
)

const (
	DefaultDepth      = 100
	DefaultGroupDelay = 500 * time.Millisecond
)

var (
	key      = state.NewPluginKey("history")
	closeKey = state.NewPluginKey("history.close")
	// OriginKey is the meta key for a transaction's origin. Only
	// transactions with the same origin coalesce into one group.
	OriginKey = state.NewPluginKey("history.origin")
)

// Options configures the history plugin.
type Options struct {
	// Depth is the maximum number of undo groups. Zero means DefaultDepth.
	Depth int
	// GroupDelay is the longest pause between edits of one group. Zero
	// means DefaultGroupDelay.
	GroupDelay time.Duration
}

type group struct {
	steps []transform.Step
	// sel is restored when the group is applied.
	sel state.Selection
}

type historyState struct {
	done   []group
	undone []group

	prevTime   time.Time
	prevOrigin any
	prevRanges []int
	closed     bool
}

type action struct{ redo bool }

// New returns the history plugin.
func New(opts Options) *state.Plugin {
	if opts.Depth <= 0 {
		opts.Depth = DefaultDepth
	}
	if opts.GroupDelay <= 0 {
		opts.GroupDelay = DefaultGroupDelay
	}
	return &state.Plugin{
		Key: key,
		State: &state.StateField{
			Init: func(*state.State) any { return &historyState{closed: true} },
			Apply: func(tr *state.Transaction, v any, old, _ *state.State) any {
				return v.(*historyState).apply(tr, old, opts)
			},
		},
	}
}

// CloseGroup makes tr start a new undo group.
func CloseGroup(tr *state.Transaction) *state.Transaction {
	return tr.SetMeta(closeKey, true)
}

func get(s *state.State) *historyState {
	h, _ := key.State(s).(*historyState)
	return h
}

// UndoDepth returns the number of undoable groups.
func UndoDepth(s *state.State) int {
	if h := get(s); h != nil {
		return len(h.done)
	}
	return 0
}

// RedoDepth returns the number of redoable groups.
func RedoDepth(s *state.State) int {
	if h := get(s); h != nil {
		return len(h.undone)
	}
	return 0
}

func (h *historyState) apply(tr *state.Transaction, old *state.State, opts Options) *historyState {
	if a, ok := tr.Meta(key).(action); ok {
		return h.applyAction(tr, old, a)
	}
	if tr.Meta(closeKey) == true {
		h = h.closeGroup()
	}
	if !tr.DocChanged() {
		if tr.IsSelectionOnly() {
			return h.closeGroup()
		}
		return h
	}
	if !tr.AddToHistory() {
		return h.rebase(tr.Mapping).prune(tr.Doc)
	}

	inv := invertSteps(tr)
	origin := tr.Meta(OriginKey)
	next := &historyState{
		prevTime:   tr.Time,
		prevOrigin: origin,
		prevRanges: changedRanges(tr.Mapping),
	}
	merge := !h.closed && len(h.done) > 0 &&
		tr.Time.Sub(h.prevTime) < opts.GroupDelay &&
		origin == h.prevOrigin &&
		adjacent(h.prevRanges, tr.Mapping)
	if merge {
		last := h.done[len(h.done)-1]
		steps := append(append([]transform.Step(nil), inv...), last.steps...)
		next.done = append(append([]group(nil), h.done[:len(h.done)-1]...), group{steps: steps, sel: last.sel})
		return next
	}
	next.done = append(append([]group(nil), h.done...), group{steps: inv, sel: old.Selection})
	if len(next.done) > opts.Depth {
		next.done = next.done[len(next.done)-opts.Depth:]
	}
	return next
}

func (h *historyState) closeGroup() *historyState {
	if h.closed {
		return h
	}
	c := *h
	c.closed = true
	return &c
}

func (h *historyState) applyAction(tr *state.Transaction, old *state.State, a action) *historyState {
	next := &historyState{closed: true}
	inv := group{steps: invertSteps(tr), sel: old.Selection}
	if a.redo {
		next.undone = h.undone[:len(h.undone)-1]
		next.done = append(append([]group(nil), h.done...), inv)
	} else {
		next.done = h.done[:len(h.done)-1]
		next.undone = append(append([]group(nil), h.undone...), inv)
	}
	return next
}

// invertSteps returns the steps undoing tr, in application order.
func invertSteps(tr *state.Transaction) []transform.Step {
	out := make([]transform.Step, 0, len(tr.Steps))
	for i := len(tr.Steps) - 1; i >= 0; i-- {
		if inv := tr.Steps[i].Invert(tr.Docs[i]); inv != nil {
			out = append(out, inv)
		}
	}
	return out
}

// rebase maps every stored group through an unrecorded change. Steps whose
// range was deleted are dropped; empty groups go away.
func (h *historyState) rebase(m *transform.Mapping) *historyState {
	next := &historyState{
		prevTime:   h.prevTime,
		prevOrigin: h.prevOrigin,
		closed:     h.closed,
	}
	next.done = rebaseGroups(h.done, m)
	next.undone = rebaseGroups(h.undone, m)
	for i := 0; i+1 < len(h.prevRanges); i += 2 {
		next.prevRanges = append(next.prevRanges, m.Map(h.prevRanges[i], -1), m.Map(h.prevRanges[i+1], 1))
	}
	return next
}

// prune drops a stack whose newest group no longer applies to doc. Older
// groups were recorded against the document that group would restore, so
// they go with it.
func (h *historyState) prune(doc *model.Node) *historyState {
	if n := len(h.done); n > 0 && !applies(h.done[n-1], doc) {
		h.done = nil
	}
	if n := len(h.undone); n > 0 && !applies(h.undone[n-1], doc) {
		h.undone = nil
	}
	return h
}

// replay applies every step of g to tr. tr carries an error when any step
// fails.
func replay(tr *transform.Transform, g group) *transform.Transform {
	for _, step := range g.steps {
		tr.Step(step)
	}
	return tr
}

func applies(g group, doc *model.Node) bool {
	return replay(transform.New(doc), g).Err() == nil
}

func rebaseGroups(groups []group, m *transform.Mapping) []group {
	out := make([]group, len(groups))
	cur := m
	// The newest group applies to the current document; each older group
	// applies to the document left after undoing the newer ones.
	for gi := len(groups) - 1; gi >= 0; gi-- {
		g := groups[gi]
		var steps []transform.Step
		for _, s := range g.steps {
			mapped := s.Map(cur)
			next := transform.NewMapping()
			next.AppendMap(s.GetMap().Invert())
			next.AppendMapping(cur)
			if mapped != nil {
				next.AppendMap(mapped.GetMap())
				steps = append(steps, mapped)
			}
			cur = next
		}
		out[gi] = group{steps: steps, sel: g.sel.Map(cur)}
	}
	kept := out[:0]
	for _, g := range out {
		if len(g.steps) > 0 {
			kept = append(kept, g)
		}
	}
	return kept
}

func changedRanges(m *transform.Mapping) []int {
	var out []int
	maps := m.Maps()
	for i, sm := range maps {
		rest := transform.NewMapping(maps[i+1:]...)
		sm.ForEach(func(_, _, newStart, newEnd int) {
			out = append(out, rest.Map(newStart, -1), rest.Map(newEnd, 1))
		})
	}
	return out
}

// adjacent reports whether the first change of m touches one of prev.
func adjacent(prev []int, m *transform.Mapping) bool {
	if len(prev) == 0 || m.Len() == 0 {
		return true
	}
	hit := false
	m.Maps()[0].ForEach(func(oldStart, oldEnd, _, _ int) {
		for i := 0; i+1 < len(prev); i += 2 {
			if oldStart <= prev[i+1] && oldEnd >= prev[i] {
				hit = true
			}
		}
	})
	return hit
}

// Undo reverts the newest undo group.
func Undo(s *state.State, dispatch state.Dispatch) bool {
	return histCommand(s, dispatch, false)
}

// Redo reapplies the newest undone group.
func Redo(s *state.State, dispatch state.Dispatch) bool {
	return histCommand(s, dispatch, true)
}

func histCommand(s *state.State, dispatch state.Dispatch, redo bool) bool {
	h := get(s)
	if h == nil {
		return false
	}
	stack := h.done
	if redo {
		stack = h.undone
	}
	if len(stack) == 0 {
		return false
	}
	g := stack[len(stack)-1]
	tr := s.Tr()
	// A group is applied whole or not at all.
	if replay(tr.Transform, g).Err() != nil {
		return false
	}
	if dispatch == nil {
		return true
	}
	tr.SetSelection(g.sel)
	tr.SetMeta(key, action{redo: redo})
	dispatch(tr)
	return true
}
