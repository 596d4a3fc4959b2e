// Package view owns the live editor state. It serializes every
// transaction through one lock, routes keys and typed text to plugins in
// registration order, keeps node views in step with the document and
// collects decorations for rendering.
//
// A View implements state.Host, so plugins and node views dispatch through
// it from any goroutine.
package view

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iw2rmb/quire/commands"
	"github.com/iw2rmb/quire/decoration"
	"github.com/iw2rmb/quire/internal/logging"
	"github.com/iw2rmb/quire/state"
)

// ErrDestroyed is returned by Dispatch after Destroy.
var ErrDestroyed = errors.New("view: destroyed")

// Options configures a View.
type Options struct {
	State *state.State
	// OnChange runs after every committed transaction, outside the lock.
	OnChange func(prev, next *state.State)
	Logger   *slog.Logger
}

// View is the dispatch loop around one state.
type View struct {
	log      *slog.Logger
	onChange func(prev, next *state.State)

	mu        sync.Mutex
	st        *state.State
	destroyed bool

	plugins []pluginView
	nodes   *nodeViews
}

type pluginView struct {
	plugin *state.Plugin
	view   state.PluginView
}

// commit is a state change waiting to be announced.
type commit struct {
	prev, next *state.State
}

// New creates a view over opts.State and mounts every plugin view and node
// view.
func New(opts Options) (*View, error) {
	if opts.State == nil {
		return nil, fmt.Errorf("view: state required")
	}
	v := &View{
		log:      logging.OrNop(opts.Logger),
		onChange: opts.OnChange,
		st:       opts.State,
	}
	v.nodes = newNodeViews(v)
	v.mu.Lock()
	v.nodes.sync(v.st, nil)
	v.mu.Unlock()
	// Plugin views may dispatch while mounting.
	for _, p := range opts.State.Plugins() {
		if p.View == nil {
			continue
		}
		pv := p.View(v)
		if pv == nil {
			continue
		}
		v.mu.Lock()
		v.plugins = append(v.plugins, pluginView{plugin: p, view: pv})
		v.mu.Unlock()
	}
	return v, nil
}

// State returns the current state.
func (v *View) State() *state.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.st
}

// Dispatch commits tr. A transaction built against an older state fails
// with state.ErrMismatchedTransaction.
func (v *View) Dispatch(tr *state.Transaction) error {
	return v.Update(func(*state.State) *state.Transaction { return tr })
}

// Update builds a transaction against the current state and commits it
// without letting another dispatch in between.
func (v *View) Update(build func(s *state.State) *state.Transaction) error {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return ErrDestroyed
	}
	c, err := v.apply(build(v.st))
	v.mu.Unlock()
	if err != nil {
		return err
	}
	v.announce([]commit{c})
	return nil
}

// apply commits tr. v.mu must be held.
func (v *View) apply(tr *state.Transaction) (commit, error) {
	if tr == nil {
		return commit{}, fmt.Errorf("view: nil transaction")
	}
	prev := v.st
	next, err := prev.Apply(tr)
	if err != nil {
		return commit{}, err
	}
	v.st = next
	if tr.DocChanged() {
		v.nodes.sync(next, tr.Mapping)
	}
	return commit{prev: prev, next: next}, nil
}

// run calls fn with the current state and a dispatch that commits under
// the held lock. The commits are announced after the lock is released.
func (v *View) run(fn func(s *state.State, dispatch state.Dispatch) bool) bool {
	var commits []commit
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return false
	}
	dispatch := func(tr *state.Transaction) {
		c, err := v.apply(tr)
		if err != nil {
			v.log.Debug("transaction rejected", "error", err)
			return
		}
		commits = append(commits, c)
	}
	handled := fn(v.st, dispatch)
	v.mu.Unlock()
	v.announce(commits)
	return handled
}

func (v *View) announce(commits []commit) {
	if len(commits) == 0 {
		return
	}
	v.mu.Lock()
	views := append([]pluginView(nil), v.plugins...)
	v.mu.Unlock()
	for _, c := range commits {
		for _, pv := range views {
			pv.view.Update(c.prev)
		}
		if v.onChange != nil {
			v.onChange(c.prev, c.next)
		}
	}
}

// HandleKey offers key to each plugin's key handler in order. It reports
// whether a handler took it.
func (v *View) HandleKey(key string) bool {
	return v.run(func(s *state.State, dispatch state.Dispatch) bool {
		for _, p := range s.Plugins() {
			if h := p.Props.HandleKey; h != nil && h(s, dispatch, key) {
				return true
			}
		}
		return false
	})
}

// HandleTextInput types text over the selection. Plugin text handlers,
// input rules among them, may take the input first; otherwise the text is
// inserted.
func (v *View) HandleTextInput(text string) bool {
	if text == "" {
		return false
	}
	return v.run(func(s *state.State, dispatch state.Dispatch) bool {
		from, to := s.Selection.From(), s.Selection.To()
		for _, p := range s.Plugins() {
			if h := p.Props.HandleTextInput; h != nil && h(s, dispatch, from, to, text) {
				return true
			}
		}
		return commands.InsertText(text)(s, dispatch)
	})
}

// Exec runs cmd against the current state.
func (v *View) Exec(cmd state.Command) bool {
	return v.run(func(s *state.State, dispatch state.Dispatch) bool { return cmd(s, dispatch) })
}

// CanExec reports whether cmd applies, without side effects.
func (v *View) CanExec(cmd state.Command) bool {
	return cmd(v.State(), nil)
}

// HandleNodeEvent offers ev to the node view of the node starting at pos.
// It reports whether the view consumed the event.
func (v *View) HandleNodeEvent(pos int, ev state.NodeEvent) bool {
	v.mu.Lock()
	nv := v.nodes.at(pos)
	v.mu.Unlock()
	if nv == nil {
		return false
	}
	// Node views dispatch through the view.
	return nv.StopEvent(ev)
}

// NodeViewAt returns the node view mounted for the node starting at pos.
func (v *View) NodeViewAt(pos int) (state.NodeView, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	nv := v.nodes.at(pos)
	return nv, nv != nil
}

// NodeViewID returns the identity of the node view mounted at pos. A view
// that survives an edit keeps its id; a recreated one gets a new id.
func (v *View) NodeViewID(pos int) (uint64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	id, ok := v.nodes.ids()[pos]
	return id, ok
}

// Decorations merges the decorations of every plugin for the current
// state.
func (v *View) Decorations() *decoration.Set { return Decorations(v.State()) }

// Decorations merges the decorations of every plugin of s.
func Decorations(s *state.State) *decoration.Set {
	var all []decoration.Decoration
	for _, p := range s.Plugins() {
		if f := p.Props.Decorations; f != nil {
			if set := f(s); set != nil {
				all = append(all, set.All()...)
			}
		}
	}
	if len(all) == 0 {
		return decoration.Empty
	}
	return decoration.NewSet(all...)
}

// Destroy tears down plugin views and node views. Later dispatches fail
// with ErrDestroyed.
func (v *View) Destroy() {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return
	}
	v.destroyed = true
	views := v.plugins
	v.plugins = nil
	v.nodes.destroyAll()
	v.mu.Unlock()
	for _, pv := range views {
		pv.view.Destroy()
	}
}
