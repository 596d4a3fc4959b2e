package state

import (
	"github.com/iw2rmb/quire/decoration"
	"github.com/iw2rmb/quire/model"
)

// PluginKey identifies a plugin and its state field. Keys compare by
// identity.
type PluginKey struct {
	name string
}

func NewPluginKey(name string) *PluginKey { return &PluginKey{name: name} }

func (k *PluginKey) String() string { return k.name }

// Get returns the plugin registered under k in s, or nil.
func (k *PluginKey) Get(s *State) *Plugin {
	for _, p := range s.plugins {
		if p.Key == k {
			return p
		}
	}
	return nil
}

// State returns the plugin's field value in s, or nil.
func (k *PluginKey) State(s *State) any { return s.fields[k] }

// StateField is the per-plugin state slot.
type StateField struct {
	Init func(s *State) any
	// Apply computes the field's next value. old is the state the
	// transaction started from, new the state being built; fields of later
	// plugins are not yet set on new.
	Apply func(tr *Transaction, value any, old, new *State) any
}

// Plugin bundles optional behaviour. Key is required when State is set.
type Plugin struct {
	Key   *PluginKey
	State *StateField
	Props Props
	// View is called once per view the plugin is mounted in.
	View func(host Host) PluginView
}

// PluginView is a plugin's per-view lifecycle.
type PluginView interface {
	// Update is called after every committed state change.
	Update(prev *State)
	Destroy()
}

// Dispatch receives transactions built by commands.
type Dispatch func(tr *Transaction)

// Props are hooks a plugin may supply.
type Props struct {
	// HandleKey handles a key name such as "ctrl+b". Returning true stops
	// other plugins from seeing the key.
	HandleKey func(s *State, dispatch Dispatch, key string) bool
	// HandleTextInput intercepts typed text about to replace [from, to).
	HandleTextInput func(s *State, dispatch Dispatch, from, to int, text string) bool
	// Decorations returns the plugin's decorations for s.
	Decorations func(s *State) *decoration.Set
	// NodeViews maps node type names to node view factories.
	NodeViews map[string]NodeViewFactory
}

// Host is the view seen by plugins and node views.
type Host interface {
	State() *State
	Dispatch(tr *Transaction) error
}

// NodeEvent is an input event aimed at a node view.
type NodeEvent struct {
	Type   string
	Target string
}

// NodeView owns the rendering and events of one node.
type NodeView interface {
	Mount()
	// UpdateAttrs is called when the node's attributes changed in place.
	// Returning false makes the view be destroyed and recreated.
	UpdateAttrs(node *model.Node) bool
	// StopEvent reports whether the view consumed ev.
	StopEvent(ev NodeEvent) bool
	Destroy()
}

// NodeViewFactory creates a view for node. getPos returns the node's current
// start position, and false once the node is gone.
type NodeViewFactory func(node *model.Node, host Host, getPos func() (int, bool)) NodeView
