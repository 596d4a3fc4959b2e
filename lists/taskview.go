package lists

import (
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// CheckboxTarget is the NodeEvent target of a task item's checkbox.
const CheckboxTarget = "checkbox"

// TaskView is the node view of a task item. Clicking its checkbox toggles
// the item through the host.
type TaskView struct {
	host    state.Host
	getPos  func() (int, bool)
	node    *model.Node
	mounted bool
}

// NewTaskView is the state.NodeViewFactory for task items.
func NewTaskView(node *model.Node, host state.Host, getPos func() (int, bool)) state.NodeView {
	return &TaskView{host: host, getPos: getPos, node: node}
}

func (v *TaskView) Mount() { v.mounted = true }

// Checked reports the state the view last rendered.
func (v *TaskView) Checked() bool { return v.node.Attrs().Bool("checked") }

func (v *TaskView) UpdateAttrs(node *model.Node) bool {
	if node.Type() != v.node.Type() {
		return false
	}
	v.node = node
	return true
}

// StopEvent consumes checkbox clicks.
func (v *TaskView) StopEvent(ev state.NodeEvent) bool {
	if ev.Target != CheckboxTarget {
		return false
	}
	if ev.Type == "click" && v.mounted {
		v.toggle()
	}
	return true
}

func (v *TaskView) toggle() {
	pos, ok := v.getPos()
	if !ok {
		return
	}
	s := v.host.State()
	node := s.Doc.NodeAt(pos)
	if node == nil || node.Type().Name != TaskList {
		return
	}
	tr := s.Tr().SetNodeMarkup(pos, nil, node.Attrs().With("checked", !node.Attrs().Bool("checked")))
	_ = v.host.Dispatch(tr)
}

func (v *TaskView) Destroy() { v.mounted = false }
