package view

import (
	"errors"
	"sync"
	"testing"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/keymap"
	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

func block(t *testing.T, name string, attrs model.Attrs, text string) *model.Node {
	t.Helper()
	var content model.Fragment
	if text != "" {
		tn, err := blocks.Schema.TextNode(text, nil)
		if err != nil {
			t.Fatalf("TextNode: %v", err)
		}
		content = model.NewFragment(tn)
	}
	n, err := blocks.Schema.Node(name).Create(attrs, content, nil)
	if err != nil {
		t.Fatalf("Create %s: %v", name, err)
	}
	return n
}

func newView(t *testing.T, children ...*model.Node) *View {
	t.Helper()
	doc, err := blocks.Schema.Top.Create(nil, model.NewFragment(children...), nil)
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	st, err := blocks.NewState(blocks.Config{}, doc)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	v, err := New(Options{State: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(v.Destroy)
	return v
}

func TestNodeViews_SurviveAttrChangeAndShift(t *testing.T) {
	v := newView(t,
		block(t, blocks.Paragraph, nil, "ab"),
		block(t, lists.TaskList, nil, "cd"),
	)
	id, ok := v.NodeViewID(4)
	if !ok {
		t.Fatalf("no node view for the task item")
	}

	if !v.HandleNodeEvent(4, state.NodeEvent{Type: "click", Target: lists.CheckboxTarget}) {
		t.Fatalf("checkbox click not consumed")
	}
	if !v.State().Doc.Child(1).Attrs().Bool("checked") {
		t.Fatalf("task not checked after click: %s", v.State().Doc)
	}
	if got, _ := v.NodeViewID(4); got != id {
		t.Fatalf("view id=%d after attr change, want %d", got, id)
	}

	if !v.HandleTextInput("x") {
		t.Fatalf("HandleTextInput=false")
	}
	if _, ok := v.NodeViewID(4); ok {
		t.Fatalf("view still at old position")
	}
	if got, ok := v.NodeViewID(5); !ok || got != id {
		t.Fatalf("view id at 5=%d,%v, want %d", got, ok, id)
	}
	nv, _ := v.NodeViewAt(5)
	if !nv.(*lists.TaskView).Checked() {
		t.Fatalf("view did not see the attr update")
	}
}

func TestNodeViews_RecreatedOnReplace(t *testing.T) {
	v := newView(t, block(t, lists.TaskList, nil, "cd"))
	id, _ := v.NodeViewID(0)
	old, _ := v.NodeViewAt(0)

	s := v.State()
	if err := v.Dispatch(s.Tr().SetNodeMarkup(0, blocks.Schema.Node(blocks.Paragraph), nil)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, ok := v.NodeViewID(0); ok {
		t.Fatalf("paragraph kept a task view")
	}
	old.StopEvent(state.NodeEvent{Type: "click", Target: lists.CheckboxTarget})
	if got := v.State().Doc.Child(0).Type().Name; got != blocks.Paragraph {
		t.Fatalf("type=%s after a click on a destroyed view, want paragraph", got)
	}

	s = v.State()
	if err := v.Dispatch(s.Tr().SetNodeMarkup(0, blocks.Schema.Node(lists.TaskList), nil)); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	got, ok := v.NodeViewID(0)
	if !ok || got == id {
		t.Fatalf("view id=%d,%v, want a fresh view", got, ok)
	}
}

func TestNodeViews_NonCheckboxEventsPass(t *testing.T) {
	v := newView(t, block(t, lists.TaskList, nil, "cd"))
	if v.HandleNodeEvent(0, state.NodeEvent{Type: "click", Target: "text"}) {
		t.Fatalf("text click consumed")
	}
	if v.HandleNodeEvent(3, state.NodeEvent{Type: "click", Target: lists.CheckboxTarget}) {
		t.Fatalf("event at a position without a view consumed")
	}
}

func TestHandleKey_FallsThroughInOrder(t *testing.T) {
	var calls []string
	declining := &state.Plugin{Props: state.Props{
		HandleKey: func(_ *state.State, _ state.Dispatch, key string) bool {
			calls = append(calls, "first:"+key)
			return false
		},
	}}
	second := keymap.New(keymap.Bind(func(s *state.State, dispatch state.Dispatch) bool {
		calls = append(calls, "second")
		return true
	}, "", "ctrl+q"))
	never := &state.Plugin{Props: state.Props{
		HandleKey: func(*state.State, state.Dispatch, string) bool {
			calls = append(calls, "never")
			return true
		},
	}}
	st, err := state.New(state.Config{Schema: blocks.Schema, Plugins: []*state.Plugin{declining, second, never}})
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	v, err := New(Options{State: st})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer v.Destroy()

	if !v.HandleKey("ctrl+q") {
		t.Fatalf("HandleKey=false")
	}
	if len(calls) != 2 || calls[0] != "first:ctrl+q" || calls[1] != "second" {
		t.Fatalf("calls=%v", calls)
	}
}

func TestDispatch_ConcurrentTyping(t *testing.T) {
	v := newView(t, block(t, blocks.Paragraph, nil, ""))
	changes := 0
	var mu sync.Mutex
	v.onChange = func(prev, next *state.State) {
		mu.Lock()
		changes++
		mu.Unlock()
	}
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.HandleTextInput("a")
		}()
	}
	wg.Wait()
	if got := v.State().Doc.TextContent(); got != "aaaaaaaaaa" {
		t.Fatalf("text=%q, want ten a's", got)
	}
	if changes != 10 {
		t.Fatalf("changes=%d, want 10", changes)
	}
}

func TestDispatch_RejectedLeavesState(t *testing.T) {
	v := newView(t, block(t, blocks.Paragraph, nil, "ab"))
	before := v.State()
	tr := before.Tr().Delete(0, 4)
	if err := v.Dispatch(tr); err == nil {
		t.Fatalf("deleting the only block succeeded: %s", v.State().Doc)
	}
	if v.State() != before {
		t.Fatalf("state changed after a rejected transaction")
	}

	stale := before.Tr().InsertText("x", 1, 1)
	v.HandleTextInput("y")
	if err := v.Dispatch(stale); !errors.Is(err, state.ErrMismatchedTransaction) {
		t.Fatalf("stale dispatch err=%v, want ErrMismatchedTransaction", err)
	}
}

func TestDestroy(t *testing.T) {
	v := newView(t, block(t, lists.TaskList, nil, "a"))
	nv, _ := v.NodeViewAt(0)
	v.Destroy()
	if err := v.Dispatch(v.State().Tr()); !errors.Is(err, ErrDestroyed) {
		t.Fatalf("err=%v, want ErrDestroyed", err)
	}
	if v.HandleTextInput("x") {
		t.Fatalf("typing after Destroy handled")
	}
	nv.StopEvent(state.NodeEvent{Type: "click", Target: lists.CheckboxTarget})
	if v.State().Doc.Child(0).Attrs().Bool("checked") {
		t.Fatalf("destroyed view toggled the task")
	}
}

func TestCanExec_DryRun(t *testing.T) {
	v := newView(t, block(t, blocks.Paragraph, nil, "ab"))
	before := v.State()
	if v.CanExec(lists.Indent()) {
		t.Fatalf("Indent applies to a paragraph")
	}
	if !v.CanExec(state.Command(func(s *state.State, dispatch state.Dispatch) bool { return dispatch == nil })) {
		t.Fatalf("CanExec passed a dispatcher")
	}
	if v.State() != before {
		t.Fatalf("dry run changed the state")
	}
}
