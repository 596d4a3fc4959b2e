package lists

import (
	"testing"

	"github.com/iw2rmb/quire/inputrules"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

var schema = mustSchema()

func mustSchema() *model.Schema {
	nodes := []model.NodeSpec{
		{Name: "doc", Content: "block+"},
		{Name: "paragraph", Content: "inline*", Group: "block"},
	}
	nodes = append(nodes, NodeSpecs()...)
	nodes = append(nodes, model.NodeSpec{Name: "text", Group: "inline"})
	s, err := model.NewSchema(nodes, nil)
	if err != nil {
		panic(err)
	}
	return s
}

func node(t *testing.T, name string, attrs model.Attrs, text string) *model.Node {
	t.Helper()
	var content model.Fragment
	if text != "" {
		tn, err := schema.TextNode(text, nil)
		if err != nil {
			t.Fatalf("TextNode: %v", err)
		}
		content = model.NewFragment(tn)
	}
	n, err := schema.Node(name).Create(attrs, content, nil)
	if err != nil {
		t.Fatalf("Create %s: %v", name, err)
	}
	return n
}

func doc(t *testing.T, children ...*model.Node) *model.Node {
	t.Helper()
	n, err := schema.Node("doc").Create(nil, model.NewFragment(children...), nil)
	if err != nil {
		t.Fatalf("Create doc: %v", err)
	}
	return n
}

type host struct {
	t *testing.T
	s *state.State
}

func newHost(t *testing.T, d *model.Node, sel state.Selection, plugins ...*state.Plugin) *host {
	t.Helper()
	s, err := state.New(state.Config{Doc: d, Selection: &sel, Plugins: plugins})
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	return &host{t: t, s: s}
}

func (h *host) State() *state.State { return h.s }

func (h *host) Dispatch(tr *state.Transaction) error {
	s, err := h.s.Apply(tr)
	if err != nil {
		return err
	}
	h.s = s
	return nil
}

func (h *host) dispatch(tr *state.Transaction) {
	h.t.Helper()
	if err := h.Dispatch(tr); err != nil {
		h.t.Fatalf("Apply: %v", err)
	}
}

func (h *host) run(cmd state.Command) bool {
	return cmd(h.s, h.dispatch)
}

func TestIndentOutdent_Clamp(t *testing.T) {
	h := newHost(t, doc(t, node(t, BulletList, nil, "a")), state.Caret(1))
	for range 20 {
		if !h.run(Indent()) {
			t.Fatalf("Indent=false")
		}
	}
	if got := Level(h.s.Doc.Child(0)); got != MaxLevel {
		t.Fatalf("level=%d, want %d", got, MaxLevel)
	}
	for range 20 {
		h.run(Outdent())
	}
	if got := Level(h.s.Doc.Child(0)); got != 0 {
		t.Fatalf("level=%d, want 0", got)
	}
}

func TestIndent_OrderedRestarts(t *testing.T) {
	h := newHost(t, doc(t, node(t, OrderedList, model.Attrs{"start": 4}, "a")), state.Caret(1))
	h.run(Indent())
	if got := h.s.Doc.Child(0).Attrs().Int("start"); got != 1 {
		t.Fatalf("start after indent=%d, want 1", got)
	}
	h.run(Outdent())
	if got := h.s.Doc.Child(0).Attr("start"); got != nil {
		t.Fatalf("start after outdent=%v, want nil", got)
	}
}

func TestIndent_OutsideList(t *testing.T) {
	h := newHost(t, doc(t, node(t, "paragraph", nil, "a")), state.Caret(1))
	if Indent()(h.s, nil) {
		t.Fatalf("Indent applied to a paragraph")
	}
}

func TestSplit_EmptyItemOutdents(t *testing.T) {
	h := newHost(t, doc(t, node(t, TaskList, model.Attrs{"level": 2}, "")), state.Caret(1))
	if !h.run(Split) {
		t.Fatalf("Split=false")
	}
	n := h.s.Doc.Child(0)
	if n.Type().Name != TaskList || Level(n) != 1 {
		t.Fatalf("item=%s, want task at level 1", n)
	}
	h.run(Split)
	h.run(Split)
	if got := h.s.Doc.Child(0).Type().Name; got != "paragraph" {
		t.Fatalf("type=%s, want paragraph", got)
	}
	if Split(h.s, nil) {
		t.Fatalf("Split applied outside a list")
	}
}

func TestSplit_OrderedDropsStart(t *testing.T) {
	h := newHost(t, doc(t, node(t, OrderedList, model.Attrs{"start": 3, "level": 1}, "ab")), state.Caret(2))
	if !h.run(Split) {
		t.Fatalf("Split=false")
	}
	if h.s.Doc.ChildCount() != 2 {
		t.Fatalf("doc=%s, want two items", h.s.Doc)
	}
	first, second := h.s.Doc.Child(0), h.s.Doc.Child(1)
	if first.TextContent() != "a" || second.TextContent() != "b" {
		t.Fatalf("doc=%s", h.s.Doc)
	}
	if first.Attrs().Int("start") != 3 || second.Attr("start") != nil {
		t.Fatalf("start=%v,%v, want 3,nil", first.Attr("start"), second.Attr("start"))
	}
	if Level(second) != 1 {
		t.Fatalf("second level=%d, want 1", Level(second))
	}
}

func TestToggleTaskChecked_Negation(t *testing.T) {
	d := doc(t,
		node(t, TaskList, model.Attrs{"checked": false}, "ab"),
		node(t, TaskList, model.Attrs{"checked": true}, "cd"),
	)
	h := newHost(t, d, state.Selection{Anchor: 2, Head: 6})
	if !h.run(ToggleTaskChecked()) {
		t.Fatalf("ToggleTaskChecked=false")
	}
	for i := range 2 {
		if !h.s.Doc.Child(i).Attrs().Bool("checked") {
			t.Fatalf("item %d unchecked after toggle: %s", i, h.s.Doc)
		}
	}
	h.run(ToggleTaskChecked())
	for i := range 2 {
		if h.s.Doc.Child(i).Attrs().Bool("checked") {
			t.Fatalf("item %d checked after second toggle: %s", i, h.s.Doc)
		}
	}
}

func TestRemoveList(t *testing.T) {
	h := newHost(t, doc(t, node(t, BulletList, nil, "a")), state.Caret(1))
	if RemoveList()(h.s, nil) {
		t.Fatalf("RemoveList applied to a non-empty item")
	}
	h = newHost(t, doc(t, node(t, BulletList, model.Attrs{"level": 3}, "")), state.Caret(1))
	if !h.run(RemoveList()) {
		t.Fatalf("RemoveList=false")
	}
	if got, want := h.s.Doc.String(), "doc(paragraph)"; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
}

func TestInputRules(t *testing.T) {
	cases := []struct {
		text      string
		wantType  string
		wantStart any
	}{
		{text: "3.", wantType: OrderedList, wantStart: 3},
		{text: "[ ]", wantType: TaskList},
		{text: "[]", wantType: TaskList},
		{text: "-", wantType: BulletList},
		{text: "+", wantType: BulletList},
	}
	for _, tc := range cases {
		p := inputrules.Plugin(InputRules(schema)...)
		end := 1 + len(tc.text)
		h := newHost(t, doc(t, node(t, "paragraph", nil, tc.text)), state.Caret(end), p)
		if !p.Props.HandleTextInput(h.s, h.dispatch, end, end, " ") {
			t.Fatalf("%q: rule did not fire", tc.text)
		}
		n := h.s.Doc.Child(0)
		if n.Type().Name != tc.wantType || n.Content().Size() != 0 {
			t.Fatalf("%q: doc=%s, want empty %s", tc.text, h.s.Doc, tc.wantType)
		}
		if tc.wantStart != nil && n.Attr("start") != tc.wantStart {
			t.Fatalf("%q: start=%v, want %v", tc.text, n.Attr("start"), tc.wantStart)
		}
	}
}

func TestPlugin_Keys(t *testing.T) {
	p := Plugin()
	h := newHost(t, doc(t, node(t, BulletList, nil, "a")), state.Caret(2), p)
	if !p.Props.HandleKey(h.s, h.dispatch, "tab") {
		t.Fatalf("tab not handled")
	}
	if Level(h.s.Doc.Child(0)) != 1 {
		t.Fatalf("level=%d, want 1", Level(h.s.Doc.Child(0)))
	}
	if !p.Props.HandleKey(h.s, h.dispatch, "Shift-Tab") {
		t.Fatalf("shift+tab not handled")
	}
	if !p.Props.HandleKey(h.s, h.dispatch, "enter") || h.s.Doc.ChildCount() != 2 {
		t.Fatalf("enter did not split: %s", h.s.Doc)
	}
	if p.Props.NodeViews[TaskList] == nil {
		t.Fatalf("no task node view")
	}
}

func TestTaskView_Click(t *testing.T) {
	h := newHost(t, doc(t, node(t, TaskList, nil, "ab")), state.Caret(1))
	view := NewTaskView(h.s.Doc.Child(0), h, func() (int, bool) { return 0, true })
	view.Mount()
	if view.StopEvent(state.NodeEvent{Type: "click", Target: "text"}) {
		t.Fatalf("text click consumed")
	}
	if !view.StopEvent(state.NodeEvent{Type: "click", Target: CheckboxTarget}) {
		t.Fatalf("checkbox click not consumed")
	}
	n := h.s.Doc.Child(0)
	if !n.Attrs().Bool("checked") {
		t.Fatalf("doc=%s, want checked", h.s.Doc)
	}
	if !view.UpdateAttrs(n) || !view.(*TaskView).Checked() {
		t.Fatalf("view did not take new attrs")
	}

	view.Destroy()
	view.StopEvent(state.NodeEvent{Type: "click", Target: CheckboxTarget})
	if !h.s.Doc.Child(0).Attrs().Bool("checked") {
		t.Fatalf("destroyed view toggled the item")
	}
}
