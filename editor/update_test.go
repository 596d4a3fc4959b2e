package editor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/suggest"
	"github.com/iw2rmb/quire/view"
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestUpdate_TypingGoesThroughPlugins(t *testing.T) {
	v := newView(t, blocks.Config{}, nil)
	m := New(Config{View: v})

	m, _ = m.Update(runes("#"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m, _ = m.Update(runes("Hi"))
	d := v.State().Doc
	if got := d.Child(0).Type().Name; got != blocks.Heading {
		t.Fatalf("block type after \"# \": got %s, want heading", got)
	}
	if got := d.TextContent(); got != "Hi" {
		t.Fatalf("text: got %q, want %q", got, "Hi")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := v.State().Doc.TextContent(); got != "H" {
		t.Fatalf("text after backspace: got %q, want %q", got, "H")
	}
	if got := m.Doc(); got != v.State().Doc {
		t.Fatalf("model rendered a stale document")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q"), Alt: true})
	if got := v.State().Doc.TextContent(); got != "H" {
		t.Fatalf("unbound alt key typed text: %q", got)
	}
}

func TestUpdate_PasteInsertsText(t *testing.T) {
	v := newView(t, blocks.Config{}, doc(t, block(t, blocks.Paragraph, nil, "ab")))
	m := New(Config{View: v})
	setCaret(t, v, 2, 2)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xy"), Paste: true})
	if got := v.State().Doc.TextContent(); got != "axyb" {
		t.Fatalf("text after paste: got %q, want %q", got, "axyb")
	}
	_ = m
}

func TestUpdate_VerticalMovementKeepsColumn(t *testing.T) {
	v := newView(t, blocks.Config{}, doc(t,
		block(t, blocks.Paragraph, nil, "abcd"),
		block(t, blocks.Paragraph, nil, "x"),
		block(t, blocks.HorizontalRule, nil, ""),
		block(t, blocks.Paragraph, nil, "efgh"),
	))
	m := New(Config{View: v}).SetSize(20, 10)
	setCaret(t, v, 4, 4)
	m, _ = m.Update(StateMsg{})

	steps := []struct {
		key  tea.KeyType
		want int
	}{
		{tea.KeyDown, 8},
		// The rule is skipped.
		{tea.KeyDown, 14},
		{tea.KeyUp, 8},
		{tea.KeyUp, 4},
		{tea.KeyUp, 1},
	}
	for i, s := range steps {
		m, _ = m.Update(tea.KeyMsg{Type: s.key})
		if got := v.State().Selection.Head; got != s.want {
			t.Fatalf("step %d: head got %d, want %d", i, got, s.want)
		}
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftDown})
	sel := v.State().Selection
	if sel.Anchor != 1 || sel.Head != 8 {
		t.Fatalf("shift+down: got %v, want 1-8", sel)
	}
}

func TestUpdate_MouseSelectsAndTogglesTasks(t *testing.T) {
	v := newView(t, blocks.Config{}, doc(t,
		block(t, blocks.Paragraph, nil, "hello"),
		block(t, lists.TaskList, nil, "do"),
	))
	m := New(Config{View: v}).SetSize(20, 5)

	m, _ = m.Update(press(2, 0))
	if got := v.State().Selection; got != state.Caret(3) {
		t.Fatalf("click: got %v, want caret 3", got)
	}

	m, _ = m.Update(press(0, 0))
	m, _ = m.Update(tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m, _ = m.Update(tea.MouseMsg{X: 3, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if got := v.State().Selection; got != (state.Selection{Anchor: 1, Head: 4}) {
		t.Fatalf("drag: got %v, want 1-4", got)
	}

	m, _ = m.Update(press(1, 1))
	if !v.State().Doc.Child(1).Attrs().Bool("checked") {
		t.Fatalf("checkbox click did not toggle the task")
	}
	if !strings.HasPrefix(strings.Split(m.renderContent(), "\n")[1], "[x] do") {
		t.Fatalf("task row not re-rendered: %q", m.renderContent())
	}

	m = m.Blur()
	m, _ = m.Update(press(3, 0))
	if got := v.State().Selection; got != (state.Selection{Anchor: 1, Head: 4}) {
		t.Fatalf("blurred click moved the selection: %v", got)
	}
}

func TestUpdate_ExternalChangesNeedStateMsg(t *testing.T) {
	v := newView(t, blocks.Config{}, doc(t, block(t, blocks.Paragraph, nil, "ab")))
	m := New(Config{View: v}).Blur()

	v.HandleTextInput("z")
	if got := m.renderContent(); got != "ab" {
		t.Fatalf("render before StateMsg: got %q, want %q", got, "ab")
	}
	m, _ = m.Update(StateMsg{})
	if got := m.renderContent(); got != "zab" {
		t.Fatalf("render after StateMsg: got %q, want %q", got, "zab")
	}
}

func TestChangeNotifier(t *testing.T) {
	got := make(chan tea.Msg, 1)
	st, err := blocks.NewState(blocks.Config{}, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	v, err := view.New(view.Options{State: st, OnChange: ChangeNotifier(func(msg tea.Msg) { got <- msg })})
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	defer v.Destroy()

	v.HandleTextInput("a")
	select {
	case msg := <-got:
		if _, ok := msg.(StateMsg); !ok {
			t.Fatalf("msg: got %T, want StateMsg", msg)
		}
	case <-time.After(time.Second):
		t.Fatalf("no StateMsg after a change")
	}
}

type sentRequests struct {
	mu   sync.Mutex
	reqs []suggest.Request
}

func (s *sentRequests) Send(req suggest.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return nil
}

func (s *sentRequests) last(t *testing.T) suggest.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reqs) == 0 {
		t.Fatalf("no request sent")
	}
	return s.reqs[len(s.reqs)-1]
}

// suggestModel returns a model over "a teh b" with "teh" suggested.
func suggestModel(t *testing.T) (Model, *view.View) {
	t.Helper()
	sent := &sentRequests{}
	o := suggest.New(context.Background(), suggest.Options{Sender: sent, Debounce: time.Hour})
	t.Cleanup(o.Close)
	v := newView(t, blocks.Config{Extra: []*state.Plugin{o.Plugin()}}, doc(t, block(t, blocks.Paragraph, nil, "a teh b")))
	o.Receive(suggest.Response{
		Key:         sent.last(t).Key,
		Suggestions: []suggest.Suggestion{{Phrase: "teh", Candidates: []string{"the", "ten"}}},
	})
	setCaret(t, v, 4, 4)
	m := New(Config{View: v}).SetSize(20, 5)
	return m, v
}

func TestMenu_AcceptCandidate(t *testing.T) {
	m, v := suggestModel(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true})
	if !m.MenuOpen() {
		t.Fatalf("menu did not open over a suggestion")
	}
	lines := strings.Split(m.renderContent(), "\n")
	want := []string{
		"a teh b",
		"   the          ",
		"   ten          ",
		"   Ignore \"teh\" ",
	}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("menu rendering:\n got: %q\nwant: %q", lines, want)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.MenuOpen() {
		t.Fatalf("menu still open after accepting")
	}
	if got := v.State().Doc.TextContent(); got != "a ten b" {
		t.Fatalf("text: got %q, want %q", got, "a ten b")
	}
	if got := v.State().Selection; got != state.Caret(6) {
		t.Fatalf("selection: got %v, want caret 6", got)
	}
}

func TestMenu_Ignore(t *testing.T) {
	m, v := suggestModel(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if got := suggest.Ignored(v.State()); len(got) != 1 || got[0] != "teh" {
		t.Fatalf("ignored: got %q, want [teh]", got)
	}
	if n := suggest.Decorations(v.State()).Len(); n != 0 {
		t.Fatalf("decorations after ignore: got %d, want 0", n)
	}
	if got := v.State().Doc.TextContent(); got != "a teh b" {
		t.Fatalf("ignore changed the text: %q", got)
	}
}

func TestMenu_OtherKeysCloseAndPassThrough(t *testing.T) {
	m, v := suggestModel(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.MenuOpen() {
		t.Fatalf("esc did not close the menu")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true})
	m, _ = m.Update(runes("x"))
	if m.MenuOpen() {
		t.Fatalf("typing did not close the menu")
	}
	if got := v.State().Doc.TextContent(); got != "a txeh b" {
		t.Fatalf("text: got %q, want %q", got, "a txeh b")
	}
}

func TestMenu_NoSuggestionUnderCaret(t *testing.T) {
	m, v := suggestModel(t)
	setCaret(t, v, 1, 1)
	m, _ = m.Update(StateMsg{})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true})
	if m.MenuOpen() {
		t.Fatalf("menu opened away from a suggestion")
	}
}

func TestToolbar_OverSelection(t *testing.T) {
	v := newView(t, blocks.Config{}, doc(t, block(t, blocks.Paragraph, nil, "hello world")))
	setCaret(t, v, 1, 6)
	m := New(Config{View: v, Toolbar: true}).SetSize(20, 5)

	lines := strings.Split(m.renderContent(), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines: got %q, want the text and a toolbar", lines)
	}
	if want := "   B  I  S  `  L "; lines[1] != want {
		t.Fatalf("toolbar: got %q, want %q", lines[1], want)
	}

	setCaret(t, v, 3, 3)
	m, _ = m.Update(StateMsg{})
	if got := m.renderContent(); strings.Contains(got, "\n") {
		t.Fatalf("toolbar shown over a caret: %q", got)
	}
}
