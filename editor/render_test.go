package editor

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/view"
)

func newView(t *testing.T, cfg blocks.Config, d *model.Node) *view.View {
	t.Helper()
	st, err := blocks.NewState(cfg, d)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	v, err := view.New(view.Options{State: st})
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	t.Cleanup(v.Destroy)
	return v
}

func setCaret(t *testing.T, v *view.View, anchor, head int) {
	t.Helper()
	err := v.Update(func(s *state.State) *state.Transaction {
		return s.Tr().SetSelection(state.Selection{Anchor: anchor, Head: head})
	})
	if err != nil {
		t.Fatalf("set selection: %v", err)
	}
}

func TestRender_BlocksWithPrefixes(t *testing.T) {
	v := newView(t, blocks.Config{}, doc(t,
		block(t, blocks.Heading, model.Attrs{"level": 2}, "Hi"),
		block(t, lists.BulletList, nil, "a"),
		block(t, lists.TaskList, nil, "b"),
		block(t, blocks.HorizontalRule, nil, ""),
		block(t, blocks.Paragraph, nil, "x"),
	))
	m := New(Config{View: v})
	m = m.Blur()
	m = m.SetSize(6, 10)

	got := m.renderContent()
	want := "## Hi\n• a\n[ ] b\n──────\nx"
	if got != want {
		t.Fatalf("unexpected rendering:\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_CursorWhenFocused(t *testing.T) {
	v := newView(t, blocks.Config{}, doc(t, block(t, blocks.Paragraph, nil, "ab")))
	m := New(Config{
		View:  v,
		Style: Style{Cursor: lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)},
	})

	if got, want := m.renderContent(), " a b"; got != want {
		t.Fatalf("cursor at start:\n got: %q\nwant: %q", got, want)
	}

	setCaret(t, v, 3, 3)
	m, _ = m.Update(StateMsg{})
	if got, want := m.renderContent(), "ab   "; got != want {
		t.Fatalf("cursor at end:\n got: %q\nwant: %q", got, want)
	}

	m = m.Blur()
	if got, want := m.renderContent(), "ab"; got != want {
		t.Fatalf("blurred:\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_Placeholder(t *testing.T) {
	v := newView(t, blocks.Config{Placeholder: "Type"}, nil)
	m := New(Config{
		View:  v,
		Style: Style{Cursor: lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)},
	})
	if got, want := m.renderContent(), " T ype"; got != want {
		t.Fatalf("focused placeholder:\n got: %q\nwant: %q", got, want)
	}
	m = m.Blur()
	if got, want := m.renderContent(), "Type"; got != want {
		t.Fatalf("blurred placeholder:\n got: %q\nwant: %q", got, want)
	}

	v.HandleTextInput("x")
	m, _ = m.Update(StateMsg{})
	if got, want := m.renderContent(), "x"; got != want {
		t.Fatalf("after typing:\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_MarksAndSelection(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	r.SetHasDarkBackground(true)

	st := Style{
		Text:      r.NewStyle(),
		Bold:      r.NewStyle().Bold(true),
		Selection: r.NewStyle().Background(lipgloss.Color("237")),
	}
	bold, err := blocks.Schema.Mark(blocks.Bold).Create(nil)
	if err != nil {
		t.Fatalf("bold: %v", err)
	}
	bn, err := blocks.Schema.TextNode("a", []model.Mark{bold})
	if err != nil {
		t.Fatalf("TextNode: %v", err)
	}
	pn, err := blocks.Schema.TextNode("bc", nil)
	if err != nil {
		t.Fatalf("TextNode: %v", err)
	}
	p, err := blocks.Schema.Node(blocks.Paragraph).Create(nil, model.NewFragment(bn, pn), nil)
	if err != nil {
		t.Fatalf("paragraph: %v", err)
	}
	v := newView(t, blocks.Config{}, doc(t, p))
	setCaret(t, v, 2, 3)

	m := New(Config{View: v, Style: st})
	got := m.renderContent()
	want := st.Bold.Inherit(st.Text).Render("a") + st.Selection.Inherit(st.Text).Render("b") + st.Text.Render("c")
	if got != want {
		t.Fatalf("unexpected rendering:\n got: %q\nwant: %q", got, want)
	}
}

func TestRender_HighlightUsesPaletteColor(t *testing.T) {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)

	st := Style{Text: r.NewStyle()}
	hl, err := blocks.Schema.Mark(blocks.Highlight).Create(model.Attrs{"color": "yellow"})
	if err != nil {
		t.Fatalf("highlight: %v", err)
	}
	v := newView(t, blocks.Config{}, doc(t, block(t, blocks.Paragraph, nil, "x", hl)))
	m := New(Config{View: v, Style: st}).Blur()

	got := m.renderContent()
	want := st.Text.Background(lipgloss.Color("#fbf3db")).Render("x")
	if got != want {
		t.Fatalf("unexpected rendering:\n got: %q\nwant: %q", got, want)
	}
}

func TestCSSColor(t *testing.T) {
	tests := []struct {
		in   string
		want lipgloss.Color
		ok   bool
	}{
		{in: "#EA2027", want: "#EA2027", ok: true},
		{in: "rgb(251, 228, 228)", want: "#fbe4e4", ok: true},
		{in: "rgb(0,0,0)", want: "#000000", ok: true},
		{in: "teal", ok: false},
	}
	for _, tt := range tests {
		got, ok := cssColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("cssColor(%q): got %q,%v, want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSplice(t *testing.T) {
	cells := func(s string) []styledCell {
		return stringCells(s, lipgloss.NewStyle())
	}
	render := func(line []styledCell) string {
		var sb strings.Builder
		for _, c := range line {
			sb.WriteString(c.text)
		}
		return sb.String()
	}
	tests := []struct {
		name string
		line string
		x    int
		over string
		want string
	}{
		{name: "inside", line: "abcdef", x: 2, over: "XY", want: "abXYef"},
		{name: "past the end", line: "ab", x: 4, over: "XY", want: "ab  XY"},
		{name: "cuts a wide cell on the left", line: "a日b", x: 2, over: "X", want: "a Xb"},
		{name: "cuts a wide cell on the right", line: "a日b", x: 1, over: "X", want: "aX b"},
		{name: "overhangs", line: "abc", x: 2, over: "XYZ", want: "abXYZ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(splice(cells(tt.line), tt.x, cells(tt.over), lipgloss.NewStyle()))
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
