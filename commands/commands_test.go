package commands

import (
	"testing"

	"github.com/iw2rmb/quire/internal/schematest"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

var s = schematest.Schema

func newState(t *testing.T, doc *model.Node, sel state.Selection) *state.State {
	t.Helper()
	st, err := state.New(state.Config{Doc: doc, Selection: &sel})
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	return st
}

// exec runs cmd and returns the resulting state, or nil when it did not
// apply. A command that applies without dispatching returns st.
func exec(t *testing.T, st *state.State, cmd state.Command) *state.State {
	t.Helper()
	dry := cmd(st, nil)
	var tr *state.Transaction
	ok := cmd(st, func(x *state.Transaction) { tr = x })
	if ok != dry {
		t.Fatalf("dry run=%v, run=%v", dry, ok)
	}
	if !ok {
		return nil
	}
	if tr == nil {
		return st
	}
	ns, err := st.Apply(tr)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	return ns
}

func TestDeleteBackward_Grapheme(t *testing.T) {
	// "e" + combining acute, then "x".
	st := newState(t, schematest.Doc(schematest.P("ae\u0301x")), state.Caret(4))
	ns := exec(t, st, DeleteBackward)
	if got := ns.Doc.TextContent(); got != "ax" {
		t.Fatalf("text=%q, want ax", got)
	}
	if ns.Selection != state.Caret(2) {
		t.Fatalf("selection=%v, want caret(2)", ns.Selection)
	}
}

func TestDeleteBackward_JoinsBlocks(t *testing.T) {
	st := newState(t, schematest.Doc(schematest.P("ab"), schematest.H(2, "cd")), state.Caret(5))
	ns := exec(t, st, DeleteBackward)
	if got, want := ns.Doc.String(), `doc(paragraph("abcd"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	if ns.Selection != state.Caret(3) {
		t.Fatalf("selection=%v, want caret(3)", ns.Selection)
	}

	st = newState(t, schematest.Doc(schematest.P("a"), schematest.Rule(), schematest.P("b")), state.Caret(5))
	ns = exec(t, st, DeleteBackward)
	if got, want := ns.Doc.String(), `doc(paragraph("a"), paragraph("b"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}

	st = newState(t, schematest.Doc(schematest.P("a")), state.Caret(1))
	if exec(t, st, DeleteBackward) != nil {
		t.Fatalf("backspace at document start applied")
	}
}

func TestDeleteForward(t *testing.T) {
	st := newState(t, schematest.Doc(schematest.P("ab"), schematest.P("cd")), state.Caret(3))
	ns := exec(t, st, DeleteForward)
	if got, want := ns.Doc.String(), `doc(paragraph("abcd"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	ns = exec(t, newState(t, ns.Doc, state.Caret(1)), DeleteForward)
	if got := ns.Doc.TextContent(); got != "bcd" {
		t.Fatalf("text=%q, want bcd", got)
	}
}

func TestSplitBlock(t *testing.T) {
	st := newState(t, schematest.Doc(schematest.H(1, "abcd")), state.Caret(3))
	ns := exec(t, st, SplitBlock)
	if got, want := ns.Doc.String(), `doc(heading{level=1}("ab"), heading{level=1}("cd"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	if ns.Selection != state.Caret(5) {
		t.Fatalf("selection=%v, want caret(5)", ns.Selection)
	}

	st = newState(t, schematest.Doc(schematest.H(1, "ab")), state.Caret(3))
	ns = exec(t, st, SplitBlock)
	if got, want := ns.Doc.String(), `doc(heading{level=1}("ab"), paragraph)`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}

	st = newState(t, schematest.Doc(schematest.P("abcd")), state.Selection{Anchor: 2, Head: 4})
	ns = exec(t, st, SplitBlock)
	if got, want := ns.Doc.String(), `doc(paragraph("a"), paragraph("d"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
}

func TestNewlineInCode(t *testing.T) {
	st := newState(t, schematest.Doc(schematest.Node("code", nil, "ab")), state.Caret(2))
	ns := exec(t, st, state.Chain(NewlineInCode, SplitBlock))
	if got := ns.Doc.TextContent(); got != "a\nb" {
		t.Fatalf("text=%q", got)
	}
	if exec(t, newState(t, schematest.Doc(schematest.P("x")), state.Caret(1)), NewlineInCode) != nil {
		t.Fatalf("NewlineInCode applied outside code")
	}
}

func TestToggleMark_Range(t *testing.T) {
	st := newState(t, schematest.Doc(schematest.P("hello")), state.Selection{Anchor: 1, Head: 3})
	bold := ToggleMark(s.Mark("bold"), nil)
	ns := exec(t, st, bold)
	if got, want := ns.Doc.String(), `doc(paragraph(bold("he"), "llo"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	ns = exec(t, ns, bold)
	if !ns.Doc.Eq(st.Doc) {
		t.Fatalf("toggle twice=%s, want %s", ns.Doc, st.Doc)
	}

	code := newState(t, schematest.Doc(schematest.Node("code", nil, "x")), state.Selection{Anchor: 1, Head: 2})
	if exec(t, code, bold) != nil {
		t.Fatalf("bold applied in code")
	}
}

func TestToggleMark_StoredMarks(t *testing.T) {
	doc := schematest.Doc(schematest.P(schematest.Text("ab", schematest.Bold())))
	st := newState(t, doc, state.Caret(3))
	ns := exec(t, st, ToggleMark(s.Mark("bold"), nil))
	if ns.StoredMarks == nil || len(ns.StoredMarks) != 0 {
		t.Fatalf("stored=%v, want explicit empty set", ns.StoredMarks)
	}
	ns = exec(t, ns, InsertText("c"))
	if got, want := ns.Doc.String(), `doc(paragraph(bold("ab"), "c"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}

	st = newState(t, schematest.Doc(schematest.P("x")), state.Caret(2))
	ns = exec(t, st, ToggleMark(s.Mark("em"), nil))
	ns = exec(t, ns, InsertText("y"))
	if got, want := ns.Doc.String(), `doc(paragraph("x", em("y")))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
}

func TestLinks(t *testing.T) {
	link := s.Mark("link")
	st := newState(t, schematest.Doc(schematest.P("see example.org now")), state.Selection{Anchor: 5, Head: 16})
	ns := exec(t, st, InsertLink(link))
	want := `doc(paragraph("see ", link(href="example.org")("example.org"), " now"))`
	if got := ns.Doc.String(); got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	if exec(t, newState(t, ns.Doc, state.Caret(2)), InsertLink(link)) != nil {
		t.Fatalf("InsertLink applied to a caret")
	}

	var opened string
	caret := newState(t, ns.Doc, state.Caret(8))
	if exec(t, caret, OpenLink(link, func(h string) { opened = h })) != caret {
		t.Fatalf("OpenLink dispatched a transaction")
	}
	if opened != "example.org" {
		t.Fatalf("opened=%q", opened)
	}

	updated := exec(t, caret, UpdateHref(link, "https://example.org"))
	want = `doc(paragraph("see ", link(href="https://example.org")("example.org"), " now"))`
	if got := updated.Doc.String(); got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}

	removed := exec(t, newState(t, updated.Doc, state.Caret(5)), RemoveLink(link))
	if got, want := removed.Doc.String(), `doc(paragraph("see example.org now"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	if exec(t, newState(t, removed.Doc, state.Caret(8)), RemoveLink(link)) != nil {
		t.Fatalf("RemoveLink applied without a link")
	}
}

func TestSelectAllAndMove(t *testing.T) {
	doc := schematest.Doc(schematest.P("ab"), schematest.P("cd"))
	ns := exec(t, newState(t, doc, state.Caret(2)), SelectAll)
	if ns.Selection != (state.Selection{Anchor: 1, Head: 7}) {
		t.Fatalf("selection=%v", ns.Selection)
	}
	ns = exec(t, newState(t, doc, state.Caret(3)), Move(1, false))
	if ns.Selection != state.Caret(5) {
		t.Fatalf("move across blocks=%v, want caret(5)", ns.Selection)
	}
	ns = exec(t, ns, Move(-1, true))
	if ns.Selection != (state.Selection{Anchor: 5, Head: 3}) {
		t.Fatalf("extend=%v", ns.Selection)
	}
	ns = exec(t, ns, Move(1, false))
	if ns.Selection != state.Caret(5) {
		t.Fatalf("collapse=%v, want caret(5)", ns.Selection)
	}
	ns = exec(t, ns, LineEdge(1, false))
	if ns.Selection != state.Caret(7) {
		t.Fatalf("line end=%v", ns.Selection)
	}
}
