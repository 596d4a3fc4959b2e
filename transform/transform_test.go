package transform

import (
	"errors"
	"testing"

	"github.com/iw2rmb/quire/internal/schematest"
	"github.com/iw2rmb/quire/model"
)

var s = schematest.Schema

func TestReplaceStep_ApplyInvert(t *testing.T) {
	doc := schematest.Doc(schematest.P("hello"), schematest.P("world"))
	step := NewReplaceStep(3, 10, model.EmptySlice)
	after, err := step.Apply(doc)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, want := after.String(), `doc(paragraph("herld"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	inv := step.Invert(doc)
	back, err := inv.Apply(after)
	if err != nil {
		t.Fatalf("inverse Apply: %v", err)
	}
	if !back.Eq(doc) {
		t.Fatalf("inverse=%s, want %s", back, doc)
	}
	if got := step.GetMap().Map(12, 1); got != 5 {
		t.Fatalf("mapped end=%d, want 5", got)
	}
}

func TestReplaceStep_MapDeleted(t *testing.T) {
	step := NewReplaceStep(4, 5, model.EmptySlice)
	if got := step.Map(NewStepMap(2, 6, 0)); got != nil {
		t.Fatalf("step inside deleted range mapped to %v", got)
	}
	moved := step.Map(NewStepMap(0, 0, 3)).(*ReplaceStep)
	if moved.From != 7 || moved.To != 8 {
		t.Fatalf("moved=%d-%d, want 7-8", moved.From, moved.To)
	}
}

func TestReplaceStep_MergeTyping(t *testing.T) {
	a := NewReplaceStep(1, 1, model.NewSlice(model.NewFragment(schematest.Text("a")), 0, 0))
	b := NewReplaceStep(2, 2, model.NewSlice(model.NewFragment(schematest.Text("b")), 0, 0))
	merged, ok := a.Merge(b)
	if !ok {
		t.Fatalf("adjacent inserts did not merge")
	}
	m := merged.(*ReplaceStep)
	if m.From != 1 || m.To != 1 || m.Slice.Content.TextContent() != "ab" {
		t.Fatalf("merged=%s", m)
	}
}

func TestMarkSteps(t *testing.T) {
	doc := schematest.Doc(schematest.P("hello world"))
	tr := New(doc)
	tr.AddMark(1, 6, schematest.Bold())
	if err := tr.Err(); err != nil {
		t.Fatalf("AddMark: %v", err)
	}
	if got, want := tr.Doc.String(), `doc(paragraph(bold("hello"), " world"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	if tr.Mapping.Map(8, 1) != 8 {
		t.Fatalf("mark step moved positions")
	}

	tr.AddMark(3, 9, schematest.Bold())
	if got, want := tr.Doc.String(), `doc(paragraph(bold("hello wo"), "rld"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	tr.RemoveMark(1, 12, s.Mark("bold"))
	if !tr.Doc.Eq(doc) {
		t.Fatalf("after remove doc=%s, want %s", tr.Doc, doc)
	}

	// Inverting every step in reverse restores the original.
	tr2 := New(doc)
	tr2.AddMark(2, 5, schematest.Em())
	inv := tr2.Steps[0].Invert(tr2.Docs[0])
	back, err := inv.Apply(tr2.Doc)
	if err != nil || !back.Eq(doc) {
		t.Fatalf("invert=%v,%v", back, err)
	}
}

func TestAddMark_SkipsDisallowedParents(t *testing.T) {
	doc := schematest.Doc(schematest.Node("code", nil, "x := 1"))
	tr := New(doc)
	tr.AddMark(1, 7, schematest.Bold())
	if tr.Err() != nil || tr.DocChanged() {
		t.Fatalf("mark added to code: err=%v changed=%v", tr.Err(), tr.DocChanged())
	}
}

func TestSetNodeMarkup(t *testing.T) {
	doc := schematest.Doc(schematest.P("title"), schematest.P("body"))
	tr := New(doc)
	tr.SetNodeMarkup(0, s.Node("heading"), model.Attrs{"level": 2})
	if err := tr.Err(); err != nil {
		t.Fatalf("SetNodeMarkup: %v", err)
	}
	if got, want := tr.Doc.String(), `doc(heading{level=2}("title"), paragraph("body"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	inv := tr.Steps[0].Invert(doc)
	back, err := inv.Apply(tr.Doc)
	if err != nil || !back.Eq(doc) {
		t.Fatalf("invert=%v,%v", back, err)
	}
}

func TestSetBlockType_DropsDisallowedMarks(t *testing.T) {
	doc := schematest.Doc(schematest.P(schematest.Text("a", schematest.Bold()), "b"))
	tr := New(doc)
	tr.SetBlockType(1, 1, s.Node("code"), nil)
	if err := tr.Err(); err != nil {
		t.Fatalf("SetBlockType: %v", err)
	}
	if got, want := tr.Doc.String(), `doc(code("ab"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
}

func TestSplitAndJoin(t *testing.T) {
	doc := schematest.Doc(schematest.H(1, "abcd"))
	tr := New(doc)
	tr.Split(3, 1, []NodeTypeAttrs{{Type: s.Node("paragraph")}})
	if err := tr.Err(); err != nil {
		t.Fatalf("Split: %v", err)
	}
	if got, want := tr.Doc.String(), `doc(heading{level=1}("ab"), paragraph("cd"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
	if !CanJoin(tr.Doc, 4) {
		t.Fatalf("CanJoin(4)=false")
	}
	tr.Join(4, 1)
	if got, want := tr.Doc.String(), `doc(heading{level=1}("abcd"))`; got != want {
		t.Fatalf("joined=%s, want %s", got, want)
	}
	if CanJoin(schematest.Doc(schematest.P("a"), schematest.Rule()), 3) {
		t.Fatalf("CanJoin with leaf=true")
	}
}

func TestDelete_AcrossDepths(t *testing.T) {
	doc := schematest.Doc(schematest.P("ab"), schematest.Quote(schematest.P("cd"), schematest.P("ef")))
	tr := New(doc)
	// From inside "ab" to inside "ef".
	tr.Delete(2, 11)
	if err := tr.Err(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, want := tr.Doc.String(), `doc(paragraph("af"))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
}

func TestTransform_FirstFailureWins(t *testing.T) {
	doc := schematest.Doc(schematest.P("ab"))
	tr := New(doc)
	tr.InsertText("x", 1, 1, nil)
	tr.Insert(2, schematest.P("nested"))
	tr.InsertText("y", 1, 1, nil)
	if !errors.Is(tr.Err(), ErrStepFailed) {
		t.Fatalf("err=%v, want ErrStepFailed", tr.Err())
	}
	if !errors.Is(tr.Err(), model.ErrSchemaViolation) {
		t.Fatalf("err=%v, want schema violation cause", tr.Err())
	}
	if len(tr.Steps) != 1 || tr.Doc.TextContent() != "xab" {
		t.Fatalf("steps=%d doc=%s, want only first step", len(tr.Steps), tr.Doc)
	}
	if tr.Before() != doc {
		t.Fatalf("Before changed")
	}
}

func TestDelete_KeepsAncestorsOnBothSides(t *testing.T) {
	doc := schematest.Doc(schematest.Quote(schematest.P("ab")), schematest.P("cd"))
	tr := New(doc)
	tr.Delete(4, 7)
	if got, want := tr.Doc.String(), `doc(quote(paragraph("abcd")))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}

	doc = schematest.Doc(schematest.P("ab"), schematest.Quote(schematest.P("cd"), schematest.P("ef")))
	tr = New(doc)
	tr.Delete(2, 7)
	if got, want := tr.Doc.String(), `doc(paragraph("ad"), quote(paragraph("ef")))`; got != want {
		t.Fatalf("doc=%s, want %s", got, want)
	}
}
