package state

import (
	"time"
	"unicode/utf8"

	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/transform"
)

const addToHistoryMeta = "addToHistory"

// Transaction is a Transform plus selection, stored marks and metadata.
// Builder methods apply immediately; the first failing step is recorded and
// every later step is ignored.
type Transaction struct {
	*transform.Transform

	// Time is when the transaction was created. Tests may overwrite it.
	Time time.Time

	before       *State
	selection    Selection
	selectionSet bool
	selMapFrom   int

	storedMarks    []model.Mark
	storedMarksSet bool
	storedAt       int

	meta map[any]any
}

func newTransaction(s *State) *Transaction {
	return &Transaction{
		Transform:   transform.New(s.Doc),
		Time:        time.Now(),
		before:      s,
		selection:   s.Selection,
		storedMarks: s.StoredMarks,
	}
}

// StateBefore is the state the transaction was started from.
func (tr *Transaction) StateBefore() *State { return tr.before }

// Selection returns the selection as of the latest step: an explicit
// selection mapped through later steps, or the original one mapped
// through all of them.
func (tr *Transaction) Selection() Selection {
	return tr.selection.Map(tr.Mapping.Slice(tr.selMapFrom, tr.Mapping.Len()))
}

// SetSelection sets the selection explicitly.
func (tr *Transaction) SetSelection(sel Selection) *Transaction {
	tr.selection = sel
	tr.selectionSet = true
	tr.selMapFrom = tr.Mapping.Len()
	return tr
}

// SelectionSet reports whether SetSelection was called.
func (tr *Transaction) SelectionSet() bool { return tr.selectionSet }

// StoredMarks returns the marks the next typed text gets, or nil. Stored
// marks are cleared by any step added after they were set.
func (tr *Transaction) StoredMarks() []model.Mark {
	if len(tr.Steps) > tr.storedAt {
		return nil
	}
	return tr.storedMarks
}

// SetStoredMarks sets the marks for the next typed text.
func (tr *Transaction) SetStoredMarks(marks []model.Mark) *Transaction {
	tr.storedMarks = marks
	tr.storedMarksSet = true
	tr.storedAt = len(tr.Steps)
	return tr
}

func (tr *Transaction) StoredMarksSet() bool { return tr.storedMarksSet }

// SetMeta attaches metadata. Plugins use their *PluginKey as key.
func (tr *Transaction) SetMeta(key, value any) *Transaction {
	if tr.meta == nil {
		tr.meta = map[any]any{}
	}
	tr.meta[key] = value
	return tr
}

// Meta returns the metadata under key.
func (tr *Transaction) Meta(key any) any { return tr.meta[key] }

// AddToHistory reports whether undo history records the transaction.
func (tr *Transaction) AddToHistory() bool {
	v, ok := tr.meta[addToHistoryMeta].(bool)
	return !ok || v
}

// SetAddToHistory marks whether undo history records the transaction.
func (tr *Transaction) SetAddToHistory(v bool) *Transaction {
	return tr.SetMeta(addToHistoryMeta, v)
}

// IsSelectionOnly reports whether the transaction changes nothing but the
// selection.
func (tr *Transaction) IsSelectionOnly() bool { return !tr.DocChanged() && tr.selectionSet }

func (tr *Transaction) Replace(from, to int, slice model.Slice) *Transaction {
	tr.Transform.Replace(from, to, slice)
	return tr
}

func (tr *Transaction) ReplaceWith(from, to int, nodes ...*model.Node) *Transaction {
	tr.Transform.ReplaceWith(from, to, nodes...)
	return tr
}

func (tr *Transaction) Insert(pos int, nodes ...*model.Node) *Transaction {
	tr.Transform.Insert(pos, nodes...)
	return tr
}

func (tr *Transaction) Delete(from, to int) *Transaction {
	tr.Transform.Delete(from, to)
	return tr
}

func (tr *Transaction) AddMark(from, to int, mark model.Mark) *Transaction {
	tr.Transform.AddMark(from, to, mark)
	return tr
}

func (tr *Transaction) RemoveMark(from, to int, mt *model.MarkType) *Transaction {
	tr.Transform.RemoveMark(from, to, mt)
	return tr
}

func (tr *Transaction) SetNodeMarkup(pos int, typ *model.NodeType, attrs model.Attrs) *Transaction {
	tr.Transform.SetNodeMarkup(pos, typ, attrs)
	return tr
}

func (tr *Transaction) SetBlockType(from, to int, typ *model.NodeType, attrs model.Attrs) *Transaction {
	tr.Transform.SetBlockType(from, to, typ, attrs)
	return tr
}

func (tr *Transaction) Split(pos, depth int, typesAfter []transform.NodeTypeAttrs) *Transaction {
	tr.Transform.Split(pos, depth, typesAfter)
	return tr
}

func (tr *Transaction) Join(pos, depth int) *Transaction {
	tr.Transform.Join(pos, depth)
	return tr
}

// InsertText replaces [from, to) with text. The text gets the stored marks,
// or the marks at from. A non-empty selection collapses after the text.
func (tr *Transaction) InsertText(text string, from, to int) *Transaction {
	if tr.Err() != nil {
		return tr
	}
	if text == "" {
		return tr.Delete(from, to)
	}
	rp, err := tr.Doc.Resolve(from)
	if err != nil {
		tr.Fail(err)
		return tr
	}
	marks := tr.StoredMarks()
	if marks == nil {
		marks = rp.Marks()
	}
	marks = rp.Parent().Type().AllowedMarks(marks)
	tr.Transform.InsertText(text, from, to, marks)
	if tr.Err() == nil && !tr.Selection().Empty() {
		tr.SetSelection(Caret(from + utf8.RuneCountInString(text)))
	}
	return tr
}

// DeleteSelection deletes the selected range and leaves a caret at its
// start.
func (tr *Transaction) DeleteSelection() *Transaction {
	sel := tr.Selection()
	if sel.Empty() {
		return tr
	}
	tr.Delete(sel.From(), sel.To())
	if tr.Err() == nil {
		tr.SetSelection(Caret(sel.From()))
	}
	return tr
}

// ReplaceSelectionWith replaces the selection with node.
func (tr *Transaction) ReplaceSelectionWith(node *model.Node) *Transaction {
	sel := tr.Selection()
	return tr.ReplaceWith(sel.From(), sel.To(), node)
}
