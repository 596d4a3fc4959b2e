package blocks

import (
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// SetColor returns a command that applies the palette entry name as a mark
// of type mt to the selection, replacing any other entry. An empty name
// clears the mark. On a caret the stored marks change instead.
//
// The mark's color attribute holds the palette name; hosts look the value
// up in ColorPalette or HighlightPalette.
func SetColor(mt *model.MarkType, palette map[string]string, name string) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		if _, ok := palette[name]; name != "" && !ok {
			return false
		}
		rp, err := s.Doc.Resolve(s.Selection.From())
		if err != nil || !rp.Parent().Type().AllowsMarkType(mt) {
			return false
		}
		var mark model.Mark
		if name != "" {
			if mark, err = mt.Create(model.Attrs{"color": name}); err != nil {
				return false
			}
		}
		tr := s.Tr()
		if s.Selection.Empty() {
			marks := s.StoredMarks
			if marks == nil {
				marks = rp.Marks()
			}
			next := mt.RemoveFromSet(marks)
			if name != "" {
				next = mark.AddToSet(next)
			}
			if next == nil {
				next = []model.Mark{}
			}
			tr.SetStoredMarks(next)
		} else {
			from, to := s.Selection.From(), s.Selection.To()
			tr.RemoveMark(from, to, mt)
			if name != "" {
				tr.AddMark(from, to, mark)
			}
		}
		if tr.Err() != nil {
			return false
		}
		if dispatch != nil {
			dispatch(tr)
		}
		return true
	}
}

// ColorOf returns the CSS color of a color or highlight mark.
func ColorOf(m model.Mark) (string, bool) {
	var palette map[string]string
	switch m.Type.Name {
	case Color:
		palette = ColorPalette
	case Highlight:
		palette = HighlightPalette
	default:
		return "", false
	}
	v, ok := palette[m.Attrs.String("color")]
	return v, ok
}
