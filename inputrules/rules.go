package inputrules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

const quoteOpeners = `(?:^|[\s{\[(<'"\x{2018}\x{201C}])`

var (
	OpenDoubleQuote  = Replace(quoteOpeners+`(")$`, "\u201c")
	CloseDoubleQuote = Replace(`"$`, "\u201d")
	OpenSingleQuote  = Replace(quoteOpeners+`(')$`, "\u2018")
	CloseSingleQuote = Replace(`'$`, "\u2019")

	Ellipsis = Replace(`\.\.\.$`, "\u2026")
	EmDash   = Replace(`--$`, "\u2014")
)

// SmartQuotes converts straight quotes to typographic ones.
func SmartQuotes() []Rule {
	return []Rule{OpenDoubleQuote, CloseDoubleQuote, OpenSingleQuote, CloseSingleQuote}
}

// AttrsFunc computes node or mark attributes from a match.
type AttrsFunc func(match []string) model.Attrs

// TextblockType converts the textblock the match starts in to typ after
// deleting the matched text. The match must start at the block start.
func TextblockType(pattern string, typ *model.NodeType, attrs AttrsFunc) Rule {
	return New(pattern, func(s *state.State, match []string, start, end int) *state.Transaction {
		rp, err := s.Doc.Resolve(start)
		if err != nil || rp.ParentOffset != 0 || rp.Depth < 1 {
			return nil
		}
		if !rp.Node(rp.Depth - 1).Type().ContentAllows(typ) {
			return nil
		}
		var a model.Attrs
		if attrs != nil {
			a = attrs(match)
		}
		tr := s.Tr().Delete(start, end)
		tr.SetBlockType(start, start, typ, a)
		return tr
	})
}

// Mark wraps the first capture group of the match in a mark of typ. The
// pattern's delimiters are removed and the typed text is inserted after the
// marked text without the mark.
//
// The pattern gets "(.)$" appended, so `\*([^*]+)\*` fires on the character
// typed after the closing asterisk.
func Mark(pattern string, typ *model.MarkType, attrs AttrsFunc) Rule {
	pattern = strings.TrimSuffix(pattern, "$") + "(.)$"
	return New(pattern, func(s *state.State, match []string, start, end int) *state.Transaction {
		if len(match) < 3 || match[1] == "" {
			return nil
		}
		var a model.Attrs
		if attrs != nil {
			a = attrs(match)
		}
		mark, err := typ.Create(a)
		if err != nil {
			return nil
		}
		rp, err := s.Doc.Resolve(start)
		if err != nil || !rp.Parent().Type().AllowsMarkType(typ) {
			return nil
		}
		i := strings.Index(match[0], match[1])
		textStart := start + utf8.RuneCountInString(match[0][:i])
		textEnd := textStart + utf8.RuneCountInString(match[1])
		if r, _ := utf8.DecodeRuneInString(match[0]); unicode.IsSpace(r) {
			start++
		}
		tr := s.Tr()
		if textEnd < end {
			tr.Delete(textEnd, end)
		}
		if textStart > start {
			tr.Delete(start, textStart)
		}
		end = start + utf8.RuneCountInString(match[1])
		tr.AddMark(start, end, mark)
		marks := typ.RemoveFromSet(rp.Marks())
		node, err := s.Schema().TextNode(match[2], marks)
		if err != nil {
			return nil
		}
		tr.Insert(end, node)
		return tr
	})
}
