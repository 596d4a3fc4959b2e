// Package inputrules rewrites text as it is typed.
//
// A rule's pattern is matched against the text of the current textblock up
// to the cursor followed by the typed text. The first rule that matches and
// produces a transaction wins. Rules never fire inside code blocks.
package inputrules

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// maxMatch is how many runes before the cursor rules can see.
const maxMatch = 500

// Handler builds the transaction for a match. [start, end) is the document
// range the match covers, excluding the typed text. Returning nil declines.
type Handler func(s *state.State, match []string, start, end int) *state.Transaction

// Rule pairs a pattern with a handler. Patterns should end in $.
type Rule struct {
	Pattern *regexp.Regexp
	Handler Handler
}

// New builds a rule.
func New(pattern string, h Handler) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Handler: h}
}

// Replace builds a rule replacing the match with text. When the pattern
// has a capture group only the group's text is replaced.
func Replace(pattern, text string) Rule {
	return New(pattern, func(s *state.State, match []string, start, end int) *state.Transaction {
		insert := text
		if len(match) > 1 && match[1] != "" {
			i := strings.LastIndex(match[0], match[1])
			insert += match[0][i+len(match[1]):]
			start += utf8.RuneCountInString(match[0][:i])
			if cut := start - end; cut > 0 {
				// The group starts inside the typed text.
				pre := []rune(match[0][:i])
				insert = string(pre[len(pre)-cut:]) + insert
				start = end
			}
		}
		return s.Tr().InsertText(insert, start, end)
	})
}

type undoable struct {
	tr       *state.Transaction
	from, to int
	text     string
}

// Plugin returns a plugin running rules on typed text.
func Plugin(rules ...Rule) *state.Plugin {
	rs := append([]Rule(nil), rules...)
	key := state.NewPluginKey("inputrules")
	return &state.Plugin{
		Key: key,
		State: &state.StateField{
			Init: func(*state.State) any { return (*undoable)(nil) },
			Apply: func(tr *state.Transaction, v any, _, _ *state.State) any {
				if u, ok := tr.Meta(key).(*undoable); ok {
					return u
				}
				if tr.SelectionSet() || tr.DocChanged() {
					return (*undoable)(nil)
				}
				return v
			},
		},
		Props: state.Props{
			HandleTextInput: func(s *state.State, dispatch state.Dispatch, from, to int, text string) bool {
				return run(s, dispatch, rs, key, from, to, text)
			},
		},
	}
}

func run(s *state.State, dispatch state.Dispatch, rules []Rule, key *state.PluginKey, from, to int, text string) bool {
	rp, err := s.Doc.Resolve(from)
	if err != nil {
		return false
	}
	parent := rp.Parent()
	if !parent.IsTextblock() || parent.Type().IsCode() {
		return false
	}
	start := rp.Start(rp.Depth)
	lo := max(start, from-maxMatch)
	before := s.Doc.AlignedText(lo, from) + text
	typed := utf8.RuneCountInString(text)
	for _, r := range rules {
		m := r.Pattern.FindStringSubmatch(before)
		if m == nil {
			continue
		}
		matchStart := from - (utf8.RuneCountInString(m[0]) - typed)
		if matchStart < start {
			continue
		}
		tr := r.Handler(s, m, matchStart, to)
		if tr == nil || tr.Err() != nil {
			continue
		}
		if dispatch != nil {
			tr.SetMeta(key, &undoable{tr: tr, from: from, to: to, text: text})
			dispatch(tr)
		}
		return true
	}
	return false
}

// UndoRule reverts the rule applied by the previous transaction and inserts
// the typed text instead. It applies only right after a rule fired.
func UndoRule(s *state.State, dispatch state.Dispatch) bool {
	for _, p := range s.Plugins() {
		if p.Key == nil {
			continue
		}
		u, ok := p.Key.State(s).(*undoable)
		if !ok || u == nil {
			continue
		}
		if dispatch == nil {
			return true
		}
		tr := s.Tr()
		undo := u.tr
		for i := len(undo.Steps) - 1; i >= 0; i-- {
			tr.Step(undo.Steps[i].Invert(undo.Docs[i]))
		}
		if u.text != "" {
			var marks []model.Mark
			if rp, err := tr.Doc.Resolve(u.from); err == nil {
				marks = rp.Marks()
			}
			node, err := s.Schema().TextNode(u.text, marks)
			if err != nil {
				return false
			}
			tr.ReplaceWith(u.from, u.to, node)
		} else {
			tr.Delete(u.from, u.to)
		}
		if tr.Err() != nil {
			return false
		}
		dispatch(tr)
		return true
	}
	return false
}
