package blocks

import (
	"strconv"
	"unicode/utf8"

	"github.com/iw2rmb/quire/inputrules"
	"github.com/iw2rmb/quire/lists"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
)

// InputRules returns the editor's input rules for s in the order they are
// tried: block types, lists, links, marks, then typography.
func InputRules(s *model.Schema) []inputrules.Rule {
	var rules []inputrules.Rule
	if t := s.Node(Heading); t != nil {
		rules = append(rules, HeadingRule(t, MaxHeadingLevel))
	}
	if t := s.Node(HorizontalRule); t != nil {
		rules = append(rules, RuleRule(t))
	}
	if t := s.Node(Blockquote); t != nil {
		rules = append(rules, inputrules.TextblockType(`^\s*>\s$`, t, nil))
	}
	if t := s.Node(CodeBlock); t != nil {
		rules = append(rules, inputrules.TextblockType("^```$", t, nil))
	}
	rules = append(rules, lists.InputRules(s)...)
	if mt := s.Mark(Link); mt != nil {
		rules = append(rules, MarkdownLinkRule(mt), URLRule(mt))
	}
	for _, r := range []struct {
		name, pattern string
	}{
		{Bold, `\*([^*]+)\*`},
		{Italic, `_([^_]+)_`},
		{Strike, `--([^-]+)--`},
		{Code, "`([^`]+)`"},
	} {
		if mt := s.Mark(r.name); mt != nil {
			rules = append(rules, inputrules.Mark(r.pattern, mt, nil))
		}
	}
	rules = append(rules, inputrules.SmartQuotes()...)
	return append(rules, inputrules.Ellipsis)
}

// HeadingRule turns up to maxLevel "#" and a space at the start of a
// textblock into a heading of that level.
func HeadingRule(t *model.NodeType, maxLevel int) inputrules.Rule {
	pattern := `^(#{1,` + strconv.Itoa(maxLevel) + `})\s$`
	return inputrules.TextblockType(pattern, t, func(m []string) model.Attrs {
		return model.Attrs{"level": len(m[1])}
	})
}

// RuleRule turns "--- " at the start of a textblock into a horizontal rule
// inserted before the block.
func RuleRule(t *model.NodeType) inputrules.Rule {
	return inputrules.New(`^\s*(---)\s$`, func(s *state.State, _ []string, start, end int) *state.Transaction {
		rp, err := s.Doc.Resolve(start)
		if err != nil || rp.ParentOffset != 0 || rp.Depth < 1 {
			return nil
		}
		if !rp.Node(rp.Depth - 1).Type().ContentAllows(t) {
			return nil
		}
		hr, err := t.Create(nil, model.EmptyFragment, nil)
		if err != nil {
			return nil
		}
		tr := s.Tr().Delete(start, end)
		tr.Insert(rp.Before(rp.Depth), hr)
		return tr.SetSelection(state.Caret(start + hr.NodeSize()))
	})
}

// MarkdownLinkRule turns "[text](href)" into text linked to href.
func MarkdownLinkRule(mt *model.MarkType) inputrules.Rule {
	return inputrules.New(`\[(.*?)\]\((\S+)\)$`, func(s *state.State, m []string, start, end int) *state.Transaction {
		if m[1] == "" {
			return nil
		}
		return linkText(s, mt, m[1], m[2], "", start, end)
	})
}

// URLRule links a bare http, https or ftp URL once a space is typed after
// it.
func URLRule(mt *model.MarkType) inputrules.Rule {
	return inputrules.New(`((?:https?|ftp)://[^\s/$.?#].[^\s]*)(\s)$`, func(s *state.State, m []string, start, end int) *state.Transaction {
		return linkText(s, mt, m[1], m[1], m[2], start, end)
	})
}

// linkText replaces [start, end) with text carrying a link to href,
// followed by the unlinked trailer.
func linkText(s *state.State, mt *model.MarkType, text, href, trailer string, start, end int) *state.Transaction {
	rp, err := s.Doc.Resolve(start)
	if err != nil || !rp.Parent().Type().AllowsMarkType(mt) {
		return nil
	}
	link, err := mt.Create(model.Attrs{"href": href})
	if err != nil {
		return nil
	}
	marks := mt.RemoveFromSet(rp.Marks())
	linked, err := s.Schema().TextNode(text, link.AddToSet(marks))
	if err != nil {
		return nil
	}
	nodes := []*model.Node{linked}
	if trailer != "" {
		plain, err := s.Schema().TextNode(trailer, marks)
		if err != nil {
			return nil
		}
		nodes = append(nodes, plain)
	}
	tr := s.Tr().ReplaceWith(start, end, nodes...)
	caret := start + utf8.RuneCountInString(text) + utf8.RuneCountInString(trailer)
	return tr.SetSelection(state.Caret(caret))
}
