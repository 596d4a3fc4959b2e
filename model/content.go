package model

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// contentExpr is a compiled content expression. Each node type is mapped to
// a private-use rune so that a fragment's child sequence can be matched as a
// string against a regular expression built from the expression.
type contentExpr struct {
	source string
	re     *regexp.Regexp
	types  []*NodeType
}

const typeRuneBase = 0xE000

func typeRune(t *NodeType) rune { return rune(typeRuneBase + t.index) }

func (e *contentExpr) empty() bool { return len(e.types) == 0 }

func (e *contentExpr) inlineContent() bool {
	return len(e.types) > 0 && e.types[0].IsInline()
}

func (e *contentExpr) matches(f Fragment) bool {
	var b strings.Builder
	for _, n := range f.nodes {
		b.WriteRune(typeRune(n.typ))
	}
	return e.re.MatchString(b.String())
}

// allows reports whether t may appear anywhere in the expression.
func (e *contentExpr) allows(t *NodeType) bool {
	for _, x := range e.types {
		if x == t {
			return true
		}
	}
	return false
}

func compileContent(s *Schema, owner, expr string) (*contentExpr, error) {
	out := &contentExpr{source: expr}
	toks, err := tokenizeContent(expr)
	if err != nil {
		return nil, fmt.Errorf("content of %s: %w", owner, err)
	}
	seen := map[*NodeType]bool{}
	var re strings.Builder
	re.WriteString(`^(?:`)
	for _, tok := range toks {
		switch {
		case tok == "(":
			re.WriteString("(?:")
		case tok == ")" || tok == "|" || tok == "*" || tok == "+" || tok == "?":
			re.WriteString(tok)
		case strings.HasPrefix(tok, "{"):
			re.WriteString(tok)
		default:
			types := s.resolveName(tok)
			if len(types) == 0 {
				return nil, fmt.Errorf("content of %s: no node type or group %q", owner, tok)
			}
			re.WriteByte('[')
			for _, t := range types {
				re.WriteRune(typeRune(t))
				if !seen[t] {
					seen[t] = true
					out.types = append(out.types, t)
				}
			}
			re.WriteByte(']')
		}
	}
	re.WriteString(`)$`)
	compiled, err := regexp.Compile(re.String())
	if err != nil {
		return nil, fmt.Errorf("content of %s: invalid expression %q: %w", owner, expr, err)
	}
	out.re = compiled
	inline := -1
	for _, t := range out.types {
		v := 0
		if t.IsInline() {
			v = 1
		}
		if inline >= 0 && inline != v {
			return nil, fmt.Errorf("content of %s: mixes inline and block content", owner)
		}
		inline = v
	}
	return out, nil
}

func tokenizeContent(expr string) ([]string, error) {
	var toks []string
	rs := []rune(expr)
	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case strings.ContainsRune("()|*+?", r):
			toks = append(toks, string(r))
			i++
		case r == '{':
			j := i
			for j < len(rs) && rs[j] != '}' {
				j++
			}
			if j == len(rs) {
				return nil, fmt.Errorf("unterminated range in %q", expr)
			}
			toks = append(toks, string(rs[i:j+1]))
			i = j + 1
		case r == '_' || unicode.IsLetter(r):
			j := i
			for j < len(rs) && (rs[j] == '_' || unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j])) {
				j++
			}
			toks = append(toks, string(rs[i:j]))
			i = j
		default:
			return nil, fmt.Errorf("unexpected %q in %q", r, expr)
		}
	}
	return toks, nil
}
