// Package textseg segments text into grapheme clusters and words.
//
// Offsets are rune offsets, matching document positions inside text nodes.
package textseg

import (
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Split returns grapheme clusters for text in visual order.
func Split(text string) []string {
	if text == "" {
		return nil
	}
	g := uniseg.NewGraphemes(text)
	out := make([]string, 0, utf8.RuneCountInString(text))
	for g.Next() {
		out = append(out, g.Str())
	}
	return out
}

// ClusterBefore returns the rune length of the grapheme cluster that ends at
// rune offset off. It returns 0 when off is at or before the start of text.
func ClusterBefore(text string, off int) int {
	if off <= 0 || text == "" {
		return 0
	}
	g := uniseg.NewGraphemes(text)
	pos := 0
	for g.Next() {
		n := len(g.Runes())
		if pos+n >= off {
			return off - pos
		}
		pos += n
	}
	return 0
}

// ClusterAfter returns the rune length of the grapheme cluster that starts
// at rune offset off. Offsets inside a cluster return the remaining runes of
// that cluster.
func ClusterAfter(text string, off int) int {
	if off < 0 || text == "" {
		return 0
	}
	g := uniseg.NewGraphemes(text)
	pos := 0
	for g.Next() {
		n := len(g.Runes())
		if off < pos+n {
			return pos + n - off
		}
		pos += n
	}
	return 0
}

// IsWordRune reports whether r is part of a word for boundary expansion and
// phrase matching.
func IsWordRune(r rune) bool {
	return r == '_' || r == '\'' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// ExpandWord grows the half-open rune range [from, to) outward until the
// neighbouring runes are not word runes or the edge of text is reached.
func ExpandWord(text []rune, from, to int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	if to < from {
		from, to = to, from
	}
	for from > 0 && IsWordRune(text[from-1]) {
		from--
	}
	for to < len(text) && IsWordRune(text[to]) {
		to++
	}
	return from, to
}

// IsBlank reports whether s is empty or holds only whitespace and
// non-printing separators.
func IsBlank(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) && r != '\uFFFC' {
			return false
		}
	}
	return true
}

// FindWord returns the rune offsets of every occurrence of phrase in text
// that is bounded by non-word runes or the edges of text. The match is
// case-sensitive.
func FindWord(text []rune, phrase string) []int {
	p := []rune(phrase)
	if len(p) == 0 || len(p) > len(text) {
		return nil
	}
	var out []int
	for i := 0; i+len(p) <= len(text); i++ {
		if !equalAt(text, i, p) {
			continue
		}
		if i > 0 && IsWordRune(text[i-1]) && IsWordRune(p[0]) {
			continue
		}
		end := i + len(p)
		if end < len(text) && IsWordRune(text[end]) && IsWordRune(p[len(p)-1]) {
			continue
		}
		out = append(out, i)
		i = end - 1
	}
	return out
}

func equalAt(text []rune, at int, p []rune) bool {
	for j, r := range p {
		if text[at+j] != r {
			return false
		}
	}
	return true
}
