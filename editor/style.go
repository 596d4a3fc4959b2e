package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/model"
)

// Style controls the editor's rendering.
type Style struct {
	Text      lipgloss.Style
	Selection lipgloss.Style
	Cursor    lipgloss.Style

	// Mark styles.
	Bold   lipgloss.Style
	Italic lipgloss.Style
	Strike lipgloss.Style
	Code   lipgloss.Style
	Link   lipgloss.Style

	// Block styles.
	Heading   lipgloss.Style
	CodeBlock lipgloss.Style
	Quote     lipgloss.Style
	Prefix    lipgloss.Style
	Checked   lipgloss.Style
	Rule      lipgloss.Style

	// Decoration styles.
	Suggestion  lipgloss.Style
	Placeholder lipgloss.Style

	Menu         lipgloss.Style
	MenuSelected lipgloss.Style
}

func DefaultStyle() Style {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	return Style{
		Text:      lipgloss.NewStyle(),
		Selection: lipgloss.NewStyle().Background(lipgloss.Color("237")),
		Cursor:    lipgloss.NewStyle().Reverse(true),

		Bold:   lipgloss.NewStyle().Bold(true),
		Italic: lipgloss.NewStyle().Italic(true),
		Strike: lipgloss.NewStyle().Strikethrough(true),
		Code:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Link:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true),

		Heading:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")),
		CodeBlock: lipgloss.NewStyle().Foreground(lipgloss.Color("151")),
		Quote:     lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("250")),
		Prefix:    muted,
		Checked:   muted.Strikethrough(true),
		Rule:      muted,

		Suggestion:  lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("209")),
		Placeholder: muted.Italic(true),

		Menu:         lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")),
		MenuSelected: lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")),
	}
}

// cssColor converts "#rrggbb" and "rgb(r, g, b)" to a lipgloss color.
func cssColor(v string) (lipgloss.Color, bool) {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "#") {
		return lipgloss.Color(v), true
	}
	var r, g, b int
	if _, err := fmt.Sscanf(strings.ReplaceAll(v, " ", ""), "rgb(%d,%d,%d)", &r, &g, &b); err != nil {
		return "", false
	}
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r, g, b)), true
}

// blockStyle is the base style of text in block n.
func (s Style) blockStyle(n *model.Node) lipgloss.Style {
	switch n.Type().Name {
	case blocks.Heading:
		return s.Heading
	case blocks.CodeBlock:
		return s.CodeBlock
	case blocks.Blockquote:
		return s.Quote
	}
	if n.Attrs().Bool("checked") {
		return s.Checked
	}
	return s.Text
}

// markStyle layers the styles of marks over base.
func (s Style) markStyle(base lipgloss.Style, marks []model.Mark) lipgloss.Style {
	st := base
	for _, m := range marks {
		switch m.Type.Name {
		case blocks.Bold:
			st = s.Bold.Inherit(st)
		case blocks.Italic:
			st = s.Italic.Inherit(st)
		case blocks.Strike:
			st = s.Strike.Inherit(st)
		case blocks.Code:
			st = s.Code.Inherit(st)
		case blocks.Link:
			st = s.Link.Inherit(st)
		case blocks.Color:
			if v, ok := blocks.ColorOf(m); ok {
				if c, ok := cssColor(v); ok {
					st = st.Foreground(c)
				}
			}
		case blocks.Highlight:
			if v, ok := blocks.ColorOf(m); ok {
				if c, ok := cssColor(v); ok {
					st = st.Background(c)
				}
			}
		}
	}
	return st
}
