// Package editor provides a Bubble Tea component that renders a view.View.
//
// The component lays the document out as terminal rows: one block per
// paragraph, heading, quote, code block or list item, with list prefixes,
// marks and decorations styled through lipgloss. Keys go to the view's
// plugins first; vertical movement, mouse hit-testing and the suggestion
// menu are handled here because they need the on-screen layout.
package editor
