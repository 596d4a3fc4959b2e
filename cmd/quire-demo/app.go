package main

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iw2rmb/quire/editor"
	"github.com/iw2rmb/quire/view"
)

type appKeys struct {
	Save key.Binding
	Quit key.Binding
	ed   editor.KeyMap
}

func (k appKeys) ShortHelp() []key.Binding {
	return append([]key.Binding{k.Save, k.Quit}, k.ed.ShortHelp()...)
}

func (k appKeys) FullHelp() [][]key.Binding {
	return append([][]key.Binding{{k.Save, k.Quit}}, k.ed.FullHelp()...)
}

type savedMsg struct{ err error }

// app wraps the editor with a status line and save/quit keys.
type app struct {
	ed     editor.Model
	v      *view.View
	path   string
	log    *slog.Logger
	keys   appKeys
	help   help.Model
	status string
}

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

func newApp(v *view.View, path string, log *slog.Logger) app {
	keys := appKeys{
		Save: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Quit: key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
		ed:   editor.DefaultKeyMap(),
	}
	return app{
		ed: editor.New(editor.Config{
			View:    v,
			Style:   editor.DefaultStyle(),
			KeyMap:  keys.ed,
			Toolbar: true,
		}),
		v:    v,
		path: path,
		log:  log,
		keys: keys,
		help: help.New(),
	}
}

func (a app) Init() tea.Cmd { return a.ed.Init() }

func (a app) save() tea.Cmd {
	doc := a.v.State().Doc
	return func() tea.Msg { return savedMsg{err: saveDocument(a.path, doc)} }
}

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.help.Width = msg.Width
		a.ed = a.ed.SetSize(msg.Width, max(1, msg.Height-1))
		return a, nil
	case savedMsg:
		if msg.err != nil {
			a.log.Error("save failed", "path", a.path, "error", msg.err)
			a.status = "save failed: " + msg.err.Error()
		} else {
			a.status = "saved " + a.path
		}
		return a, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, a.keys.Save):
			return a, a.save()
		}
		a.status = ""
	}
	var cmd tea.Cmd
	a.ed, cmd = a.ed.Update(msg)
	return a, cmd
}

func (a app) View() string {
	line := a.status
	if line == "" {
		line = a.help.View(a.keys)
	} else {
		line = statusStyle.Render(line)
	}
	return fmt.Sprintf("%s\n%s", a.ed.View(), line)
}
