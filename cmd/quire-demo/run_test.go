package main

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/internal/config"
	"github.com/iw2rmb/quire/internal/logging"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/suggest/ignorestore"
	"github.com/iw2rmb/quire/view"
)

func TestSaveDocument_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.json")
	text, err := blocks.Schema.TextNode("hello", nil)
	if err != nil {
		t.Fatalf("TextNode: %v", err)
	}
	para, err := blocks.Schema.Node(blocks.Paragraph).Create(nil, model.NewFragment(text), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	doc, err := blocks.Schema.Top.Create(nil, model.NewFragment(para), nil)
	if err != nil {
		t.Fatalf("Create doc: %v", err)
	}

	if err := saveDocument(path, doc); err != nil {
		t.Fatalf("saveDocument: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := model.LoadOrEmpty(blocks.Schema, data, nil)
	if !got.Eq(doc) {
		t.Fatalf("reloaded doc differs: got %q, want %q", got.TextContent(), doc.TextContent())
	}
}

func TestOpenStore(t *testing.T) {
	cfg := config.Default()
	cfg.Ignore.Path = filepath.Join(t.TempDir(), "ignore.json")

	store, done := openStore(cfg)
	done()
	if f, ok := store.(*ignorestore.File); !ok || f.Path() != cfg.Ignore.Path {
		t.Fatalf("file store: got %T", store)
	}

	cfg.Ignore.Store = config.StoreMemory
	store, done = openStore(cfg)
	done()
	if _, ok := store.(*ignorestore.Memory); !ok {
		t.Fatalf("memory store: got %T", store)
	}
}

func TestApp_SaveAndQuit(t *testing.T) {
	st, err := blocks.NewState(blocks.Config{}, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	v, err := view.New(view.Options{State: st})
	if err != nil {
		t.Fatalf("view.New: %v", err)
	}
	defer v.Destroy()
	path := filepath.Join(t.TempDir(), "doc.json")
	var m tea.Model = newApp(v, path, logging.NewNop())

	m, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 5})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi")})
	if got := v.State().Doc.TextContent(); got != "hi" {
		t.Fatalf("typed text: got %q, want %q", got, "hi")
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatalf("ctrl+s returned no command")
	}
	m, _ = m.Update(cmd())
	if got := m.(app).status; got != "saved "+path {
		t.Fatalf("status: got %q", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("document not written: %v", err)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlQ})
	if cmd == nil {
		t.Fatalf("ctrl+q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("ctrl+q did not quit")
	}
}
