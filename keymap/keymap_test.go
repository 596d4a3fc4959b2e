package keymap

import (
	"testing"

	"github.com/iw2rmb/quire/internal/schematest"
	"github.com/iw2rmb/quire/state"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Mod-b":        "ctrl+b",
		"Mod-Shift-z":  "ctrl+shift+z",
		"Shift-Tab":    "shift+tab",
		"Alt-i":        "alt+i",
		"Backspace":    "backspace",
		"Enter":        "enter",
		"ArrowLeft":    "left",
		"ctrl+b":       "ctrl+b",
		"shift+ctrl+x": "ctrl+shift+x",
		"Mod-":         "ctrl+-",
		"-":            "-",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestPlugin_FallsThrough(t *testing.T) {
	s, err := state.New(state.Config{Doc: schematest.Doc(schematest.P("x"))})
	if err != nil {
		t.Fatalf("state.New: %v", err)
	}
	var ran []string
	cmd := func(name string, ok bool) state.Command {
		return func(*state.State, state.Dispatch) bool {
			ran = append(ran, name)
			return ok
		}
	}
	p := New(
		Bind(cmd("first", false), "", "Mod-b"),
		Bind(cmd("second", true), "bold", "ctrl+b", "alt+b"),
		Bind(cmd("other", true), "", "ctrl+i"),
	)
	if !p.Props.HandleKey(s, nil, "ctrl+b") {
		t.Fatalf("ctrl+b not handled")
	}
	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Fatalf("ran=%v, want [first second]", ran)
	}
	if p.Props.HandleKey(s, nil, "ctrl+q") {
		t.Fatalf("unbound key handled")
	}
}

func TestMatch_SkipsDisabled(t *testing.T) {
	b := Bind(func(*state.State, state.Dispatch) bool { return true }, "", "enter")
	b.Key.SetEnabled(false)
	if got := Match([]Binding{b}, "enter"); len(got) != 0 {
		t.Fatalf("disabled binding matched")
	}
}
