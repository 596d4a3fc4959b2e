package editor

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/view"
)

// StateMsg tells the Model that the view's state changed outside of Update,
// for example when suggestions arrive.
type StateMsg struct{}

// ChangeNotifier returns a view.Options.OnChange callback that sends a
// StateMsg through send, typically tea.Program.Send. The send runs on its
// own goroutine: OnChange also fires while Update is dispatching, when the
// program loop cannot receive.
func ChangeNotifier(send func(tea.Msg)) func(prev, next *state.State) {
	return func(_, _ *state.State) {
		go send(StateMsg{})
	}
}

// Model is a Bubble Tea component that renders and interacts with a
// view.View.
type Model struct {
	cfg Config
	v   *view.View

	focused bool

	viewport viewport.Model

	// st and lay are the state and layout last rendered.
	st  *state.State
	lay *layout

	// goal is the column kept across vertical moves, -1 when unset.
	goal int

	mouseDragging bool
	mouseAnchor   int

	menu *menu
}

func New(cfg Config) Model {
	if len(cfg.KeyMap.Up.Keys()) == 0 {
		cfg.KeyMap = DefaultKeyMap()
	}
	m := Model{
		cfg:      cfg,
		v:        cfg.View,
		focused:  true,
		viewport: viewport.New(0, 0),
		goal:     -1,
	}
	m.sync(true)
	return m
}

// EditorView returns the view the Model drives.
func (m Model) EditorView() *view.View { return m.v }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) SetSize(width, height int) Model {
	m.viewport.Width = max(0, width)
	m.viewport.Height = max(0, height)
	m.lay = nil
	m.sync(true)
	m.followCursor()
	return m
}

func (m Model) Focus() Model {
	if !m.focused {
		m.focused = true
		m.sync(true)
		m.followCursor()
	}
	return m
}

func (m Model) Blur() Model {
	if m.focused {
		m.focused = false
		m.menu = nil
		m.sync(true)
	}
	return m
}

func (m Model) Focused() bool { return m.focused }

// MenuOpen reports whether the suggestion menu is showing.
func (m Model) MenuOpen() bool { return m.menu != nil }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil
	case StateMsg:
		if m.sync(false) {
			m.followCursor()
		}
		return m, nil
	case tea.KeyMsg:
		if !m.focused || m.v == nil {
			return m, nil
		}
		if m.menu != nil {
			return m.updateMenu(msg)
		}
		return m.updateKey(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	}
	return m, nil
}

func (m Model) View() string { return m.viewport.View() }

// sync re-renders when the view's state moved on since the last render, or
// always with force. It reports whether the caret moved.
func (m *Model) sync(force bool) (caretMoved bool) {
	if m.v == nil {
		return false
	}
	s := m.v.State()
	if s == m.st && !force && m.lay != nil {
		return false
	}
	if m.st != nil {
		caretMoved = m.st.Selection != s.Selection
	}
	if m.lay == nil || m.st == nil || m.st.Doc != s.Doc || m.lay.width != m.textWidth() {
		m.lay = newLayout(s.Doc, m.textWidth())
	}
	m.st = s
	if m.menu != nil && !m.menu.valid(s) {
		m.menu = nil
	}
	m.rebuildContent()
	return caretMoved
}

func (m *Model) textWidth() int {
	return m.viewport.Width - m.viewport.Style.GetHorizontalFrameSize()
}

func (m *Model) rebuildContent() {
	m.viewport.SetContent(m.renderContent())
}

// followCursor scrolls the viewport so the caret row is visible.
func (m *Model) followCursor() {
	if m.lay == nil || m.st == nil {
		return
	}
	row, _, ok := m.lay.coords(m.st.Selection.Head)
	if !ok {
		return
	}
	h := m.viewport.Height - m.viewport.Style.GetVerticalFrameSize()
	if h <= 0 {
		return
	}
	y := m.viewport.YOffset
	switch {
	case row < y:
		m.viewport.SetYOffset(row)
	case row >= y+h:
		m.viewport.SetYOffset(row - h + 1)
	default:
		return
	}
	// Overlays are placed against the visible rows.
	m.rebuildContent()
}

// Doc returns the document last rendered.
func (m Model) Doc() *model.Node {
	if m.st == nil {
		return nil
	}
	return m.st.Doc
}
