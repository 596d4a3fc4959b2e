// Package suggest implements the misspelling overlay: edited ranges are
// sent to a remote service after a quiet period, and the suggestions that
// come back become decorations that follow the text through later edits.
//
// The overlay never changes the document. All of its state lives in the
// plugin field and changes only inside transactions; timer and network
// goroutines feed it by dispatching meta transactions through the host.
package suggest

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/iw2rmb/quire/decoration"
	"github.com/iw2rmb/quire/internal/logging"
	"github.com/iw2rmb/quire/internal/textseg"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/suggest/ignorestore"
	"github.com/iw2rmb/quire/transform"
)

// DefaultDebounce is the quiet period before edited text is sent.
const DefaultDebounce = 400 * time.Millisecond

// Kind is the decoration kind of suggestions. Their payload is a
// Suggestion.
const Kind = "suggestion"

// PluginKey is the key of the overlay plugin. A state holds one overlay.
var PluginKey = state.NewPluginKey("suggestion")

const saveTimeout = 5 * time.Second

// Options configures an Overlay.
type Options struct {
	// Sender receives requests. Nil disables requests.
	Sender Sender
	// Store persists the ignore list. Nil keeps it in memory only.
	Store    ignorestore.Store
	Debounce time.Duration
	Logger   *slog.Logger
}

// Overlay is one editor instance's suggestion overlay.
type Overlay struct {
	sender Sender
	store  ignorestore.Store
	log    *slog.Logger
	deb    *Debouncer

	ignored []string
	nextID  atomic.Int64

	mu   sync.Mutex
	host state.Host

	saves   sync.WaitGroup
	saveMu  sync.Mutex
	lastSeq atomic.Int64
}

// New creates an overlay and loads the ignore list from the store. A store
// that fails to load is logged and the list starts empty.
func New(ctx context.Context, opts Options) *Overlay {
	o := &Overlay{
		sender: opts.Sender,
		store:  opts.Store,
		log:    logging.OrNop(opts.Logger),
	}
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}
	o.deb = NewDebouncer(delay, func() { o.dispatchMeta(flushMeta{}) })
	if o.store != nil {
		phrases, err := o.store.Load(ctx)
		if err != nil {
			o.log.Warn("load ignore list", "error", err)
		}
		o.ignored = phrases
	}
	return o
}

type (
	flushMeta      struct{}
	requestAllMeta struct{}
	ignoreMeta     struct{ phrase string }
	replaceMeta    struct{ phrases []string }
)

type inflight struct {
	Range
	deleted bool
}

type pluginState struct {
	ignore   map[string]bool
	decos    *decoration.Set
	inflight map[int64]inflight
}

func (ps *pluginState) clone() *pluginState {
	out := &pluginState{
		ignore:   make(map[string]bool, len(ps.ignore)),
		decos:    ps.decos,
		inflight: make(map[int64]inflight, len(ps.inflight)),
	}
	for k := range ps.ignore {
		out.ignore[k] = true
	}
	for k, v := range ps.inflight {
		out.inflight[k] = v
	}
	return out
}

func get(s *state.State) *pluginState {
	ps, _ := PluginKey.State(s).(*pluginState)
	return ps
}

// Plugin returns the overlay's plugin. Mount it in one state only.
func (o *Overlay) Plugin() *state.Plugin {
	return &state.Plugin{
		Key: PluginKey,
		State: &state.StateField{
			Init: func(*state.State) any {
				ps := &pluginState{ignore: map[string]bool{}, decos: decoration.Empty, inflight: map[int64]inflight{}}
				for _, p := range o.ignored {
					ps.ignore[p] = true
				}
				return ps
			},
			Apply: func(tr *state.Transaction, v any, _, _ *state.State) any {
				return o.apply(tr, v.(*pluginState))
			},
		},
		Props: state.Props{
			Decorations: func(s *state.State) *decoration.Set { return Decorations(s) },
		},
		View: func(host state.Host) state.PluginView {
			o.attach(host)
			o.RequestAll()
			return overlayView{o}
		},
	}
}

type overlayView struct{ o *Overlay }

func (v overlayView) Update(*state.State) {}
func (v overlayView) Destroy()            { v.o.detach() }

func (o *Overlay) attach(host state.Host) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.host = host
}

func (o *Overlay) detach() {
	o.mu.Lock()
	o.host = nil
	o.mu.Unlock()
	o.deb.Stop()
}

// Close detaches the overlay and waits for pending ignore-list saves.
func (o *Overlay) Close() {
	o.detach()
	o.saves.Wait()
}

// Updater is implemented by hosts that can build a transaction against
// their current state atomically.
type Updater interface {
	Update(build func(s *state.State) *state.Transaction) error
}

// dispatchMeta hands meta to the plugin through the attached host. Without
// a host the meta is dropped.
func (o *Overlay) dispatchMeta(meta any) {
	o.mu.Lock()
	host := o.host
	o.mu.Unlock()
	if host == nil {
		return
	}
	build := func(s *state.State) *state.Transaction { return s.Tr().SetMeta(PluginKey, meta) }
	if u, ok := host.(Updater); ok {
		if err := u.Update(build); err != nil {
			o.log.Debug("suggestion meta dropped", "error", err)
		}
		return
	}
	for range 3 {
		err := host.Dispatch(build(host.State()))
		if !errors.Is(err, state.ErrMismatchedTransaction) {
			if err != nil {
				o.log.Debug("suggestion meta dropped", "error", err)
			}
			return
		}
	}
}

// RequestAll requests suggestions for the whole document. It is called on
// mount and should be called again whenever the channel reconnects.
func (o *Overlay) RequestAll() { o.dispatchMeta(requestAllMeta{}) }

// Flush sends the pending range now instead of waiting for the timer.
func (o *Overlay) Flush() { o.dispatchMeta(flushMeta{}) }

// Receive feeds a service response into the overlay. Safe to call from any
// goroutine.
func (o *Overlay) Receive(resp Response) { o.dispatchMeta(resp) }

// ReplaceIgnored replaces the ignore list, for example after another
// process changed the store. Decorations of newly ignored phrases are
// removed.
func (o *Overlay) ReplaceIgnored(phrases []string) {
	o.dispatchMeta(replaceMeta{phrases: append([]string(nil), phrases...)})
}

func (o *Overlay) apply(tr *state.Transaction, ps *pluginState) *pluginState {
	if tr.DocChanged() {
		ps = remap(ps, tr.Mapping)
		o.deb.Map(tr.Mapping)
		if r, ok := touched(tr.Mapping, tr.Doc.Content().Size()); ok {
			o.deb.Queue(expandWord(tr.Doc, r))
		}
	}
	switch m := tr.Meta(PluginKey).(type) {
	case flushMeta:
		if r, ok := o.deb.Take(); ok {
			ps = o.request(ps, tr.Doc, r)
		}
	case requestAllMeta:
		ps = o.request(ps, tr.Doc, Range{From: 0, To: tr.Doc.Content().Size()})
	case Response:
		ps = o.receive(ps, tr.Doc, m)
	case ignoreMeta:
		ps = o.ignore(ps, []string{m.phrase})
		o.persist(ignoreList(ps))
	case replaceMeta:
		next := ps.clone()
		next.ignore = map[string]bool{}
		ps = o.ignore(next, m.phrases)
	}
	return ps
}

// remap moves decorations and in-flight ranges through m. An in-flight
// range whose text is gone is kept as deleted so its response is dropped.
func remap(ps *pluginState, m *transform.Mapping) *pluginState {
	next := ps.clone()
	next.decos = ps.decos.Map(m)
	for id, fl := range next.inflight {
		if fl.deleted {
			continue
		}
		from, to := m.Map(fl.From, -1), m.Map(fl.To, 1)
		if to <= from {
			next.inflight[id] = inflight{deleted: true}
			continue
		}
		next.inflight[id] = inflight{Range: Range{From: from, To: to}}
	}
	return next
}

// touched returns the union of the ranges changed by m, in the final
// document's coordinates.
func touched(m *transform.Mapping, size int) (Range, bool) {
	var r Range
	ok := false
	maps := m.Maps()
	for i, sm := range maps {
		rest := m.Slice(i+1, len(maps))
		sm.ForEach(func(_, _, newStart, newEnd int) {
			c := Range{From: rest.Map(newStart, -1), To: rest.Map(newEnd, 1)}
			if ok {
				r = r.Union(c)
			} else {
				r, ok = c, true
			}
		})
	}
	if !ok {
		return Range{}, false
	}
	r.From, r.To = max(0, min(r.From, size)), max(0, min(r.To, size))
	return r, true
}

// expandWord grows r outward to the nearest non-word characters.
func expandWord(doc *model.Node, r Range) Range {
	size := doc.Content().Size()
	for pad := 32; ; pad *= 2 {
		lo, hi := max(0, r.From-pad), min(size, r.To+pad)
		text := []rune(doc.AlignedText(lo, hi))
		from, to := textseg.ExpandWord(text, r.From-lo, r.To-lo)
		if (from > 0 || lo == 0) && (to < len(text) || hi == size) {
			return Range{From: lo + from, To: lo + to}
		}
	}
}

func (o *Overlay) request(ps *pluginState, doc *model.Node, r Range) *pluginState {
	text := doc.AlignedText(r.From, r.To)
	if r.Empty() || textseg.IsBlank(text) || o.sender == nil {
		return ps
	}
	id := o.nextID.Add(1)
	req := Request{Key: Key{ID: id, From: r.From, To: r.To}, Text: text}
	if err := o.sender.Send(req); err != nil {
		o.log.Debug("suggestion request dropped", "id", id, "error", err)
		return ps
	}
	next := ps.clone()
	next.inflight[id] = inflight{Range: r}
	return next
}

func (o *Overlay) receive(ps *pluginState, doc *model.Node, resp Response) *pluginState {
	size := doc.Content().Size()
	fl, ok := ps.inflight[resp.Key.ID]
	next := ps.clone()
	delete(next.inflight, resp.Key.ID)
	var r Range
	switch {
	case ok && fl.deleted:
		return next
	case ok:
		r = fl.Range
	default:
		// Unknown id: trust the echoed range as far as it still fits.
		r = Range{From: max(0, min(resp.Key.From, size)), To: max(0, min(resp.Key.To, size))}
	}
	if r.Empty() {
		return next
	}
	text := []rune(doc.AlignedText(r.From, r.To))
	var add []decoration.Decoration
	for _, sg := range resp.Suggestions {
		if sg.Phrase == "" || next.ignore[sg.Phrase] {
			continue
		}
		n := utf8.RuneCountInString(sg.Phrase)
		for _, off := range textseg.FindWord(text, sg.Phrase) {
			from := r.From + off
			add = append(add, decoration.Decoration{From: from, To: from + n, Kind: Kind, Payload: sg})
		}
	}
	next.decos = next.decos.RemoveInside(r.From, r.To).Add(add...)
	return next
}

func (o *Overlay) ignore(ps *pluginState, phrases []string) *pluginState {
	next := ps.clone()
	for _, p := range phrases {
		if p != "" {
			next.ignore[p] = true
		}
	}
	next.decos = next.decos.Remove(func(d decoration.Decoration) bool {
		sg, ok := d.Payload.(Suggestion)
		return d.Kind == Kind && ok && next.ignore[sg.Phrase]
	})
	return next
}

// persist saves phrases in the background. A save superseded by a newer
// one is skipped.
func (o *Overlay) persist(phrases []string) {
	if o.store == nil {
		return
	}
	seq := o.lastSeq.Add(1)
	o.saves.Add(1)
	go func() {
		defer o.saves.Done()
		o.saveMu.Lock()
		defer o.saveMu.Unlock()
		if o.lastSeq.Load() != seq {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := o.store.Save(ctx, phrases); err != nil {
			o.log.Warn("save ignore list", "error", err)
		}
	}()
}

// Ignore returns a command that stops suggesting phrase: its decorations
// are removed document-wide and the ignore list is persisted.
func Ignore(phrase string) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		ps := get(s)
		if ps == nil || phrase == "" || ps.ignore[phrase] {
			return false
		}
		if dispatch != nil {
			dispatch(s.Tr().SetMeta(PluginKey, ignoreMeta{phrase: phrase}))
		}
		return true
	}
}

// Apply returns a command replacing the text of the suggestion decoration
// d with candidate. It does not apply when the text no longer matches the
// phrase.
func Apply(candidate string, d decoration.Decoration) state.Command {
	return func(s *state.State, dispatch state.Dispatch) bool {
		sg, ok := d.Payload.(Suggestion)
		if !ok || d.Kind != Kind || candidate == "" {
			return false
		}
		if s.Doc.AlignedText(d.From, d.To) != sg.Phrase {
			return false
		}
		tr := s.Tr().InsertText(candidate, d.From, d.To)
		if tr.Err() != nil {
			return false
		}
		if dispatch != nil {
			dispatch(tr.SetSelection(state.Caret(d.From + utf8.RuneCountInString(candidate))))
		}
		return true
	}
}

// At returns the suggestion decoration covering pos, edges included.
func At(s *state.State, pos int) (decoration.Decoration, Suggestion, bool) {
	for _, d := range Decorations(s).Find(pos, pos) {
		if sg, ok := d.Payload.(Suggestion); ok && d.Kind == Kind {
			return d, sg, true
		}
	}
	return decoration.Decoration{}, Suggestion{}, false
}

// Decorations returns the overlay's decorations in s.
func Decorations(s *state.State) *decoration.Set {
	if ps := get(s); ps != nil {
		return ps.decos
	}
	return decoration.Empty
}

// Ignored returns the ignore list in s, sorted.
func Ignored(s *state.State) []string {
	ps := get(s)
	if ps == nil {
		return nil
	}
	return ignoreList(ps)
}

// InFlight returns the number of requests awaiting a response.
func InFlight(s *state.State) int {
	if ps := get(s); ps != nil {
		return len(ps.inflight)
	}
	return 0
}

func ignoreList(ps *pluginState) []string {
	out := make([]string, 0, len(ps.ignore))
	for p := range ps.ignore {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
