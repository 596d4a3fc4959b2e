// Package spelltest is a stub suggestion service: a WebSocket endpoint
// that answers each request with the dictionary entries found in its text.
package spelltest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/iw2rmb/quire/internal/logging"
	"github.com/iw2rmb/quire/internal/textseg"
	"github.com/iw2rmb/quire/suggest"
)

// Dictionary maps misspelt words to their candidates.
type Dictionary map[string][]string

// Handler serves the suggestion protocol over WebSocket.
type Handler struct {
	Dict   Dictionary
	Logger *slog.Logger

	upgrader websocket.Upgrader

	mu       sync.Mutex
	requests []suggest.Request
	conns    map[*websocket.Conn]bool
}

// NewHandler returns a handler answering from dict.
func NewHandler(dict Dictionary) *Handler {
	return &Handler{Dict: dict, conns: map[*websocket.Conn]bool{}}
}

// Requests returns every request received so far.
func (h *Handler) Requests() []suggest.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]suggest.Request(nil), h.requests...)
}

// DropAll closes every open connection, as a restarting service would.
func (h *Handler) DropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.Close()
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logging.OrNop(h.Logger)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("upgrade", "error", err)
		return
	}
	h.mu.Lock()
	if h.conns == nil {
		h.conns = map[*websocket.Conn]bool{}
	}
	h.conns[conn] = true
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read", "error", err)
			}
			return
		}
		var req suggest.Request
		if err := json.Unmarshal(data, &req); err != nil {
			log.Debug("bad request", "error", err)
			continue
		}
		h.mu.Lock()
		h.requests = append(h.requests, req)
		h.mu.Unlock()
		if err := conn.WriteJSON(h.Check(req)); err != nil {
			return
		}
	}
}

// Check answers req: one suggestion per distinct dictionary word in the
// text, in order of first appearance.
func (h *Handler) Check(req suggest.Request) suggest.Response {
	resp := suggest.Response{Key: req.Key, Suggestions: []suggest.Suggestion{}}
	seen := map[string]bool{}
	for _, w := range Words(req.Text) {
		cands, ok := h.Dict[w]
		if !ok || seen[w] {
			continue
		}
		seen[w] = true
		resp.Suggestions = append(resp.Suggestions, suggest.Suggestion{Phrase: w, Candidates: cands})
	}
	return resp
}

// Words splits text into runs of word runes.
func Words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool { return !textseg.IsWordRune(r) })
}

// NewServer starts an httptest server for dict. Close it when done.
func NewServer(dict Dictionary) (*httptest.Server, *Handler) {
	h := NewHandler(dict)
	return httptest.NewServer(h), h
}

// URL returns the ws:// URL of srv.
func URL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}
