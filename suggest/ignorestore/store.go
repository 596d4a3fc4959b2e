// Package ignorestore persists the suggestion ignore list outside the
// document.
package ignorestore

import (
	"context"
	"sync"
)

// Key is the well-known identifier the ignore list is stored under.
const Key = "quire.suggestion.ignore"

// Store loads and saves the ignore list. Load of a list that was never
// saved returns an empty list and no error.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, phrases []string) error
}

// normalize drops empty and repeated phrases, keeping first occurrences.
func normalize(phrases []string) []string {
	seen := make(map[string]bool, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	phrases []string
}

// NewMemory returns a Memory store holding phrases.
func NewMemory(phrases ...string) *Memory {
	return &Memory{phrases: normalize(phrases)}
}

func (m *Memory) Load(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.phrases...), nil
}

func (m *Memory) Save(_ context.Context, phrases []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phrases = normalize(phrases)
	return nil
}
