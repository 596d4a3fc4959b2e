package ignorestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// File stores the ignore list in a JSON object file under Key. Other keys in
// the object are preserved.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile returns a store backed by the file at path.
func NewFile(path string) *File { return &File{path: path} }

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) readObject() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ignore list: %w", err)
	}
	obj := map[string]json.RawMessage{}
	if len(data) == 0 {
		return obj, nil
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse ignore list %s: %w", f.path, err)
	}
	return obj, nil
}

func (f *File) Load(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, err := f.readObject()
	if err != nil {
		return nil, err
	}
	raw, ok := obj[Key]
	if !ok {
		return []string{}, nil
	}
	var phrases []string
	if err := json.Unmarshal(raw, &phrases); err != nil {
		return nil, fmt.Errorf("parse ignore list %s: %w", f.path, err)
	}
	return normalize(phrases), nil
}

// Save rewrites the file through a temporary file and a rename.
func (f *File) Save(_ context.Context, phrases []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, err := f.readObject()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(normalize(phrases))
	if err != nil {
		return fmt.Errorf("encode ignore list: %w", err)
	}
	obj[Key] = raw
	data, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ignore list: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ignore list dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".ignore-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write ignore list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write ignore list: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace ignore list: %w", err)
	}
	return nil
}

const watchDebounce = 50 * time.Millisecond

// Watch calls onChange with the reloaded list whenever the file is written
// by another process, until ctx is done. Bursts of events are coalesced.
func (f *File) Watch(ctx context.Context, onChange func([]string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ignore list dir: %w", err)
	}
	// The directory is watched since Save replaces the file by rename.
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Clean(f.path)
	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			phrases, err := f.Load(ctx)
			if err != nil {
				continue
			}
			onChange(phrases)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
}
