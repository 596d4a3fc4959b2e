package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/iw2rmb/quire/blocks"
	"github.com/iw2rmb/quire/editor"
	"github.com/iw2rmb/quire/history"
	"github.com/iw2rmb/quire/internal/config"
	"github.com/iw2rmb/quire/internal/logging"
	"github.com/iw2rmb/quire/internal/metrics"
	"github.com/iw2rmb/quire/model"
	"github.com/iw2rmb/quire/state"
	"github.com/iw2rmb/quire/suggest"
	"github.com/iw2rmb/quire/suggest/ignorestore"
	"github.com/iw2rmb/quire/suggest/wsclient"
	"github.com/iw2rmb/quire/view"
)

const placeholder = "Start writing. # for a heading, - for a list, [] for a task."

func run(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	store, closeStore := openStore(cfg)
	defer closeStore()

	reg := metrics.NewRegistry()
	var overlay *suggest.Overlay
	var client *wsclient.Client
	opts := suggest.Options{Store: store, Debounce: cfg.Debounce(), Logger: log}
	if cfg.Suggest.URL != "" {
		client = wsclient.New(wsclient.Options{
			URL:       cfg.Suggest.URL,
			Handler:   func(resp suggest.Response) { overlay.Receive(resp) },
			OnConnect: func() { overlay.RequestAll() },
			QueueSize: cfg.Suggest.QueueSize,
			Metrics:   wsclient.NewMetrics(reg),
			Logger:    log,
		})
		opts.Sender = client
	}
	overlay = suggest.New(ctx, opts)

	data, err := os.ReadFile(cfg.Document.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read document: %w", err)
	}
	doc := model.LoadOrEmpty(blocks.Schema, data, log)

	st, err := blocks.NewState(blocks.Config{
		History:     history.Options{Depth: cfg.History.Depth, GroupDelay: cfg.GroupDelay()},
		Placeholder: placeholder,
		Extra:       []*state.Plugin{overlay.Plugin()},
	}, doc)
	if err != nil {
		return fmt.Errorf("create state: %w", err)
	}

	var prog atomic.Pointer[tea.Program]
	v, err := view.New(view.Options{
		State:  st,
		Logger: log,
		OnChange: editor.ChangeNotifier(func(msg tea.Msg) {
			if p := prog.Load(); p != nil {
				p.Send(msg)
			}
		}),
	})
	if err != nil {
		return fmt.Errorf("create view: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	gctx, quit := context.WithCancel(gctx)
	defer quit()

	p := tea.NewProgram(newApp(v, cfg.Document.Path, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(gctx),
	)
	prog.Store(p)

	if client != nil {
		g.Go(func() error { return client.Run(gctx) })
	}
	if f, ok := store.(*ignorestore.File); ok {
		g.Go(func() error {
			// Losing the watch only loses live reloads; keep editing.
			if err := f.Watch(gctx, overlay.ReplaceIgnored); err != nil {
				log.Warn("ignore list watch stopped", "path", f.Path(), "error", err)
			}
			return nil
		})
	}
	if cfg.Metrics.Addr != "" {
		g.Go(func() error { return metrics.Serve(gctx, cfg.Metrics.Addr, reg, log) })
	}
	g.Go(func() error {
		defer quit()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	err = g.Wait()

	v.Destroy()
	overlay.Close()
	if client != nil {
		_ = client.Close()
	}
	if serr := saveDocument(cfg.Document.Path, v.State().Doc); serr != nil {
		return errors.Join(err, serr)
	}
	return err
}

// openLog writes logs next to the document; the terminal belongs to the
// editor.
func openLog(cfg *config.Config) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	dir := filepath.Dir(cfg.Document.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "quire.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return logging.NewWriter(f, level), func() { _ = f.Close() }, nil
}

func openStore(cfg *config.Config) (ignorestore.Store, func()) {
	switch cfg.Ignore.Store {
	case config.StoreFile:
		return ignorestore.NewFile(cfg.Ignore.Path), func() {}
	case config.StoreRedis:
		r := ignorestore.NewRedis(cfg.Ignore.RedisAddr, "", 0)
		return r, func() { _ = r.Close() }
	default:
		return ignorestore.NewMemory(), func() {}
	}
}

// saveDocument writes doc as portable JSON, replacing path atomically.
func saveDocument(path string, doc *model.Node) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create document dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
