// Package inbox feeds emails dropped into a directory through triage.
// Files matching the configured extension are triaged once writes to them
// have settled, then moved out of the inbox.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kcvinod/triage/internal/triage"
	"github.com/kcvinod/triage/pkg/lifecycle"
)

// ErrNotMatched is returned by Process for files outside the inbox filter.
var ErrNotMatched = errors.New("file does not match inbox extension")

// Triager runs one triage over a raw email.
type Triager interface {
	Triage(ctx context.Context, raw string) (*triage.Outcome, error)
}

// Watcher triages files written into an inbox directory.
type Watcher struct {
	cfg     Config
	triager Triager
	logger  *slog.Logger

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timers  map[string]*time.Timer
	running sync.WaitGroup
}

// New creates a Watcher over cfg.Dir. The directory is created if missing.
func New(cfg *Config, triager Triager, logger *slog.Logger) (*Watcher, error) {
	for _, dir := range []string{cfg.Dir, cfg.ProcessedDir, cfg.FailedDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		cfg:     *cfg,
		triager: triager,
		logger:  logger.With("system", "inbox"),
		watcher: fw,
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Start watches the inbox until the lifecycle context is cancelled. Files
// already present are triaged once startup completes.
func (w *Watcher) Start(lc *lifecycle.Coordinator) error {
	if err := w.watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	ctx := lc.Context()
	w.logger.Info("watching inbox", "dir", w.cfg.Dir, "extension", w.cfg.Extension)

	lc.OnStartup(func() {
		if err := w.Scan(ctx); err != nil {
			w.logger.Error("inbox scan failed", "error", err)
		}
	})

	go w.loop(ctx)

	lc.OnShutdown(func() {
		<-ctx.Done()
		w.stopTimers()
		w.running.Wait()

		if err := w.watcher.Close(); err != nil {
			w.logger.Error("inbox watcher close failed", "error", err)
			return
		}
		w.logger.Info("inbox watcher closed")
	})

	return nil
}

// Scan triages every matching file currently in the inbox.
func (w *Watcher) Scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read inbox: %w", err)
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		path := filepath.Join(w.cfg.Dir, e.Name())
		if e.IsDir() || !w.matches(path) {
			continue
		}
		if err := w.Process(ctx, path); err != nil {
			w.logger.Error("inbox file failed", "path", path, "error", err)
		}
	}
	return nil
}

// Process triages the file at path and moves it to the processed or failed
// directory.
func (w *Watcher) Process(ctx context.Context, path string) error {
	if !w.matches(path) {
		return fmt.Errorf("%w: %s", ErrNotMatched, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	out, err := w.triager.Triage(ctx, string(data))
	if err != nil {
		if ctx.Err() == nil {
			w.move(path, w.cfg.FailedDir)
		}
		return fmt.Errorf("triage %s: %w", path, err)
	}

	w.logger.InfoContext(
		ctx, "inbox file triaged",
		"path", path,
		"run_id", out.RunID,
		"route", out.State.Route,
	)
	w.move(path, w.cfg.ProcessedDir)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("inbox watch error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.matches(event.Name) {
		return
	}

	w.logger.Debug("inbox event", "path", event.Name, "op", event.Op.String())
	w.schedule(ctx, event.Name)
}

// schedule defers processing of path until no write has touched it for the
// settle duration.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(w.cfg.SettleDuration())
		return
	}

	var t *time.Timer
	w.running.Add(1)
	t = time.AfterFunc(w.cfg.SettleDuration(), func() {
		defer w.running.Done()

		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		if _, err := os.Stat(path); err != nil {
			return
		}
		if err := w.Process(ctx, path); err != nil {
			w.logger.Error("inbox file failed", "path", path, "error", err)
		}
	})
	w.timers[path] = t
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.timers {
		if t.Stop() {
			w.running.Done()
		}
		delete(w.timers, path)
	}
}

func (w *Watcher) matches(path string) bool {
	return filepath.Ext(path) == w.cfg.Extension
}

func (w *Watcher) move(path, dir string) {
	if dir == "" {
		return
	}

	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		w.logger.Error("inbox move failed", "path", path, "dest", dest, "error", err)
	}
}
