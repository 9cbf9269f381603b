// Package watch monitors a directory for finished instrument logs. The
// console writes a log incrementally over a whole measurement run, so a
// file only counts as ready once it has stopped changing for a settle
// interval.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory and reports settled log files.
type Watcher struct {
	watcher    *fsnotify.Watcher
	mu         sync.Mutex
	processing map[string]bool

	// Settle is how long a file must stay unchanged before OnLog fires.
	Settle time.Duration

	// Pattern is a glob matched against base names; empty matches all.
	Pattern string

	// OnLog is called once per settled file, from the watch goroutine.
	OnLog func(path string)

	// OnError receives watcher failures.
	OnError func(err error)
}

// New creates a Watcher with the given settle interval.
func New(settle time.Duration, pattern string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{
		watcher:    fsWatcher,
		processing: make(map[string]bool),
		Settle:     settle,
		Pattern:    pattern,
	}, nil
}

// Add starts watching a directory.
func (w *Watcher) Add(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}
	if err := w.watcher.Add(abs); err != nil {
		return fmt.Errorf("watching %s: %w", abs, err)
	}
	return nil
}

// Run blocks until ctx is canceled, dispatching OnLog for every file that
// matches the pattern and stops changing for the settle interval.
func (w *Watcher) Run(ctx context.Context) error {
	timers := make(map[string]*time.Timer)
	var timerMu sync.Mutex

	defer func() {
		timerMu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.matches(event.Name) {
				continue
			}

			path := event.Name

			// Every write pushes the settle deadline out again.
			timerMu.Lock()
			if t, exists := timers[path]; exists {
				t.Stop()
			}
			timers[path] = time.AfterFunc(w.Settle, func() {
				w.dispatch(path)
			})
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}

// matches reports whether a path's base name matches the pattern.
func (w *Watcher) matches(path string) bool {
	if w.Pattern == "" {
		return true
	}
	ok, err := filepath.Match(w.Pattern, filepath.Base(path))
	return err == nil && ok
}

// dispatch fires OnLog once the file has genuinely settled. A deleted or
// renamed file is silently dropped.
func (w *Watcher) dispatch(path string) {
	stat, err := os.Stat(path)
	if err != nil {
		return
	}
	if stat.IsDir() {
		return
	}

	w.mu.Lock()
	if w.processing[path] {
		w.mu.Unlock()
		return
	}
	w.processing[path] = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.processing[path] = false
		w.mu.Unlock()
	}()

	if w.OnLog != nil {
		w.OnLog(path)
	}
}
