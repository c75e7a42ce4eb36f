// Package watch triggers suite re-runs when the example tree or the
// compiler binary changes on disk.
package watch

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault collapses bursts of file events (editor saves, build
// outputs) into a single trigger.
const debounceDefault = 500 * time.Millisecond

// TreeWatcher recursively watches a set of root directories and invokes
// a handler once per debounced burst of changes.
type TreeWatcher struct {
	roots    []string
	handler  func()
	debounce time.Duration
}

// New creates a watcher over the given roots. Roots that do not exist
// yet are skipped at startup.
func New(handler func(), roots ...string) *TreeWatcher {
	return &TreeWatcher{
		roots:    roots,
		handler:  handler,
		debounce: debounceDefault,
	}
}

// Run watches the roots until ctx is cancelled. The handler executes on
// the watch goroutine, so changes it makes itself (none in verification
// mode) cannot retrigger mid-run; events arriving while it runs fold
// into the next debounce window.
func (w *TreeWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, root := range w.roots {
		_ = addTree(watcher, root)
	}

	// Single debounce timer, reset on each event. Starts stopped.
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-timer.C:
			w.handler()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Newly created directories must join the watch set so
			// edits inside them are seen.
			if event.Has(fsnotify.Create) {
				_ = addTree(watcher, event.Name)
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = err
		}
	}
}

// addTree registers path and every directory below it. Non-directory
// paths and missing paths are ignored.
func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			_ = watcher.Add(path)
		}
		return nil
	})
}
