package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sgranade/choicescript-vscode-sub001/core/source"
)

// Watch re-indexes scene files as they change until ctx is cancelled.
// onChange, if not nil, is called with the URIs of the documents that were
// re-indexed or removed. Calls to onChange are serialized.
func (w *Workspace) Watch(ctx context.Context, onChange func(uris []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.SceneDir()); err != nil {
		return fmt.Errorf("watch %s: %w", w.SceneDir(), err)
	}
	w.logger.Debug("watching scenes", "dir", w.SceneDir(), "debounce", w.cfg.Debounce())

	d := newDebouncer(w.cfg.Debounce())
	defer d.stop()

	var mu sync.Mutex
	notify := func(uris []string) {
		if onChange == nil || len(uris) == 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		onChange(uris)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSceneFile(ev.Name) || w.cfg.Ignored(filepath.Base(ev.Name)) {
				continue
			}
			w.logger.Debug("watcher event", "path", ev.Name, "op", ev.Op.String())

			path := ev.Name
			switch {
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				d.cancel(path)
				w.RemoveFile(path)
				notify([]string{source.FileURI(path)})
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				d.trigger(path, func() {
					notify(w.refresh(ctx, path))
				})
			}
		}
	}
}

// refresh re-indexes path and any scenes it newly references. It returns
// the URIs whose tables changed.
func (w *Workspace) refresh(ctx context.Context, path string) []string {
	w.refreshMu.Lock()
	defer w.refreshMu.Unlock()

	w.idx.SetFullyIndexed(false)
	defer w.idx.SetFullyIndexed(true)

	changed, err := w.IndexFile(path)
	if err != nil {
		w.logger.Warn("re-index failed", "path", path, "error", err)
		return nil
	}
	if !changed {
		return nil
	}
	before := w.idx.Documents()
	if err := w.indexReferencedScenes(ctx); err != nil {
		w.logger.Warn("scene discovery failed", "error", err)
	}

	uris := []string{source.FileURI(path)}
	seen := make(map[string]bool, len(before))
	for _, uri := range before {
		seen[uri] = true
	}
	for _, uri := range w.idx.Documents() {
		if !seen[uri] {
			uris = append(uris, uri)
		}
	}
	return uris
}

// debouncer runs a function for a key once the key has been quiet for the
// delay.
type debouncer struct {
	delay  time.Duration
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.timers[key] != t {
			d.mu.Unlock()
			return
		}
		delete(d.timers, key)
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

func (d *debouncer) cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
		delete(d.timers, key)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
