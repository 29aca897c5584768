package prompts

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher evicts cached templates when their backing files change.
//
// It watches the template root directory; write, remove, and rename
// events on *.txt files evict the corresponding cache entry so the next
// Resolve re-reads the store.
type Watcher struct {
	cache   *Cache
	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// NewWatcher creates a watcher for the given template root and starts
// its event loop.
func NewWatcher(root string, cache *Cache) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsWatcher.Add(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	w := &Watcher{
		cache:   cache,
		watcher: fsWatcher,
		done:    make(chan struct{}),
		logger:  slog.Default().With("component", "prompts.watcher"),
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("template watcher started", "root", root)
	return w, nil
}

// loop drains filesystem events until Close is called.
func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("template watch error", "error", err)

		case <-w.done:
			return
		}
	}
}

// handleEvent evicts the template whose file the event refers to.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) && !event.Op.Has(fsnotify.Create) {
		return
	}

	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, ".txt") {
		return
	}

	name := strings.TrimSuffix(base, ".txt")
	w.cache.Evict(name)

	w.logger.Debug("template file changed",
		"template", name,
		"op", event.Op.String(),
	)
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}
