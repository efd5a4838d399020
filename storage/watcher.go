package storage

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher observes the local store directory and logs files that are
// removed or renamed outside the API. A blob vanishing behind the
// service's back leaves track records pointing at nothing.
type Watcher struct {
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// NewWatcher starts watching the given local store.
func NewWatcher(store *LocalStore, log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(store.Root()); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{watcher: w, log: log}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				w.log.Warn("stored blob removed outside the API; track records referencing it are now inconsistent",
					zap.String("path", event.Name),
					zap.String("op", event.Op.String()))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("store watcher error", zap.Error(err))
		}
	}
}
