package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// debounce collapses the burst of events editors produce on save.
const debounce = 200 * time.Millisecond

// Watch reloads the store whenever its catalog file changes, until ctx is
// done. Reload failures are logged and the previous snapshot is kept.
func (s *Store) Watch(ctx context.Context, log *logrus.Entry) error {
	if s.path == "" {
		return fmt.Errorf("built-in catalog cannot be watched")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of
	// writing it in place.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	go func() {
		defer w.Close()

		target := filepath.Clean(s.path)
		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounce)
				} else {
					timer.Reset(debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				if err := s.Reload(); err != nil {
					log.WithError(err).Warn("catalog reload failed, keeping previous snapshot")
					continue
				}
				log.WithField("version", s.Version()).Info("catalog reloaded")
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("catalog watcher error")
			}
		}
	}()
	return nil
}
