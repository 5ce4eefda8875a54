package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// settle is how long Watch waits for a burst of events to end.
const settle = 100 * time.Millisecond

// Watch calls onChange after path is written, created or renamed into place.
// The parent directory is watched so editors that replace the file are
// noticed. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func()) error {
	if path == "" {
		return ErrNoConfig
	}
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	log.Debugf("Watching %s for changes", path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			log.Debugf("Change detected: %s", ev)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(settle, onChange)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Watcher error on %s: %v", path, err)
		}
	}
}
