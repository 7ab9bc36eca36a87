package settings

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/texshare/internal/logx"
)

// Watch calls fn with freshly loaded settings every time the file at path
// is written or recreated. It watches the parent directory so editors that
// save by rename are seen. Files that fail to load are logged and skipped.
//
// Watch blocks until ctx is done; run it in its own goroutine.
func Watch(ctx context.Context, path string, fn func(*Data)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings: watch: %w", err)
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("settings: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			d, err := Load(path)
			if err != nil {
				logx.Logger().Warn("settings: reload failed", "path", path, "err", err)
				continue
			}
			fn(d)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logx.Logger().Warn("settings: watch error", "path", path, "err", err)
		}
	}
}
