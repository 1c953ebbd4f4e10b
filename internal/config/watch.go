package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile watches the config file for changes while a monitoring session
// runs and logs that a restart is required when it changes. The monitored
// chat set is fixed per session, so there is no hot reload; the watcher only
// tells the operator their edit has not taken effect yet.
//
// WatchFile blocks until ctx is cancelled. A watcher setup failure is logged
// and returns immediately; config change detection is best effort.
func WatchFile(ctx context.Context, path string, logger *slog.Logger) {
	if path == "" {
		return
	}
	path = expandHome(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("failed to create config watcher", "error", err)
		return
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors typically replace the file
	// by rename, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		logger.Warn("failed to watch config directory", "path", path, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			logger.Warn("config file changed; restart required for changes to take effect",
				"file", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}
