package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchProfiles reloads the profile file at path whenever it is written and
// hands the new set to onChange. A reload that fails to parse or validate is
// logged and the previous set stays active. It runs until ctx is cancelled.
func WatchProfiles(ctx context.Context, path string, logger *slog.Logger, onChange func(Profiles)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Saves that rename a temp file over path drop a watch held on the file
	// itself, so watch its directory and filter by name.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	logger.Info("watching analysis profiles", "path", path)

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			profiles, err := LoadProfiles(path)
			if err != nil {
				logger.Error("profile reload failed, keeping previous set", "path", path, "error", err)
				continue
			}

			logger.Info("analysis profiles reloaded", "path", path, "profiles", len(profiles))
			onChange(profiles)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("profile watcher error", "error", err)
		}
	}
}
