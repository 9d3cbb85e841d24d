package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/territoryops/recon/pkg/config"
)

// watchConfig reloads the global configuration whenever the file at path
// is written, created or renamed into place, and passes the new
// configuration to onReload. The parent directory is watched so that
// editors replacing the file are seen. It returns when ctx is done.
func watchConfig(ctx context.Context, path string, logger *logrus.Logger, onReload func(*config.ReconConfig)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	log := logger.WithField("config_file", path)
	log.Info("watching configuration for changes")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if err := config.Reload(); err != nil {
				log.WithError(err).Error("failed to reload configuration, keeping previous values")
				continue
			}
			log.Info("configuration reloaded")
			if onReload != nil {
				onReload(config.Get())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		case <-ctx.Done():
			return nil
		}
	}
}
