package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce lets editors finish writing (temp file + rename) before reloading
const reloadDebounce = 100 * time.Millisecond

// Watch reloads path whenever it changes and passes the new configuration to
// onChange. Invalid files are logged and skipped; the previous configuration
// stays in effect. Watch blocks until ctx is done.
//
// The parent directory is watched rather than the file itself, so atomic
// saves and files created after startup are picked up.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(path)
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			pending = time.After(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[CONFIG] Warning: watcher error: %v", err)

		case <-pending:
			pending = nil
			cfg, err := Load(path)
			if err != nil {
				log.Printf("[CONFIG] Warning: keeping previous configuration: %v", err)
				continue
			}
			log.Printf("[CONFIG] Reloaded %s", path)
			onChange(cfg)
		}
	}
}
