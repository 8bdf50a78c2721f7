package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AbeetoChan/tundraix/pkg/config"
)

// watchAndRun runs the script once, then reruns it on every change until
// interrupted. Editors often emit bursts of writes for one save, so
// events are debounced before rerunning.
func watchAndRun(logger *slog.Logger, cfg *config.Config, scriptPath string, disasm bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory rather than the file: editors that save via
	// rename replace the inode and would silently detach a file watch.
	dir := filepath.Dir(scriptPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("cannot watch %s: %w", dir, err)
	}

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	target := filepath.Clean(scriptPath)

	runOnce := func() {
		if err := compileAndRun(logger, scriptPath, disasm); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	logger.Info("watching", "path", scriptPath)
	runOnce()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			logger.Debug("change detected, rerunning", "path", scriptPath)
			runOnce()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
