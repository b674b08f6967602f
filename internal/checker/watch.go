package checker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchOptions configure Watch.
type WatchOptions struct {
	// Debounce is how long to wait after the last change before re-running.
	Debounce time.Duration
	// Dirs are extra directories whose YAML files trigger a re-run, such as a
	// profiles directory.
	Dirs []string
}

// Watch calls run once and then again after every change to one of paths or
// to a profile file in opts.Dirs, until ctx is done. Bursts of events within
// opts.Debounce collapse into one run. Runs never overlap.
func Watch(ctx context.Context, logger *slog.Logger, paths []string, opts WatchOptions, run func(context.Context)) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files instead of writing them in place, so watch
	// the parent directories and filter by name.
	targets := make(map[string]struct{}, len(paths))
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	profileDirs := make(map[string]struct{}, len(opts.Dirs))
	for _, d := range opts.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return err
		}
		profileDirs[abs] = struct{}{}
		dirs[abs] = struct{}{}
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	run(ctx)

	var debounce <-chan time.Time
	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !relevant(event.Name, targets, profileDirs) {
				continue
			}
			logger.Debug("change detected", slog.String("path", event.Name), slog.String("op", event.Op.String()))

			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(opts.Debounce)
			debounce = timer.C

		case <-debounce:
			debounce = nil
			run(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func relevant(name string, targets, profileDirs map[string]struct{}) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if _, ok := targets[abs]; ok {
		return true
	}
	if _, ok := profileDirs[filepath.Dir(abs)]; ok {
		ext := filepath.Ext(abs)
		return ext == ".yaml" || ext == ".yml"
	}
	return false
}
