package cmd

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/fsnotify/fsnotify"

	"github.com/Rana718/sqlir/internal/build"
	"github.com/Rana718/sqlir/internal/config"
	"github.com/Rana718/sqlir/internal/utils"
)

const debounce = 200 * time.Millisecond

// watchBuild builds once, then again after every burst of changes to files
// matched by the query or migration patterns. Bursts that leave the files as
// they were are ignored. Build errors are reported and the watch goes on.
func watchBuild(ctx context.Context, cfg *config.Config) error {
	printer := utils.Default()
	patterns := append(cfg.QueryPatterns(), cfg.MigrationPatterns()...)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, dir := range watchDirs(patterns) {
		if err := watcher.Add(dir); err != nil {
			printer.Warn("cannot watch %s: %v", dir, err)
		}
	}

	var last string
	rebuild := func() {
		sum, err := build.Fingerprint(patterns)
		if err == nil && sum == last {
			return
		}
		last = sum
		if err := runBuild(ctx, cfg); err != nil {
			printer.Fail(err)
		}
	}
	rebuild()
	printer.Info("Watching for changes (ctrl-c to stop)")

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					watcher.Add(event.Name)
				}
			}
			if matchesAny(patterns, event.Name) {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printer.Warn("watch error: %v", err)
		case <-timer.C:
			rebuild()
		}
	}
}

// watchDirs returns every directory below the literal prefix of each pattern.
func watchDirs(patterns []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, pattern := range patterns {
		root := globRoot(pattern)
		filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if !seen[path] {
				seen[path] = true
				dirs = append(dirs, path)
			}
			return nil
		})
	}
	return dirs
}

func globRoot(pattern string) string {
	dir := filepath.Dir(pattern)
	for strings.ContainsAny(dir, "*?[{") {
		dir = filepath.Dir(dir)
	}
	return dir
}

func matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(path)); ok {
			return true
		}
	}
	return false
}
