package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/outfitter-dev/waymark/internal/scan"
	"github.com/outfitter-dev/waymark/internal/storage"
)

// Watcher event kinds passed to an EventCallback.
const (
	EventIndexed = "indexed"
	EventRemoved = "removed"
)

const reconcileDelay = 200 * time.Millisecond

// EventCallback is called after a watcher-driven cache change.
type EventCallback func(kind string, path string)

// Watch starts an fsnotify watcher on the workspace root and keeps the cache
// current until ctx is cancelled. It calls cb (if non-nil) after each
// successful cache mutation.
//
// New directories created at runtime are added to the watch list. Rename
// events trigger a debounced reconciliation pass that drops cache entries
// whose files are gone and indexes files that moved in.
func Watch(ctx context.Context, db WaymarkIndex, store storage.Provider, scanner *scan.Scanner, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, store, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	emit := func(kind, path string) {
		if cb != nil {
			cb(kind, path)
		}
	}

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(ctx, db, store, scanner, logger, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			rel, relErr := relPath(root, ev.Name)
			if relErr != nil || rel == "." {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if store.SkipDir(rel) {
						continue
					}
					if addErr := addDirsRecursive(w, store, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", rel),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", rel))
					}
					indexNewDir(ctx, db, store, scanner, rel, logger, emit)
					continue
				}
			}

			if !store.Match(rel) || !scanner.Wants(rel) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := IndexFile(db, scanner, rel, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				logger.Debug("watcher: indexed", slog.String("path", rel))
				emit(EventIndexed, rel)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteFile(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: removed", slog.String("path", rel))
				emit(EventRemoved, rel)

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path only; the new path shows up
				// as a Create when it lands in a watched directory.
				if delErr := db.DeleteFile(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					emit(EventRemoved, rel)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile runs a Sync pass and reports every path whose cache state
// changed.
func reconcile(ctx context.Context, db WaymarkIndex, store storage.Provider, scanner *scan.Scanner, logger *slog.Logger, emit func(kind, path string)) {
	before, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	if _, err := Sync(ctx, db, store, scanner, logger); err != nil {
		logger.Warn("reconcile: sync failed", slog.String("error", err.Error()))
		return
	}
	after, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	for p := range before {
		if _, ok := after[p]; !ok {
			emit(EventRemoved, p)
		}
	}
	for p, cs := range after {
		if before[p] != cs {
			emit(EventIndexed, p)
		}
	}
}

// indexNewDir indexes the files already present in a newly created
// directory.
func indexNewDir(ctx context.Context, db WaymarkIndex, store storage.Provider, scanner *scan.Scanner, dir string, logger *slog.Logger, emit func(kind, path string)) {
	metas, err := store.List(dir)
	if err != nil {
		logger.Warn("watcher: list new dir failed", slog.String("path", dir), slog.String("error", err.Error()))
		return
	}
	var paths []string
	for _, m := range metas {
		if scanner.Wants(m.Path) {
			paths = append(paths, m.Path)
		}
	}
	results, err := scanner.ScanPaths(ctx, store, paths)
	if err != nil {
		return
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		if idxErr := upsertResult(db, scanner, res); idxErr == nil {
			logger.Debug("watcher: indexed from new dir", slog.String("path", res.Path))
			emit(EventIndexed, res.Path)
		}
	}
}

// addDirsRecursive adds dir and its unpruned subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, store storage.Provider, dir string) error {
	root := store.Root()
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := relPath(root, path); relErr == nil && rel != "." && store.SkipDir(rel) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func relPath(root, abs string) (string, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(rel, "..") {
		return "", fs.ErrInvalid
	}
	return filepath.ToSlash(rel), nil
}
