package vault

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	pkgLogger "github.com/vaultpilot/vaultpilot/pkg/logger"
)

var watcherLogger = pkgLogger.NewComponentLogger("vault-watcher")

// Watch starts an fsnotify watcher on the store's root and invalidates the
// derived-metadata cache for every document changed outside the assistant
// (the host editor, sync tooling) until ctx is cancelled.
//
// New directories created at runtime are added to the watch list.
func Watch(ctx context.Context, store *FS) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, store.Root()); err != nil {
		return err
	}
	watcherLogger.InfoWithIntention(pkgLogger.IntentionStatus, "vault watcher started", "root", store.Root())

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						watcherLogger.Warn("failed to watch new directory", "path", ev.Name, "error", addErr)
					}
					continue
				}
			}
			rel, relErr := filepath.Rel(store.Root(), ev.Name)
			if relErr != nil {
				continue
			}
			vaultPath := filepath.ToSlash(rel)
			if strings.HasPrefix(vaultPath, trashDirName+"/") {
				continue
			}
			store.Invalidate(vaultPath)
			watcherLogger.DebugWithIntention(pkgLogger.IntentionDebug, "invalidated metadata cache",
				"path", vaultPath, "op", ev.Op.String())

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			watcherLogger.Warn("vault watcher error", "error", err)
		}
	}
}

// addDirsRecursive registers dir and every subdirectory with the watcher,
// skipping the trash directory.
func addDirsRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == trashDirName {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
