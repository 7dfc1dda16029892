package repository

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"mfbox/logger"
)

// Watch reloads the library whenever another process replaces the backing
// file (a CLI invocation while the server is running, or a sync pull).
// The watcher runs until stop is closed. Because Save renames a temp file
// into place, the interesting events are Create and Rename on the library
// path, not Write.
func (r *LibraryRepository) Watch(onChange func(), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: the library file itself is replaced on every
	// save, which would invalidate a watch on the file.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		base := filepath.Base(r.path)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != base {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Write) != 0 {
					logger.Debug("library file changed, reloading",
						logger.String("op", event.Op.String()))
					onChange()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("library watcher error", logger.ErrorField(err))
			case <-stop:
				return
			}
		}
	}()
	return nil
}
