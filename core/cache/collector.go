package cache

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mfbox/config"
	"mfbox/logger"
	"mfbox/model"
)

// The library JSON owns the logical existence of every asset; the
// filesystem is a cache keyed by content identity. Anything under the
// asset root the library does not reference is reclaimable.

// UsedPaths walks every playlist cover and every audio path/cover in the
// library and returns the set of app-dir-relative paths still referenced.
// Separators are normalized to forward slashes so the set matches stored
// paths on every OS.
func UsedPaths(lib *model.Library) map[string]struct{} {
	used := make(map[string]struct{})
	addPath := func(p string) {
		if p != "" {
			used[strings.ReplaceAll(p, "\\", "/")] = struct{}{}
		}
	}

	for _, playlist := range lib.Playlists {
		addPath(playlist.CoverPath)
		for _, audio := range playlist.Audios {
			addPath(audio.Path)
			addPath(audio.CoverPath)
		}
	}
	for _, audio := range lib.Audios {
		addPath(audio.Path)
		addPath(audio.CoverPath)
	}
	return used
}

// Files returns the absolute paths of every regular file under the asset
// root whose app-dir-relative path the library does not reference. Entries
// that vanish mid-walk are skipped rather than failing the whole
// collection, since downloads and deletions run concurrently.
func Files(appDir string, lib *model.Library) ([]string, error) {
	assetsDir := filepath.Join(appDir, config.AssetsDirName)
	if _, err := os.Stat(assetsDir); os.IsNotExist(err) {
		return nil, nil
	}

	used := UsedPaths(lib)
	var cacheFiles []string

	err := filepath.WalkDir(assetsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entry disappeared under us, keep walking.
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(appDir, p)
		if err != nil {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		if _, ok := used[relSlash]; !ok {
			cacheFiles = append(cacheFiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cacheFiles, nil
}

// Size sums the sizes of all cache-eligible files.
func Size(appDir string, lib *model.Library) (int64, error) {
	files, err := Files(appDir, lib)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}

// Clear deletes every cache-eligible file. Files already gone are not an
// error.
func Clear(appDir string, lib *model.Library) error {
	files, err := Files(appDir, lib)
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	logger.Info("cache cleared", logger.Int("files", len(files)))
	return nil
}

// StorageSize reports the total bytes held by the asset root plus the
// library file itself.
func StorageSize(appDir string) (int64, error) {
	var total int64

	assetsDir := filepath.Join(appDir, config.AssetsDirName)
	if _, err := os.Stat(assetsDir); err == nil {
		err = filepath.WalkDir(assetsDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.Type().IsRegular() {
				if info, err := d.Info(); err == nil {
					total += info.Size()
				}
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	if info, err := os.Stat(filepath.Join(appDir, config.LibraryFile)); err == nil {
		total += info.Size()
	}
	return total, nil
}

// ClearAll removes the asset root and the library file. Used by the
// "reset everything" path; there is no undo.
func ClearAll(appDir string) error {
	if err := os.RemoveAll(filepath.Join(appDir, config.AssetsDirName)); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(appDir, config.LibraryFile)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
