package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"mfbox/config"
	"mfbox/core/cache"
	"mfbox/logger"
	"mfbox/model"
)

// ArchiveEntry is the fixed name of the library JSON inside a backup.
const ArchiveEntry = config.LibraryFile

const archivePrefix = "mfbox-"

// ArchiveName returns the backup filename for a given day, e.g.
// mfbox-2026-08-29.zip. Embedding the date makes backups easy to find and
// makes "newest wins" selection on import natural.
func ArchiveName(t time.Time) string {
	return fmt.Sprintf("%s%s.zip", archivePrefix, t.Format("2006-01-02"))
}

// Export writes a portable archive into backupDir containing the library
// JSON at ArchiveEntry plus every asset the library references. Orphaned
// files (cache-eligible) are excluded. Entries are stored uncompressed:
// audio and image payloads are already compressed, so Stored trades
// nothing for a much faster export.
func Export(appDir, backupDir string, lib *model.Library) (string, error) {
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	name := ArchiveName(time.Now())
	zipPath := filepath.Join(backupDir, name)

	out, err := os.Create(zipPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode library: %w", err)
	}
	if err := writeStoredEntry(zw, ArchiveEntry, data); err != nil {
		return "", err
	}

	used := cache.UsedPaths(lib)
	assetsDir := filepath.Join(appDir, config.AssetsDirName)
	if _, statErr := os.Stat(assetsDir); statErr == nil {
		err = filepath.WalkDir(assetsDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
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
				return nil
			}
			return copyFileEntry(zw, relSlash, p)
		})
		if err != nil {
			return "", fmt.Errorf("archive assets: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	logger.Info("backup exported",
		logger.String("archive", name),
		logger.Int("referencedPaths", len(used)))
	return name, nil
}

func writeStoredEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("create entry %q: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write entry %q: %w", name, err)
	}
	return nil
}

func copyFileEntry(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		// Asset vanished between the walk and the copy; leave it out.
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:   name,
		Method: zip.Store,
	})
	if err != nil {
		return fmt.Errorf("create entry %q: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("write entry %q: %w", name, err)
	}
	return nil
}
