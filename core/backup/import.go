package backup

import (
	"archive/zip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mfbox/config"
	"mfbox/logger"
	"mfbox/model"
)

var (
	// ErrNoBackup is returned when backupDir holds no matching archive.
	ErrNoBackup = errors.New("no backup archive found")
	// ErrInvalidBackup is returned when the archive lacks the library entry.
	ErrInvalidBackup = errors.New("invalid backup: missing library entry")
	// ErrPathTraversal is returned when an archive or library path tries to
	// escape the destination root.
	ErrPathTraversal = errors.New("path escapes destination root")
)

// Strategy selects how assets move from the extracted archive into the
// live asset root.
type Strategy int

const (
	// CopyOnMissing copies only the assets the imported library references,
	// each skipped when the destination already exists. Content-addressed
	// names make the skip safe.
	CopyOnMissing Strategy = iota
	// BulkCopy copies every file under the archive's assets subtree without
	// per-record bookkeeping, skipping existing destinations.
	BulkCopy
)

// Result is what Import hands back to the caller. Merging the imported
// library into the live one is the caller's job (repository.Merge); the
// packager only moves bytes.
type Result struct {
	Archive  string         // filename of the archive that was imported
	Library  *model.Library // the library decoded from the archive
	Copied   []string       // app-dir-relative paths copied into the asset root
	Skipped  int            // referenced assets already present locally
	Strategy Strategy
}

// Import locates the most recently modified mfbox-*.zip in backupDir,
// extracts it into an isolated temp directory, validates it, copies assets
// per the strategy and returns the imported library. The temp directory is
// removed on success and on every failure path.
func Import(appDir, backupDir string, strategy Strategy) (*Result, error) {
	zipPath, err := latestArchive(backupDir)
	if err != nil {
		return nil, err
	}
	return ImportArchive(appDir, zipPath, strategy)
}

// ImportArchive imports a specific archive file.
func ImportArchive(appDir, zipPath string, strategy Strategy) (*Result, error) {
	tempDir := filepath.Join(os.TempDir(), "mfbox-import-"+uuid.NewString())
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := extract(zipPath, tempDir); err != nil {
		return nil, err
	}

	libPath := filepath.Join(tempDir, ArchiveEntry)
	data, err := os.ReadFile(libPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrInvalidBackup
		}
		return nil, fmt.Errorf("read library entry: %w", err)
	}

	var lib model.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("decode library entry: %w", err)
	}

	result := &Result{
		Archive:  filepath.Base(zipPath),
		Library:  &lib,
		Strategy: strategy,
	}

	switch strategy {
	case BulkCopy:
		err = bulkCopy(tempDir, appDir, result)
	default:
		err = copyReferenced(tempDir, appDir, result)
	}
	if err != nil {
		return nil, err
	}

	logger.Info("backup imported",
		logger.String("archive", result.Archive),
		logger.Int("copied", len(result.Copied)),
		logger.Int("skipped", result.Skipped))
	return result, nil
}

// latestArchive picks the newest mfbox-*.zip by modification time.
func latestArchive(backupDir string) (string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return "", fmt.Errorf("read backup dir: %w", err)
	}

	var (
		newest     string
		newestTime int64 = -1
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, ".zip") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); mod > newestTime {
			newestTime = mod
			newest = filepath.Join(backupDir, name)
		}
	}
	if newest == "" {
		return "", ErrNoBackup
	}
	return newest, nil
}

// extract unpacks the archive into destDir, refusing entries that would
// escape it.
func extract(zipPath, destDir string) error {
	archive, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		outPath, err := securePath(destDir, file.Name)
		if err != nil {
			return err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(outPath, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return err
		}

		if err := extractFile(file, outPath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, outPath string) error {
	rc, err := file.Open()
	if err != nil {
		return fmt.Errorf("open entry %q: %w", file.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract entry %q: %w", file.Name, err)
	}
	return nil
}

// copyReferenced walks the imported library and copies each referenced
// asset that is not already present locally.
func copyReferenced(srcRoot, destRoot string, result *Result) error {
	seen := make(map[string]struct{})
	copyOne := func(rel string) error {
		if rel == "" {
			return nil
		}
		if _, ok := seen[rel]; ok {
			return nil
		}
		seen[rel] = struct{}{}
		return copyAssetIfMissing(srcRoot, destRoot, rel, result)
	}

	for _, playlist := range result.Library.Playlists {
		if err := copyOne(playlist.CoverPath); err != nil {
			return err
		}
		for _, audio := range playlist.Audios {
			if err := copyOne(audio.Path); err != nil {
				return err
			}
			if err := copyOne(audio.CoverPath); err != nil {
				return err
			}
		}
	}
	for _, audio := range result.Library.Audios {
		if err := copyOne(audio.Path); err != nil {
			return err
		}
		if err := copyOne(audio.CoverPath); err != nil {
			return err
		}
	}
	return nil
}

// bulkCopy copies the whole assets subtree, skipping files that already
// exist at the destination.
func bulkCopy(srcRoot, destRoot string, result *Result) error {
	assetsDir := filepath.Join(srcRoot, config.AssetsDirName)
	if _, err := os.Stat(assetsDir); os.IsNotExist(err) {
		return nil
	}

	return filepath.Walk(assetsDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(srcRoot, p)
		if err != nil {
			return nil
		}
		return copyAssetIfMissing(srcRoot, destRoot, filepath.ToSlash(rel), result)
	})
}

// copyAssetIfMissing copies srcRoot/rel to destRoot/rel unless the
// destination already exists. Traversal is rejected before any I/O.
func copyAssetIfMissing(srcRoot, destRoot, rel string, result *Result) error {
	if strings.Contains(rel, "..") {
		return fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}

	src := filepath.Join(srcRoot, filepath.FromSlash(rel))
	dest, err := securePath(destRoot, rel)
	if err != nil {
		return err
	}

	if _, err := os.Stat(src); err != nil {
		// Referenced but absent from the archive (it was orphaned at
		// export time); nothing to copy.
		return nil
	}
	if _, err := os.Stat(dest); err == nil {
		result.Skipped++
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	if err := copyFile(src, dest); err != nil {
		return fmt.Errorf("copy asset %q: %w", rel, err)
	}
	result.Copied = append(result.Copied, rel)
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// securePath joins rel under root and verifies the result stays inside it.
func securePath(root, rel string) (string, error) {
	joined := filepath.Join(root, filepath.FromSlash(rel))
	cleanRoot := filepath.Clean(root) + string(os.PathSeparator)
	if !strings.HasPrefix(joined, cleanRoot) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return joined, nil
}
