package asset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mfbox/core/extractor"
	"mfbox/logger"
	"mfbox/model"
)

const (
	audioTimeout = 60 * time.Second
	coverTimeout = 30 * time.Second
)

// ErrDownloadTimeout is returned when an audio download exceeds its bound.
var ErrDownloadTimeout = errors.New("download timed out")

// CoverStatus reports the outcome of a best-effort cover fetch. Covers are
// optional enrichment, so failures are reported here instead of as errors.
type CoverStatus int

const (
	// CoverFound means the cover is cached and the path is valid.
	CoverFound CoverStatus = iota
	// CoverMissing means the audio carries no cover URL.
	CoverMissing
	// CoverUnavailable means a cover URL exists but the fetch failed or
	// timed out.
	CoverUnavailable
)

// Store materializes assets under the application directory, keyed by the
// content-addressed names from naming.go. All returned paths are relative
// to the app dir with forward slashes. Safe for concurrent use: writes go
// through a temp file and rename, so a concurrent existence probe never
// observes a half-written file as a cache hit.
type Store struct {
	appDir string
	svc    extractor.Service
}

// NewStore creates a Store rooted at appDir.
func NewStore(appDir string, svc extractor.Service) *Store {
	return &Store{appDir: appDir, svc: svc}
}

// DownloadAudio ensures the audio bytes exist under the asset root and
// returns the resulting LocalAudio. If the target file already exists no
// network I/O happens. The audio file is fully written before the cover is
// requested; the cover is best-effort and never fails the call.
func (s *Store) DownloadAudio(ctx context.Context, audio model.Audio) (*model.LocalAudio, error) {
	relPath := AudioRelPath(audio)
	fullPath := filepath.Join(s.appDir, filepath.FromSlash(relPath))

	if !fileExists(fullPath) {
		logger.Info("downloading audio",
			logger.String("title", audio.Title),
			logger.String("platform", string(audio.Platform)))

		dctx, cancel := context.WithTimeout(ctx, audioTimeout)
		defer cancel()

		data, err := s.svc.Download(dctx, audio.DownloadURL)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(dctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", ErrDownloadTimeout, audio.Title)
			}
			return nil, fmt.Errorf("download audio %q: %w", audio.Title, err)
		}

		if err := writeAtomic(fullPath, data); err != nil {
			return nil, fmt.Errorf("write audio %q: %w", relPath, err)
		}
		logger.Info("audio downloaded", logger.String("path", relPath))
	} else {
		logger.Debug("audio already cached, skipping download", logger.String("path", relPath))
	}

	local := &model.LocalAudio{Path: relPath, Audio: audio}
	if audio.Cover != "" {
		coverPath, status := s.DownloadCover(ctx, audio.Cover, audio.Platform)
		if status == CoverFound {
			local.CoverPath = coverPath
		}
	}
	return local, nil
}

// ExistsAudio probes whether the audio is already cached. No network
// access; returns the relative path when present, empty string otherwise.
func (s *Store) ExistsAudio(audio model.Audio) string {
	relPath := AudioRelPath(audio)
	if fileExists(filepath.Join(s.appDir, filepath.FromSlash(relPath))) {
		return relPath
	}
	return ""
}

// ExistsCover probes whether a cover is already cached.
func (s *Store) ExistsCover(coverURL string, platform model.Platform) string {
	relPath := CoverRelPath(coverURL, platform)
	if fileExists(filepath.Join(s.appDir, filepath.FromSlash(relPath))) {
		return relPath
	}
	return ""
}

// DownloadCover ensures a cover is cached, best-effort. Timeouts and fetch
// failures yield CoverUnavailable rather than an error since covers never
// block a load.
func (s *Store) DownloadCover(ctx context.Context, coverURL string, platform model.Platform) (string, CoverStatus) {
	if coverURL == "" {
		return "", CoverMissing
	}

	relPath := CoverRelPath(coverURL, platform)
	fullPath := filepath.Join(s.appDir, filepath.FromSlash(relPath))
	if fileExists(fullPath) {
		return relPath, CoverFound
	}

	dctx, cancel := context.WithTimeout(ctx, coverTimeout)
	defer cancel()

	data, err := s.svc.DownloadCover(dctx, coverURL)
	if err != nil {
		logger.Warn("cover download failed",
			logger.String("url", coverURL),
			logger.ErrorField(err))
		return "", CoverUnavailable
	}
	if err := writeAtomic(fullPath, data); err != nil {
		logger.Warn("cover write failed",
			logger.String("path", relPath),
			logger.ErrorField(err))
		return "", CoverUnavailable
	}
	return relPath, CoverFound
}

// writeAtomic writes data next to the destination and renames it into
// place, so readers never see a partially written file.
func writeAtomic(dest string, data []byte) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(dest)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
