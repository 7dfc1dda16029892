package asset

import (
	"crypto/md5"
	"fmt"
	"path"
	"strings"

	"mfbox/config"
	"mfbox/model"
)

// Naming is pure and deterministic: the same URL always maps to the same
// filename, which is what makes downloads idempotent and de-duplicated
// across playlists.

// AudioFilename derives the content-addressed filename for an audio:
// {id}_{md5(download_url)}{ext}.
func AudioFilename(audio model.Audio) string {
	sum := md5.Sum([]byte(audio.DownloadURL))
	return fmt.Sprintf("%s_%x%s", audio.ID, sum, audio.Format.Extension())
}

// CoverFilename derives the content-addressed filename for a cover image:
// {md5(cover_url)}_{basename}.
func CoverFilename(coverURL string) string {
	sum := md5.Sum([]byte(coverURL))
	base := coverURL
	if idx := strings.LastIndex(coverURL, "/"); idx >= 0 {
		base = coverURL[idx+1:]
	}
	if base == "" {
		base = "cover.jpg"
	}
	return fmt.Sprintf("%x_%s", sum, base)
}

// AudioRelPath returns the app-dir-relative storage path of an audio,
// always with forward slashes.
func AudioRelPath(audio model.Audio) string {
	return path.Join(config.AssetsDirName, string(audio.Platform), config.AudiosDirName, AudioFilename(audio))
}

// CoverRelPath returns the app-dir-relative storage path of a cover.
func CoverRelPath(coverURL string, platform model.Platform) string {
	return path.Join(config.AssetsDirName, string(platform), config.CoversDirName, CoverFilename(coverURL))
}
