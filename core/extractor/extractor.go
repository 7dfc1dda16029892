package extractor

import (
	"context"

	"mfbox/model"
)

// Service resolves platform URLs into normalized track descriptors and
// fetches their bytes. Implementations are platform-specific and live
// behind a sidecar API; the asset store only depends on this interface.
type Service interface {
	// Extract resolves a page or share URL into a playlist description.
	// The second return value is the index of the entry the URL pointed
	// at, when the URL addressed a single track inside a playlist.
	Extract(ctx context.Context, url string) (*model.Playlist, *int, error)

	// Download fetches the raw audio bytes for a resolved download URL.
	Download(ctx context.Context, url string) ([]byte, error)

	// DownloadCover fetches cover image bytes.
	DownloadCover(ctx context.Context, url string) ([]byte, error)
}
