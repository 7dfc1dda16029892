package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"mfbox/model"
)

// HTTPService talks to the extraction sidecar API. The sidecar wraps the
// per-platform scrapers and exposes a small JSON surface:
//
//	GET /extract?url=...   -> {playlist, default_index?}
//	GET /download?url=...  -> raw bytes
//
// Cover URLs are plain http(s) resources and are fetched directly.
type HTTPService struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPService creates a client for the sidecar at baseURL.
func NewHTTPService(baseURL string) *HTTPService {
	return &HTTPService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// SetTimeout overrides the transport-level timeout. Callers that need a
// tighter bound should prefer a context deadline.
func (s *HTTPService) SetTimeout(timeout time.Duration) {
	s.httpClient.Timeout = timeout
}

type extractResponse struct {
	Playlist     *model.Playlist `json:"playlist"`
	DefaultIndex *int            `json:"default_index,omitempty"`
}

// Extract implements Service.
func (s *HTTPService) Extract(ctx context.Context, pageURL string) (*model.Playlist, *int, error) {
	endpoint := fmt.Sprintf("%s/extract?url=%s", s.baseURL, url.QueryEscape(pageURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create extract request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("extract request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("extractor API returned status %d", resp.StatusCode)
	}

	var result extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, nil, fmt.Errorf("decode extract response: %w", err)
	}
	if result.Playlist == nil {
		return nil, nil, fmt.Errorf("extractor API returned no playlist")
	}
	return result.Playlist, result.DefaultIndex, nil
}

// Download implements Service.
func (s *HTTPService) Download(ctx context.Context, downloadURL string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/download?url=%s", s.baseURL, url.QueryEscape(downloadURL))
	return s.fetch(ctx, endpoint)
}

// DownloadCover implements Service. Covers are ordinary web resources, no
// sidecar involvement needed.
func (s *HTTPService) DownloadCover(ctx context.Context, coverURL string) ([]byte, error) {
	return s.fetch(ctx, coverURL)
}

func (s *HTTPService) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return data, nil
}
