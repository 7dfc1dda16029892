package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Gist-backed variant of the remote store. A gist holds a filename to
// content map, which is enough for the single-blob sync model without
// needing a dedicated repository.

// Gist is the subset of the gists API response we consume.
type Gist struct {
	ID    string              `json:"id"`
	Files map[string]GistFile `json:"files"`
}

// GistFile carries the content of one file inside a gist.
type GistFile struct {
	Content string `json:"content,omitempty"`
}

type gistUpdatePayload struct {
	Files map[string]*gistUpdateFile `json:"files"`
}

// nil content deletes the file.
type gistUpdateFile struct {
	Content *string `json:"content"`
}

// DownloadGist fetches a gist by id.
func (c *Client) DownloadGist(ctx context.Context, token, gistID string) (*Gist, error) {
	u := fmt.Sprintf("%s/gists/%s", c.baseURL, gistID)
	resp, err := c.do(ctx, http.MethodGet, u, token, acceptJSON, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var gist Gist
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return nil, fmt.Errorf("decode gist: %w", err)
	}
	return &gist, nil
}

// UpdateGist patches the files of a gist. A nil value in files deletes
// that file.
func (c *Client) UpdateGist(ctx context.Context, token, gistID string, files map[string]*string) (*Gist, error) {
	payload := gistUpdatePayload{Files: make(map[string]*gistUpdateFile, len(files))}
	for name, content := range files {
		payload.Files[name] = &gistUpdateFile{Content: content}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode gist payload: %w", err)
	}

	u := fmt.Sprintf("%s/gists/%s", c.baseURL, gistID)
	resp, err := c.do(ctx, http.MethodPatch, u, token, acceptJSON, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var gist Gist
	if err := json.NewDecoder(resp.Body).Decode(&gist); err != nil {
		return nil, fmt.Errorf("decode gist: %w", err)
	}
	return &gist, nil
}
