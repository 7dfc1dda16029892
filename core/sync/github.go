package sync

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mfbox/logger"
	"mfbox/model"
)

// DefaultRemotePath is the remote blob name holding the CRDT-encoded
// library when the caller does not specify one.
const DefaultRemotePath = "mfbox.yjs"

const (
	apiBase       = "https://api.github.com"
	userAgent     = "mfbox"
	acceptJSON    = "application/vnd.github.v3+json"
	acceptRaw     = "application/vnd.github.raw"
	defaultBranch = "main"
)

var (
	// ErrInvalidRepo is returned when a repository reference cannot be
	// parsed into owner/repo.
	ErrInvalidRepo = errors.New("invalid repository reference")
	// ErrConflict is returned when an update carried a stale SHA and the
	// remote rejected the write. Callers own the retry/merge loop; the
	// client guarantees only single-shot compare-and-swap semantics.
	ErrConflict = errors.New("remote changed since last read")
)

// APIError is a non-2xx, non-404 response from the contents API, carrying
// enough context for the caller to decide whether to retry.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api status %d: %s", e.Status, e.Body)
}

// Client talks to a GitHub-contents-API-compatible host. It holds no
// credential state: the token arrives per call, so one client is safe to
// use concurrently against different repositories.
type Client struct {
	baseURL    string
	branch     string
	httpClient *http.Client
}

// NewClient creates a contents-API client targeting the default branch.
func NewClient() *Client {
	return &Client{
		baseURL: apiBase,
		branch:  defaultBranch,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetBaseURL overrides the API host, mainly for tests and GHE.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// SetBranch overrides the branch updates are written to.
func (c *Client) SetBranch(branch string) {
	if branch != "" {
		c.branch = branch
	}
}

// ParseRepoURL extracts owner and repo from a repository reference.
// Accepted forms: https://github.com/owner/repo[.git], the http variant,
// and plain owner/repo.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	cleaned := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSpace(repoURL), "/"), ".git")
	cleaned = strings.TrimSuffix(cleaned, "/")

	for _, prefix := range []string{"https://github.com/", "http://github.com/"} {
		if rest, ok := strings.CutPrefix(cleaned, prefix); ok {
			parts := strings.Split(rest, "/")
			if len(parts) >= 2 {
				return parts[0], parts[1], nil
			}
			return "", "", fmt.Errorf("%w: %s", ErrInvalidRepo, repoURL)
		}
	}

	parts := strings.Split(cleaned, "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1], nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrInvalidRepo, repoURL)
}

type contentsResponse struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	SHA      string `json:"sha"`
	Size     int64  `json:"size"`
	Content  string `json:"content,omitempty"`
	Encoding string `json:"encoding,omitempty"`
}

type updatePayload struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type commitEntry struct {
	Commit struct {
		Committer struct {
			Date string `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// GetFileInfo fetches the remote fingerprint without downloading content.
// A 404 means "no remote file yet" and maps to (nil, nil). The last
// modified timestamp comes from a second, best-effort commits call.
func (c *Client) GetFileInfo(ctx context.Context, token, repoURL, filePath string) (*model.FileInfo, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	name := remotePath(filePath)

	resp, err := c.do(ctx, http.MethodGet, c.contentsURL(owner, repo, name), token, acceptJSON, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var file contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode contents response: %w", err)
	}

	info := &model.FileInfo{SHA: file.SHA, Size: file.Size}
	info.LastModified = c.lastCommitDate(ctx, token, owner, repo, name)
	return info, nil
}

// Download fetches the raw remote content. A 404 maps to an empty byte
// slice ("nothing to merge yet"); any other non-success status is an
// APIError.
func (c *Client) Download(ctx context.Context, token, repoURL, filePath string) ([]byte, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodGet, c.contentsURL(owner, repo, remotePath(filePath)), token, acceptRaw, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read remote content: %w", err)
	}
	return data, nil
}

// Update performs a single-shot compare-and-swap: it reads the current
// remote SHA (absent when the file does not exist yet) and submits a
// create-or-replace request carrying it. When the remote moved between the
// read and the write, the host rejects the request and Update surfaces
// ErrConflict without retrying.
func (c *Client) Update(ctx context.Context, token, repoURL string, content []byte, filePath, message string) error {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return err
	}
	name := remotePath(filePath)

	sha, err := c.currentSHA(ctx, token, owner, repo, name)
	if err != nil {
		return err
	}

	if message == "" {
		message = fmt.Sprintf("Update %s", name)
	}
	payload := updatePayload{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     sha,
		Branch:  c.branch,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode update payload: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPut, c.contentsURL(owner, repo, name), token, acceptJSON, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 is the documented stale-SHA rejection; 422 shows up when the
	// file was created concurrently and no SHA was sent.
	if resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity {
		logger.Warn("remote update rejected, stale fingerprint",
			logger.String("path", name),
			logger.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: %s", ErrConflict, name)
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	return nil
}

// currentSHA returns the SHA of the remote file, or empty when it does not
// exist.
func (c *Client) currentSHA(ctx context.Context, token, owner, repo, name string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, c.contentsURL(owner, repo, name), token, acceptJSON, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var file contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return "", fmt.Errorf("decode contents response: %w", err)
	}
	return file.SHA, nil
}

// lastCommitDate is best-effort; failures degrade to an empty timestamp.
func (c *Client) lastCommitDate(ctx context.Context, token, owner, repo, name string) string {
	u := fmt.Sprintf("%s/repos/%s/%s/commits?path=%s&per_page=1", c.baseURL, owner, repo, url.QueryEscape(name))
	resp, err := c.do(ctx, http.MethodGet, u, token, acceptJSON, nil)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	var commits []commitEntry
	if err := json.NewDecoder(resp.Body).Decode(&commits); err != nil || len(commits) == 0 {
		return ""
	}
	return commits[0].Commit.Committer.Date
}

func (c *Client) contentsURL(owner, repo, name string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, owner, repo, name)
}

func (c *Client) do(ctx context.Context, method, u, token, accept string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

func remotePath(filePath string) string {
	if filePath == "" {
		return DefaultRemotePath
	}
	return filePath
}
