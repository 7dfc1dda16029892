package model

// FileInfo is a lightweight fingerprint of a remote blob. Comparing SHA
// against a locally cached value lets callers skip a full download when the
// remote has not changed.
type FileInfo struct {
	SHA          string `json:"sha"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}
