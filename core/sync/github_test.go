package sync

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		in    string
		owner string
		repo  string
		ok    bool
	}{
		{"https://github.com/alice/music", "alice", "music", true},
		{"https://github.com/alice/music.git", "alice", "music", true},
		{"https://github.com/alice/music/", "alice", "music", true},
		{"http://github.com/alice/music", "alice", "music", true},
		{"alice/music", "alice", "music", true},
		{" alice/music ", "alice", "music", true},
		{"https://github.com/alice", "", "", false},
		{"alice", "", "", false},
		{"", "", "", false},
		{"a/b/c", "", "", false},
	}

	for _, tt := range tests {
		owner, repo, err := ParseRepoURL(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidRepo, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.owner, owner)
		assert.Equal(t, tt.repo, repo)
	}
}

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := NewClient()
	client.SetBaseURL(srv.URL)
	return client, srv
}

func TestGetFileInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/alice/music/contents/mfbox.yjs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"name": "mfbox.yjs", "path": "mfbox.yjs", "sha": "abc123", "size": 42,
		})
	})
	mux.HandleFunc("/repos/alice/music/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mfbox.yjs", r.URL.Query().Get("path"))
		fmt.Fprint(w, `[{"commit":{"committer":{"date":"2026-08-01T10:00:00Z"}}}]`)
	})

	client, srv := newTestClient(mux)
	defer srv.Close()

	info, err := client.GetFileInfo(context.Background(), "tok", "alice/music", "")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "abc123", info.SHA)
	assert.Equal(t, int64(42), info.Size)
	assert.Equal(t, "2026-08-01T10:00:00Z", info.LastModified)
}

func TestGetFileInfoNotFound(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	info, err := client.GetFileInfo(context.Background(), "tok", "alice/music", "")
	require.NoError(t, err, "404 is a valid outcome, not an error")
	assert.Nil(t, info)
}

func TestGetFileInfoCommitsFailureIsBestEffort(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/alice/music/contents/mfbox.yjs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"sha": "abc", "size": 1})
	})
	mux.HandleFunc("/repos/alice/music/commits", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	})

	client, srv := newTestClient(mux)
	defer srv.Close()

	info, err := client.GetFileInfo(context.Background(), "tok", "alice/music", "")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Empty(t, info.LastModified)
}

func TestDownload(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.raw", r.Header.Get("Accept"))
		w.Write([]byte("raw-bytes"))
	}))
	defer srv.Close()

	data, err := client.Download(context.Background(), "tok", "alice/music", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw-bytes"), data)
}

func TestDownloadNotFoundIsEmpty(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	data, err := client.Download(context.Background(), "tok", "alice/music", "")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestDownloadErrorCarriesStatusAndBody(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := client.Download(context.Background(), "tok", "alice/music", "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "bad credentials")
}

func TestUpdateSendsCurrentSHAAndBranch(t *testing.T) {
	var payload updatePayload

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/alice/music/contents/mfbox.yjs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"sha": "oldsha", "size": 1})
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, `{}`)
		}
	})

	client, srv := newTestClient(mux)
	defer srv.Close()
	client.SetBranch("sync")

	err := client.Update(context.Background(), "tok", "alice/music", []byte("new content"), "", "update library")
	require.NoError(t, err)

	assert.Equal(t, "oldsha", payload.SHA)
	assert.Equal(t, "sync", payload.Branch)
	assert.Equal(t, "update library", payload.Message)
	decoded, err := base64.StdEncoding.DecodeString(payload.Content)
	require.NoError(t, err)
	assert.Equal(t, []byte("new content"), decoded)
}

func TestUpdateCreatesWhenAbsent(t *testing.T) {
	var payload updatePayload

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/alice/music/contents/mfbox.yjs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.NotFound(w, r)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)
		}
	})

	client, srv := newTestClient(mux)
	defer srv.Close()

	err := client.Update(context.Background(), "tok", "alice/music", []byte("x"), "", "")
	require.NoError(t, err)
	assert.Empty(t, payload.SHA, "no sha on create")
	assert.Equal(t, "Update mfbox.yjs", payload.Message)
}

func TestUpdateStaleSHAIsConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/alice/music/contents/mfbox.yjs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"sha": "stale", "size": 1})
		case http.MethodPut:
			// Remote moved between our read and write.
			http.Error(w, `{"message":"is at deadbeef but expected stale"}`, http.StatusConflict)
		}
	})

	client, srv := newTestClient(mux)
	defer srv.Close()

	err := client.Update(context.Background(), "tok", "alice/music", []byte("x"), "", "")
	assert.ErrorIs(t, err, ErrConflict, "stale sha surfaces as a conflict, never silently applied")
}

func TestGistRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/gists/g1", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, `{"id":"g1","files":{"mfbox.yjs":{"content":"hello"}}}`)
		case http.MethodPatch:
			var payload struct {
				Files map[string]struct {
					Content *string `json:"content"`
				} `json:"files"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Nil(t, payload.Files["old.yjs"].Content, "nil content deletes")
			fmt.Fprint(w, `{"id":"g1","files":{}}`)
		}
	})

	client, srv := newTestClient(mux)
	defer srv.Close()

	gist, err := client.DownloadGist(context.Background(), "tok", "g1")
	require.NoError(t, err)
	assert.Equal(t, "hello", gist.Files["mfbox.yjs"].Content)

	_, err = client.UpdateGist(context.Background(), "tok", "g1", map[string]*string{"old.yjs": nil})
	require.NoError(t, err)
}
