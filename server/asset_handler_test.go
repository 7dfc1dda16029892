package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssetRouter(t *testing.T) (*mux.Router, string) {
	t.Helper()
	appDir := t.TempDir()

	full := filepath.Join(appDir, "assets", "bilibili", "audios", "song.mp3")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	// 1000 predictable bytes so range assertions can check content.
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(full, data, 0644))

	router := mux.NewRouter()
	router.Handle("/assets/{path:.*}", NewAssetHandler(filepath.Join(appDir, "assets"))).Methods(http.MethodGet, http.MethodHead)
	return router, appDir
}

func get(t *testing.T, router *mux.Router, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAssetFullResponse(t *testing.T) {
	router, _ := newAssetRouter(t)

	rec := get(t, router, "/assets/bilibili/audios/song.mp3", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Len(t, rec.Body.Bytes(), 1000)
}

func TestAssetRangeResponse(t *testing.T) {
	router, _ := newAssetRouter(t)

	rec := get(t, router, "/assets/bilibili/audios/song.mp3",
		map[string]string{"Range": "bytes=100-199"})
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))

	body := rec.Body.Bytes()
	require.Len(t, body, 100)
	assert.Equal(t, byte(100%251), body[0])
}

func TestAssetSuffixRange(t *testing.T) {
	router, _ := newAssetRouter(t)

	rec := get(t, router, "/assets/bilibili/audios/song.mp3",
		map[string]string{"Range": "bytes=-100"})
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 900-999/1000", rec.Header().Get("Content-Range"))
}

func TestAssetUnsatisfiableRange(t *testing.T) {
	router, _ := newAssetRouter(t)

	rec := get(t, router, "/assets/bilibili/audios/song.mp3",
		map[string]string{"Range": "bytes=2000-3000"})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
}

func TestAssetMalformedRange(t *testing.T) {
	router, _ := newAssetRouter(t)

	rec := get(t, router, "/assets/bilibili/audios/song.mp3",
		map[string]string{"Range": "bytes=zz-"})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
}

func TestAssetNotFound(t *testing.T) {
	router, _ := newAssetRouter(t)

	rec := get(t, router, "/assets/bilibili/audios/missing.mp3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssetTraversalRejected(t *testing.T) {
	router, appDir := newAssetRouter(t)

	secret := filepath.Join(appDir, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("top"), 0644))

	rec := get(t, router, "/assets/..%2Fsecret.txt", nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, "top", rec.Body.String())
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "image/jpeg", mimeType("a/b/c.JPG"))
	assert.Equal(t, "audio/flac", mimeType("x.flac"))
	assert.Equal(t, "video/mp4", mimeType("x.mp4"))
	assert.Equal(t, "application/octet-stream", mimeType("x.unknown"))
	assert.Equal(t, "application/octet-stream", mimeType("noext"))
}
