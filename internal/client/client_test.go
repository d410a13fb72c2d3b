package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Token: "tok", Timeout: 5 * time.Second})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestToggleSendsBearerTokenToKindRoute(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, http.MethodPost, r.Method)

		switch r.URL.Path {
		case "/api/v1/posts/p1/like":
			writeJSON(w, http.StatusOK, map[string]interface{}{"active": true, "count": 3})
		case "/api/v1/posts/p1/favorite":
			writeJSON(w, http.StatusOK, map[string]interface{}{"active": false, "count": 0})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	liked, err := c.ToggleLike(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, liked.Active)
	assert.Equal(t, int64(3), liked.Count)

	fav, err := c.ToggleFavorite(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, fav.Active)
}

func TestErrorsCarryServerCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"code": "NOT_FOUND", "message": "post not found"})
	})

	_, err := c.ListComments(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.Equal(t, "404 NOT_FOUND: post not found", apiErr.Error())
}

func TestErrorsWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Feed(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "HTTP_ERROR", apiErr.Code)
}

func TestUploadSendsImageContentType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0o644))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()

		data, _ := io.ReadAll(file)
		assert.Equal(t, "png bytes", string(data))
		assert.Equal(t, "photo.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))

		writeJSON(w, http.StatusOK, map[string]string{"url": "/uploads/x.png", "base64": "cG5n", "filename": "x.png"})
	})

	res, err := c.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.png", res.URL)
}

func TestUploadMissingFile(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:0"})
	_, err := c.Upload(context.Background(), "/does/not/exist.png")
	assert.Error(t, err)
}

func TestPublishSendsContentAndFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jpg")
	b := filepath.Join(dir, "b.webp")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "hello", r.FormValue("content"))
		assert.Len(t, r.MultipartForm.File["files"], 2)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": "p1", "images": []string{"/uploads/1.jpg", "/uploads/2.webp"}})
	})

	post, err := c.Publish(context.Background(), "hello", []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Len(t, post.Images, 2)
}

func TestHealthReportsDegradedServer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
	})

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "unreachable", h.Database)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/jpeg", contentType("x.JPG"))
	assert.Equal(t, "image/png", contentType("x.png"))
	assert.Equal(t, "image/webp", contentType("/tmp/x.webp"))
	assert.Equal(t, "application/octet-stream", contentType("x.unknownext"))
}
