package preload

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"backgrounds/intro.jpg": {Data: []byte("intro-bytes")},
		"media/q1_1.jpg":        {Data: []byte("q1")},
	}
}

func TestPreload_LoadsAndToleratesFailures(t *testing.T) {
	c := NewCache(testFS(), 2, zap.NewNop())

	c.Preload(context.Background(), []string{"/backgrounds/intro.jpg", "/media/missing.jpg", "../etc/passwd"}, time.Second)

	data, ok := c.Get("/backgrounds/intro.jpg")
	require.True(t, ok)
	assert.Equal(t, "intro-bytes", string(data))

	_, ok = c.Get("/media/missing.jpg")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())
}

// slowFS blocks every open until release is closed.
type slowFS struct {
	fs.FS
	release chan struct{}
}

func (s slowFS) Open(name string) (fs.File, error) {
	<-s.release
	return s.FS.Open(name)
}

func TestPreload_ReturnsAtTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := NewCache(slowFS{FS: testFS(), release: release}, 1, zap.NewNop())

	start := time.Now()
	c.Preload(context.Background(), []string{"/backgrounds/intro.jpg"}, 50*time.Millisecond)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestServeHTTP(t *testing.T) {
	c := NewCache(testFS(), 0, nil)

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/q1_1.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "q1", rec.Body.String())
	assert.Zero(t, c.Len(), "a plain request is streamed, not cached")

	c.Preload(context.Background(), []string{"/backgrounds/intro.jpg"}, time.Second)
	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/backgrounds/intro.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "intro-bytes", rec.Body.String())
	assert.Equal(t, 1, c.Len())

	rec = httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/nope.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreload_SkipsLargeFiles(t *testing.T) {
	fsys := testFS()
	fsys["audio/theme.mp3"] = &fstest.MapFile{Data: make([]byte, 64)}
	c := NewCache(fsys, 1, zap.NewNop())
	c.maxBlobSize = 32

	c.Preload(context.Background(), []string{"/audio/theme.mp3", "/media/q1_1.jpg"}, time.Second)

	_, ok := c.Get("/audio/theme.mp3")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	rec := httptest.NewRecorder()
	c.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audio/theme.mp3", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 64, rec.Body.Len())
	assert.Equal(t, 1, c.Len())
}
