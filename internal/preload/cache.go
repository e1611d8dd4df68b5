// Package preload warms media into memory ahead of the scene that needs
// it, and serves it back over HTTP.
package preload

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 4
	defaultMaxBlobSize = 4 << 20
)

// Cache holds preloaded media read from root, keyed by URL path. Only what
// Preload asked for is held, and files over maxBlobSize are never held.
type Cache struct {
	root        fs.FS
	concurrency int
	maxBlobSize int64
	logger      *zap.Logger
	started     time.Time

	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewCache(root fs.FS, concurrency int, logger *zap.Logger) *Cache {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		root:        root,
		concurrency: concurrency,
		maxBlobSize: defaultMaxBlobSize,
		logger:      logger,
		started:     time.Now(),
		blobs:       make(map[string][]byte),
	}
}

// Preload loads urls into the cache and returns once all are done or the
// timeout elapses. Failed loads are logged; Preload itself never fails so
// a missing image cannot stall the experience.
func (c *Cache) Preload(ctx context.Context, urls []string, timeout time.Duration) {
	if len(urls) == 0 {
		return
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var g errgroup.Group
		g.SetLimit(c.concurrency)
		for _, u := range urls {
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				c.load(u)
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		c.logger.Debug("preload timed out", zap.Strings("urls", urls), zap.Error(ctx.Err()))
	}
}

func (c *Cache) load(url string) {
	key, ok := cleanKey(url)
	if !ok {
		c.logger.Warn("asset url rejected", zap.String("url", url))
		return
	}
	if _, ok := c.Get(url); ok {
		return
	}

	info, err := fs.Stat(c.root, key)
	if err != nil {
		c.logger.Warn("asset load failed", zap.String("url", url), zap.Error(err))
		return
	}
	if info.Size() > c.maxBlobSize {
		// Streamed from root on request instead.
		c.logger.Debug("asset too large to hold", zap.String("url", url), zap.Int64("size", info.Size()))
		return
	}

	data, err := fs.ReadFile(c.root, key)
	if err != nil {
		c.logger.Warn("asset load failed", zap.String("url", url), zap.Error(err))
		return
	}

	c.mu.Lock()
	c.blobs[key] = data
	c.mu.Unlock()
}

func (c *Cache) Get(url string) ([]byte, bool) {
	key, ok := cleanKey(url)
	if !ok {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.blobs[key]
	return data, ok
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blobs)
}

// ServeHTTP serves preloaded media from memory and streams everything else
// straight from root without caching it.
func (c *Cache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := cleanKey(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	if data, ok := c.Get(key); ok {
		http.ServeContent(w, r, path.Base(key), c.started, bytes.NewReader(data))
		return
	}
	http.ServeFileFS(w, r, c.root, key)
}

// cleanKey maps a URL path onto an fs.FS path.
func cleanKey(url string) (string, bool) {
	key := strings.TrimPrefix(path.Clean("/"+url), "/")
	if key == "" || !fs.ValidPath(key) {
		return "", false
	}
	return key, true
}
