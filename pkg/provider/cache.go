package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// responseCache is a process-wide, append-only cache of raw provider
// responses on disk. Multiple workers read it concurrently; each response is
// written once via rename so readers never observe partial files.
type responseCache struct {
	dir string
}

var (
	cacheOnce sync.Once
	cacheErr  error
	cache     *responseCache
)

// EnableCache initializes the on-disk response cache. It is idempotent and
// must be called once per worker process before the first fetch; the first
// call wins and later calls with a different directory are ignored.
func EnableCache(dir string) error {
	cacheOnce.Do(func() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			cacheErr = fmt.Errorf("create provider cache dir %q: %w", dir, err)
			return
		}
		cache = &responseCache{dir: dir}
	})
	return cacheErr
}

// enabledCache returns the process cache, or nil when EnableCache was never
// called (caching is optional).
func enabledCache() *responseCache {
	return cache
}

func (c *responseCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached body for key, or nil when absent.
func (c *responseCache) Get(key string) []byte {
	body, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil
	}
	return body
}

// Put stores a response body for key. Failures are silent: the cache is an
// optimization, never a source of truth.
func (c *responseCache) Put(key string, body []byte) {
	dest := c.path(key)
	tmp, err := os.CreateTemp(c.dir, "pending-*")
	if err != nil {
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return
	}
	if err := tmp.Close(); err != nil {
		return
	}
	_ = os.Rename(tmp.Name(), dest)
}
