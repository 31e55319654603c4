// Package extractcache is the ambient caching layer SPEC_FULL.md adds:
// it memoizes ExtractedInfo per request URL for a short TTL so repeated
// extraction of the same post doesn't re-hit the network. Grounded on
// the teacher's internal/cache/cache.go (freecache + gob + RWMutex
// wrapper), rewritten against extract.Info instead of Telegram's
// types.File.
package extractcache

import (
	"bytes"
	"encoding/gob"
	"sync"

	"github.com/coocood/freecache"
	"go.uber.org/zap"

	"github.com/allypost/dlhub/internal/extract"
)

const defaultSizeBytes = 20 * 1024 * 1024 // 20MB

// Cache wraps a freecache instance with gob encode/decode of extract.Info,
// the same shape as the teacher's cache.Cache.
type Cache struct {
	inner *freecache.Cache
	mu    sync.RWMutex
	log   *zap.Logger
}

// New builds a cache. Called once at startup (internal/app.Bootstrap).
func New(log *zap.Logger) *Cache {
	return &Cache{
		inner: freecache.NewCache(defaultSizeBytes),
		log:   log.Named("extractcache"),
	}
}

// Get looks up a previously cached extraction for url.
func (c *Cache) Get(url string) (extract.Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := c.inner.Get([]byte(url))
	if err != nil {
		return extract.Info{}, false
	}

	var info extract.Info
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&info); err != nil {
		c.log.Sugar().Debugf("dropping corrupt cache entry for %s: %v", url, err)
		return extract.Info{}, false
	}
	return info, true
}

// Set stores info against url for ttlSeconds.
func (c *Cache) Set(url string, info extract.Info, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(info); err != nil {
		return err
	}
	return c.inner.Set([]byte(url), buf.Bytes(), ttlSeconds)
}

// Delete evicts url's cache entry, if any.
func (c *Cache) Delete(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Del([]byte(url))
}

// GetString/SetString memoize small opaque strings under their own
// namespace so they don't collide with extract.Info entries.
func (c *Cache) GetString(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, err := c.inner.Get([]byte("str:" + key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (c *Cache) SetString(key, value string, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Set([]byte("str:"+key), []byte(value), ttlSeconds)
}
