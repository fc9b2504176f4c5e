// Package cache stores search results and fetched pages between requests.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/ppiankov/newsguard/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key for a namespace ("search", "page") and the
// identifying parts of the cached item.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "newsguard:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}

// GetJSON decodes a cached JSON value into dst. A decode failure counts as a miss.
func GetJSON(c Cache, key string, dst any) bool {
	if c == nil {
		return false
	}
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(key, data, ttl)
}

// New builds the cache described by cfg: nil when disabled, memory only, or
// memory backed by a disk layer.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.FetchTTL
	if cfg.SearchTTL > ttl {
		ttl = cfg.SearchTTL
	}
	if cfg.Disk && cfg.Dir != "" {
		return NewLayeredCache(ttl, cfg.Dir, ttl)
	}
	return NewMemoryCache(ttl, 10*time.Minute)
}
