// Package cache stores raw judge responses keyed by judge identity and
// prompt, so re-scoring a results directory doesn't re-bill the judge.
// Extraction always re-runs over cached responses, which keeps records
// recomputable when weights or parsing change.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache is a directory of JSON entry files, one per key. A Cache with an
// empty dir is disabled: every Get misses and every Put is a no-op.
type Cache struct {
	dir string
	mu  sync.Mutex
}

// New creates a new cache instance with the specified directory
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Key hashes the parts into a cache key. Parts are null-delimited so
// ("ab","c") and ("a","bc") can't collide.
func Key(parts ...string) string {
	h := sha256.New()

	for _, part := range parts {
		writeString(h, part)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// entry is the on-disk shape of one cached response.
type entry struct {
	Response string    `json:"response"`
	CachedAt time.Time `json:"cached_at"`
}

// Get retrieves a cached judge response if it exists
func (c *Cache) Get(key string) (string, bool) {
	if c.dir == "" {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.cachePath(key))
	if err != nil {
		// Cache miss
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// Invalid cache entry, treat as miss
		return "", false
	}

	return e.Response, true
}

// Put stores a judge response in the cache
func (c *Cache) Put(key, response string) error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(entry{
		Response: response,
		CachedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	if err := os.WriteFile(c.cachePath(key), data, 0644); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}

	return nil
}

// Clear removes all cached responses
func (c *Cache) Clear() error {
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return nil
	}

	// Safety check: only delete a directory that looks like one of ours,
	// meaning flat and json-only.
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("reading cache directory: %w", err)
	}

	if len(entries) > 0 {
		hasValidCache := false
		for _, ent := range entries {
			if ent.IsDir() {
				return fmt.Errorf("cache directory contains subdirectories - refusing to delete for safety")
			}
			if filepath.Ext(ent.Name()) == ".json" {
				hasValidCache = true
			} else {
				return fmt.Errorf("cache directory contains non-cache files - refusing to delete for safety")
			}
		}
		if !hasValidCache {
			return fmt.Errorf("no valid cache files found in directory - refusing to delete for safety")
		}
	}

	return os.RemoveAll(c.dir)
}

// cachePath returns the file path for a cache key
func (c *Cache) cachePath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

func writeString(w io.Writer, s string) {
	// Null byte delimiter prevents hash collisions between adjacent parts.
	_, _ = w.Write([]byte(s + "\x00"))
}
