package source

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Cache is a file-based snapshot store keyed by exchange. Each entry is a
// JSON envelope around the raw payload as it came off the wire.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
}

// CacheEntry is the on-disk envelope
type CacheEntry struct {
	Key       string    `json:"key"`
	Exchange  string    `json:"exchange"`
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// NewCache creates a cache rooted at dir. A ttl of zero never expires.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Dir is where snapshot files live
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) expired(ts time.Time) bool {
	return c.ttl > 0 && c.now().Sub(ts) > c.ttl
}

// Get returns the stored entry for exchange. Expired entries are removed
// and reported as missing.
func (c *Cache) Get(exchange string) (CacheEntry, bool) {
	c.mu.RLock()
	path := c.path(exchange)
	data, err := os.ReadFile(path)
	c.mu.RUnlock()
	if err != nil {
		return CacheEntry{}, false
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return CacheEntry{}, false
	}
	if c.expired(entry.Timestamp) {
		c.mu.Lock()
		os.Remove(path)
		c.mu.Unlock()
		return CacheEntry{}, false
	}
	return entry, true
}

// Set stores raw under exchange and returns the stored entry
func (c *Cache) Set(exchange string, raw []byte) (CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := CacheEntry{
		Key:       snapshotKey(exchange),
		Exchange:  strings.ToUpper(exchange),
		Data:      raw,
		Timestamp: c.now(),
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return CacheEntry{}, err
	}

	// write-then-rename so a concurrent reader never sees half a file
	tmp, err := os.CreateTemp(c.dir, ".snapshot-*")
	if err != nil {
		return CacheEntry{}, err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return CacheEntry{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return CacheEntry{}, err
	}
	if err := os.Rename(tmp.Name(), c.path(exchange)); err != nil {
		os.Remove(tmp.Name())
		return CacheEntry{}, err
	}
	return entry, nil
}

// Clear removes every snapshot
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// CleanupExpired removes expired snapshots and returns how many went
func (c *Cache) CleanupExpired() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if c.expired(entry.Timestamp) {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_-]+`)

func snapshotKey(exchange string) string {
	return "bulkdeals:" + strings.ToLower(exchange)
}

func (c *Cache) path(exchange string) string {
	name := unsafeName.ReplaceAllString(strings.ToLower(exchange), "_")
	return filepath.Join(c.dir, name+"_bulkdeals.json")
}
