// Package cache stores scan findings keyed by a digest of the index dumps and
// the configuration that produced them.
package cache

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/unreach/pkg/result"
)

// Cache provides file-based caching for scan results.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry represents a cached scan.
type Entry struct {
	Digest    string           `json:"digest"`
	Timestamp time.Time        `json:"timestamp"`
	Findings  []result.Finding `json:"findings"`
}

// New creates a new cache instance.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache stores anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Digest computes a BLAKE3 digest over the contents of paths and any extra
// inputs. Path order does not matter.
func Digest(paths []string, extra ...[]byte) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	h := blake3.New()
	for _, p := range sorted {
		data, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", p, err)
		}
		writeField(h, []byte(p))
		writeField(h, data)
	}
	for _, e := range extra {
		writeField(h, e)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeField length-prefixes b so adjacent fields cannot collide.
func writeField(h *blake3.Hasher, b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = h.Write(n[:])
	_, _ = h.Write(b)
}

// HashBytes computes a BLAKE3 hash of bytes and returns it as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Get returns the findings stored under key if the digest matches and the
// entry has not expired.
func (c *Cache) Get(key, digest string) ([]result.Finding, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if entry.Digest != digest {
		return nil, false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return entry.Findings, true
}

// Set stores findings under key.
func (c *Cache) Set(key, digest string, findings []result.Finding) error {
	if !c.enabled {
		return nil
	}

	entry := Entry{
		Digest:    digest,
		Timestamp: time.Now(),
		Findings:  findings,
	}
	if entry.Findings == nil {
		entry.Findings = []result.Finding{}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), data, 0600)
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath converts a key to a filesystem path.
func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, HashBytes([]byte(key))+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache. A cleared cache has no
// entries.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	if _, err := os.Stat(c.dir); os.IsNotExist(err) {
		return stats, nil
	}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
