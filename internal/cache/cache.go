package cache

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dshills/warndiff/internal/extract"
)

const entryExt = ".mp"

// Entry represents the cached diagnostics of one log.
type Entry struct {
	Key         string               `msgpack:"key"`
	Encoding    string               `msgpack:"encoding"`
	Diagnostics []extract.Diagnostic `msgpack:"diagnostics"`
	CreatedAt   time.Time            `msgpack:"created_at"`
	TTL         int                  `msgpack:"ttl"`
}

// Cache provides file-based caching of extracted diagnostics.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
	now        func() time.Time
}

// New creates a new Cache. If dir is empty, uses the default cache directory.
func New(enabled bool, dir string, ttlSeconds int) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: ttlSeconds,
		enabled:    true,
		now:        time.Now,
	}, nil
}

// Get retrieves a cached entry by key. Unreadable, corrupt and expired
// entries are misses.
func (c *Cache) Get(key string) (Entry, bool) {
	if !c.enabled {
		return Entry{}, false
	}
	path := c.entryPath(key)
	entry, err := readEntry(path)
	if os.IsNotExist(err) {
		return Entry{}, false
	}
	if err != nil || entry.Key != HashKey(key) || c.expired(entry) {
		os.Remove(path)
		return Entry{}, false
	}
	return entry, true
}

// Put stores the diagnostics extracted from a log.
func (c *Cache) Put(key, encoding string, diags []extract.Diagnostic) error {
	if !c.enabled {
		return nil
	}
	entry := Entry{
		Key:         HashKey(key),
		Encoding:    encoding,
		Diagnostics: diags,
		CreatedAt:   c.now(),
		TTL:         c.ttlSeconds,
	}

	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache entry: %w", err)
	}
	defer os.Remove(f.Name())

	if err := msgpack.NewEncoder(f).Encode(&entry); err != nil {
		f.Close()
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return os.Rename(f.Name(), c.entryPath(key))
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	return c.each(func(path string, _ os.DirEntry) error {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing cache entry: %w", err)
		}
		return nil
	})
}

// Prune removes expired and corrupt entries and reports how many were
// removed.
func (c *Cache) Prune() (int, error) {
	removed := 0
	err := c.each(func(path string, _ os.DirEntry) error {
		entry, err := readEntry(path)
		if err == nil && !c.expired(entry) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing cache entry: %w", err)
		}
		removed++
		return nil
	})
	return removed, err
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
	Corrupt    int    `json:"corrupt"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	err := c.each(func(path string, e os.DirEntry) error {
		info, err := e.Info()
		if err != nil {
			return nil
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		entry, err := readEntry(path)
		switch {
		case err != nil:
			stats.Corrupt++
		case c.expired(entry):
			stats.Expired++
		}
		return nil
	})
	return stats, err
}

// each calls fn for every entry file in the cache directory. A missing
// directory has no entries.
func (c *Cache) each(fn func(path string, e os.DirEntry) error) error {
	if !c.enabled || c.dir == "" {
		return nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != entryExt {
			continue
		}
		if err := fn(filepath.Join(c.dir, e.Name()), e); err != nil {
			return err
		}
	}
	return nil
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from the digest of the raw log bytes and
// a fingerprint of the options the diagnostics were extracted with.
func BuildCacheKey(fingerprint, digest string) string {
	return fingerprint + ":" + digest
}

func (c *Cache) expired(e Entry) bool {
	return c.ttlSeconds > 0 && c.now().Sub(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+entryExt)
}

func readEntry(path string) (Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return Entry{}, err
	}
	defer f.Close()
	var entry Entry
	if err := msgpack.NewDecoder(f).Decode(&entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// DefaultDir returns the platform-appropriate cache directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "warndiff"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "warndiff"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "warndiff", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "warndiff", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "warndiff"), nil
	}
}
