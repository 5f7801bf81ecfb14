// Package diskcache is a small file-per-key cache with a TTL. The scanner
// and the name parser use it to short-circuit repeated work across CLI
// invocations; entries are plain files named by the URL-escaped key, aged
// by mtime. Writes take a directory-level flock so concurrent rill
// processes sharing a cache directory never interleave partial entries.
package diskcache

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"rill/internal/logging"
)

// Cache is a TTL-bound key/value store on the filesystem. A Cache with an
// empty directory is disabled: every Get misses and every Set is a no-op.
type Cache struct {
	dir    string
	ttl    time.Duration
	logger *slog.Logger
}

// New builds a cache rooted at dir. Pass an empty dir to disable.
func New(dir string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Cache{
		dir:    dir,
		ttl:    ttl,
		logger: logging.NewComponentLogger(logger, "diskcache"),
	}
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.dir, url.QueryEscape(key))
}

// Get returns the cached value for key if present and fresh. Stale
// entries are removed on the way out.
func (c *Cache) Get(key string) ([]byte, bool) {
	if c.dir == "" {
		return nil, false
	}
	path := c.entryPath(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		_ = os.Remove(path)
		c.logger.Debug("evicted stale entry", logging.String("key", key))
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		c.logger.Warn("unreadable cache entry", logging.String("key", key), logging.Error(err))
		return nil, false
	}
	return data, true
}

// Set stores value under key, creating the cache directory on first use.
func (c *Cache) Set(key string, value []byte) error {
	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(c.dir, ".lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock cache directory: %w", err)
	}
	defer lock.Unlock() //nolint:errcheck

	path := c.entryPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit cache entry: %w", err)
	}
	return nil
}

// Remove drops the entry for key if present.
func (c *Cache) Remove(key string) error {
	if c.dir == "" {
		return nil
	}
	err := os.Remove(c.entryPath(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
