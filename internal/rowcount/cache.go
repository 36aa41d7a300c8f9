// Package rowcount memoizes data record counts per file signature.
package rowcount

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"tabstat/internal"
	"tabstat/ports"
)

type entry struct {
	id    ports.Identity
	count uint64
}

// Cache remembers the record count of each source identity. It is safe for
// concurrent use; concurrent requests for the same uncached path share one scan.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	group   singleflight.Group
	scans   atomic.Int64
	logger  *internal.Logger
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		logger:  internal.DefaultLogger.With("rowcount"),
	}
}

// Count returns the number of data records of src, scanning it only when its
// identity has not been seen or has changed.
func (c *Cache) Count(ctx context.Context, src ports.Countable) (uint64, error) {
	id, err := src.Identity()
	if err != nil {
		return 0, err
	}
	if n, ok := c.lookup(id); ok {
		c.logger.Trace("hit %s: %d", id.Path, n)
		return n, nil
	}

	v, err, _ := c.group.Do(key(id), func() (interface{}, error) {
		// another caller may have filled the entry while we waited
		if n, ok := c.lookup(id); ok {
			return n, nil
		}
		c.scans.Add(1)
		n, err := src.CountRecords(ctx)
		if err != nil {
			return uint64(0), err
		}
		c.mu.Lock()
		c.entries[id.Path] = entry{id: id, count: n}
		c.mu.Unlock()
		c.logger.Debug("counted %s: %d records", id.Path, n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(uint64), nil
}

func (c *Cache) lookup(id ports.Identity) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id.Path]
	if !ok || !e.id.Equal(id) {
		return 0, false
	}
	return e.count, true
}

// key distinguishes signatures of the same path so a changed file never joins
// a scan of its previous contents.
func key(id ports.Identity) string {
	return id.Path + "\x00" + id.ModTime.String() + "\x00" + strconv.FormatInt(id.Size, 10)
}

// Scans reports how many times a source was actually counted.
func (c *Cache) Scans() int64 {
	return c.scans.Load()
}

// Store records a count learned elsewhere, such as by a full scan of the
// source, so a later Count of the same identity does not scan again.
func (c *Cache) Store(id ports.Identity, n uint64) {
	c.mu.Lock()
	c.entries[id.Path] = entry{id: id, count: n}
	c.mu.Unlock()
	c.logger.Trace("stored %s: %d", id.Path, n)
}
