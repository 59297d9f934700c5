// internal/storage/file_cache.go
package storage

import (
	"os"
	"sort"
	"sync"
	"time"

	"github.com/akashia/dreambank/internal/models"
)

// rowCache keeps parsed rows per file. An entry is valid while the file's
// modification time and size are unchanged and it has not expired.
type rowCache struct {
	mu         sync.RWMutex
	entries    map[string]*rowCacheEntry
	maxSize    int
	expiration time.Duration
}

type rowCacheEntry struct {
	rows      []models.Submission
	modTime   time.Time
	size      int64
	createdAt time.Time
	lastRead  time.Time
}

func newRowCache(maxSize int, expiration time.Duration) *rowCache {
	if maxSize <= 0 {
		maxSize = 16
	}
	if expiration <= 0 {
		expiration = 5 * time.Minute
	}
	return &rowCache{
		entries:    make(map[string]*rowCacheEntry),
		maxSize:    maxSize,
		expiration: expiration,
	}
}

// get returns a copy of the cached rows for path if info still matches
func (c *rowCache) get(path string, info os.FileInfo) ([]models.Submission, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	modified := !info.ModTime().Equal(entry.modTime) || info.Size() != entry.size
	if modified || time.Since(entry.createdAt) > c.expiration {
		delete(c.entries, path)
		return nil, false
	}
	entry.lastRead = time.Now()
	return append([]models.Submission(nil), entry.rows...), true
}

func (c *rowCache) put(path string, info os.FileInfo, rows []models.Submission) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entries[path] = &rowCacheEntry{
		rows:      append([]models.Submission(nil), rows...),
		modTime:   info.ModTime(),
		size:      info.Size(),
		createdAt: now,
		lastRead:  now,
	}
	if len(c.entries) > c.maxSize {
		c.cleanupLRU(max(1, c.maxSize/5))
	}
}

func (c *rowCache) invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// cleanupLRU drops the count least recently read entries; callers hold mu
func (c *rowCache) cleanupLRU(count int) {
	type keyAge struct {
		key  string
		time time.Time
	}
	entries := make([]keyAge, 0, len(c.entries))
	for k, v := range c.entries {
		entries = append(entries, keyAge{k, v.lastRead})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})
	for i := 0; i < min(count, len(entries)); i++ {
		delete(c.entries, entries[i].key)
	}
}
