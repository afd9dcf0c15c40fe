package fetch

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Cache is an on-disk stylesheet cache keyed by URL. Entries are sharded
// two directory levels deep by their sha1 hex. When the total size
// passes the cap, the least recently touched entries are pruned; reads
// refresh an entry's mtime to keep hot sheets resident.
type Cache struct {
	dir string
	max int64
	mu  sync.Mutex
}

// NewCache opens (creating if needed) a cache rooted at dir capped at
// maxBytes. A cap of zero or less disables pruning.
func NewCache(dir string, maxBytes int64) (*Cache, error) {
	if dir == "" {
		dir = filepath.Join("cache", "css")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir %s: %w", dir, err)
	}
	return &Cache{dir: dir, max: maxBytes}, nil
}

func (c *Cache) key(url string) (string, string) {
	sum := sha1.Sum([]byte(url))
	h := hex.EncodeToString(sum[:])
	dir := filepath.Join(c.dir, h[:1], h[1:2])
	return dir, filepath.Join(dir, h+".css")
}

// Get returns the cached text for url, refreshing its recency on a hit.
func (c *Cache) Get(url string) (string, bool) {
	_, path := c.key(url)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	now := time.Now()
	_ = os.Chtimes(path, now, now)
	return string(b), true
}

// Put stores text under url and prunes in the background.
func (c *Cache) Put(url, text string) {
	dir, path := c.key(url)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return
	}
	_ = os.Rename(tmp, path)
	go c.prune()
}

// prune removes oldest entries until the cache fits under the cap.
func (c *Cache) prune() {
	if c.max <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	type entry struct {
		path string
		size int64
		mod  time.Time
	}
	var entries []entry
	var total int64
	_ = filepath.WalkDir(c.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(p, ".css") {
			return nil
		}
		if info, e := d.Info(); e == nil {
			entries = append(entries, entry{p, info.Size(), info.ModTime()})
			total += info.Size()
		}
		return nil
	})
	if total <= c.max {
		return
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mod.Before(entries[j].mod) })
	for _, e := range entries {
		if total <= c.max {
			break
		}
		_ = os.Remove(e.path)
		total -= e.size
	}
}
