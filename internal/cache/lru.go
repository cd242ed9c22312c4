// Package cache keeps recently captured snapshot models in memory so
// repeated operations against the same workbook skip re-extraction.
package cache

import (
	"os"
	"sync"
	"time"

	"github.com/xldiff/xldiff/internal/model"
)

// entry is a doubly-linked list node for LRU tracking. Each entry pins
// the file identity (modtime and size) its snapshot was captured from.
type entry struct {
	key     string
	value   *model.WorkbookModel
	modTime time.Time
	size    int64
	prev    *entry
	next    *entry
}

// SnapshotCache is a thread-safe least-recently-used cache of snapshot
// models keyed by workbook path.
type SnapshotCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*entry
	head     *entry // Most recently used
	tail     *entry // Least recently used
}

// New creates a snapshot cache with the given capacity.
// If capacity is less than 1, it defaults to 1.
func New(capacity int) *SnapshotCache {
	if capacity < 1 {
		capacity = 1
	}
	return &SnapshotCache{
		capacity: capacity,
		items:    make(map[string]*entry),
	}
}

// Get retrieves the snapshot cached for a path when the recorded modtime
// and size still match the caller's. A stale entry is dropped and reported
// as a miss. Hits are marked recently used.
func (c *SnapshotCache) Get(path string, modTime time.Time, size int64) (*model.WorkbookModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[path]
	if !ok {
		return nil, false
	}
	if !e.modTime.Equal(modTime) || e.size != size {
		c.removeEntry(e)
		delete(c.items, path)
		return nil, false
	}

	c.moveToFront(e)
	return e.value, true
}

// Set records a snapshot for a path together with the file identity it was
// captured from. Existing entries are replaced and marked recently used.
func (c *SnapshotCache) Set(path string, wb *model.WorkbookModel, modTime time.Time, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[path]; ok {
		e.value = wb
		e.modTime = modTime
		e.size = size
		c.moveToFront(e)
		return
	}

	e := &entry{key: path, value: wb, modTime: modTime, size: size}
	c.items[path] = e
	c.addToFront(e)

	if len(c.items) > c.capacity {
		c.evict()
	}
}

// Lookup stats the file and returns its cached snapshot when fresh.
func (c *SnapshotCache) Lookup(path string) (*model.WorkbookModel, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	return c.Get(path, info.ModTime(), info.Size())
}

// Store stats the file and records the snapshot against its current
// identity. Files that vanished between capture and store are skipped.
func (c *SnapshotCache) Store(path string, wb *model.WorkbookModel) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	c.Set(path, wb, info.ModTime(), info.Size())
}

// Invalidate drops a path's entry, if present.
func (c *SnapshotCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[path]; ok {
		c.removeEntry(e)
		delete(c.items, path)
	}
}

// Len returns the current number of cached snapshots.
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all cached snapshots.
func (c *SnapshotCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*entry)
	c.head = nil
	c.tail = nil
}

// addToFront adds an entry to the front of the doubly-linked list.
func (c *SnapshotCache) addToFront(e *entry) {
	e.prev = nil
	e.next = c.head

	if c.head != nil {
		c.head.prev = e
	}
	c.head = e

	if c.tail == nil {
		c.tail = e
	}
}

// removeEntry removes an entry from the doubly-linked list.
func (c *SnapshotCache) removeEntry(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}

	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

// moveToFront moves an existing entry to the front of the list.
func (c *SnapshotCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.removeEntry(e)
	c.addToFront(e)
}

// evict removes the least recently used entry (tail).
func (c *SnapshotCache) evict() {
	if c.tail == nil {
		return
	}
	delete(c.items, c.tail.key)
	c.removeEntry(c.tail)
}
