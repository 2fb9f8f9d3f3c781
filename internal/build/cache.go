package build

import (
	"sync"
	"time"

	"github.com/jettary/vueify-through2/internal/types"
)

// PartsCache remembers the previous compilation's resolved parts per
// scope identifier. The merge engine reads it once per compile to
// decide between the hot-reload update strategies (full reload when
// the script changed, re-render when only the template changed) and
// overwrites the entry with the current run's parts afterwards.
//
// The cache is owned by one Compiler instance, so independent
// compiler instances never interfere. It is LRU-bounded with a TTL;
// losing an entry only costs one unnecessary full reload.
type PartsCache struct {
	entries     map[string]*cacheEntry
	mutex       sync.Mutex
	maxSize     int64
	currentSize int64
	ttl         time.Duration
	// LRU doubly-linked list with dummy head and tail
	head *cacheEntry
	tail *cacheEntry
}

type cacheEntry struct {
	key        string
	parts      *types.ResolvedParts
	createdAt  time.Time
	accessedAt time.Time
	size       int64
	prev       *cacheEntry
	next       *cacheEntry
}

// NewPartsCache creates a cache bounded to maxSize bytes of resolved
// parts with the given entry TTL.
func NewPartsCache(maxSize int64, ttl time.Duration) *PartsCache {
	cache := &PartsCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		head:    &cacheEntry{},
		tail:    &cacheEntry{},
	}
	cache.head.next = cache.tail
	cache.tail.prev = cache.head
	return cache
}

// Get returns the previous run's resolved parts for a scope id.
func (pc *PartsCache) Get(scopeID string) (*types.ResolvedParts, bool) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	entry, exists := pc.entries[scopeID]
	if !exists {
		return nil, false
	}

	if time.Since(entry.createdAt) > pc.ttl {
		pc.removeFromList(entry)
		delete(pc.entries, scopeID)
		pc.currentSize -= entry.size
		return nil, false
	}

	pc.moveToFront(entry)
	entry.accessedAt = time.Now()
	return entry.parts, true
}

// Set records the current run's resolved parts for a scope id,
// evicting least recently used entries when over budget.
func (pc *PartsCache) Set(scopeID string, parts *types.ResolvedParts) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()

	size := parts.Size()

	if existing, exists := pc.entries[scopeID]; exists {
		pc.currentSize += size - existing.size
		existing.parts = parts
		existing.size = size
		existing.createdAt = time.Now()
		existing.accessedAt = time.Now()
		pc.moveToFront(existing)
		return
	}

	pc.evictIfNeeded(size)

	entry := &cacheEntry{
		key:        scopeID,
		parts:      parts,
		createdAt:  time.Now(),
		accessedAt: time.Now(),
		size:       size,
	}
	pc.entries[scopeID] = entry
	pc.currentSize += size
	pc.addToFront(entry)
}

// Clear drops every cached entry.
func (pc *PartsCache) Clear() {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	pc.entries = make(map[string]*cacheEntry)
	pc.currentSize = 0
	pc.head.next = pc.tail
	pc.tail.prev = pc.head
}

// Stats returns entry count, current size, and max size.
func (pc *PartsCache) Stats() (int, int64, int64) {
	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	return len(pc.entries), pc.currentSize, pc.maxSize
}

func (pc *PartsCache) evictIfNeeded(newSize int64) {
	for pc.currentSize+newSize > pc.maxSize && pc.tail.prev != pc.head {
		lru := pc.tail.prev
		pc.removeFromList(lru)
		delete(pc.entries, lru.key)
		pc.currentSize -= lru.size
	}
}

func (pc *PartsCache) addToFront(entry *cacheEntry) {
	entry.prev = pc.head
	entry.next = pc.head.next
	pc.head.next.prev = entry
	pc.head.next = entry
}

func (pc *PartsCache) removeFromList(entry *cacheEntry) {
	entry.prev.next = entry.next
	entry.next.prev = entry.prev
}

func (pc *PartsCache) moveToFront(entry *cacheEntry) {
	pc.removeFromList(entry)
	pc.addToFront(entry)
}
