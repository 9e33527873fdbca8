package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry struct {
	key        string
	data       []byte
	insertedAt time.Time
	lastAccess time.Time
}

// Memory is an in-process Store with two independent expirations per entry, a
// fixed time-to-live from insertion and a time-to-idle since last access, and
// a bounded entry count with least-recently-used eviction on admit.
type Memory struct {
	mu         sync.Mutex
	ttl        time.Duration
	idleTTL    time.Duration
	maxEntries int

	entries map[string]*list.Element
	lru     *list.List // front = most recently used

	now func() time.Time

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewMemory creates a Memory store. ttl is the lifetime from insertion,
// idleTTL the lifetime since last access; an entry is gone when either
// elapses. maxEntries bounds the total entry count.
func NewMemory(ttl, idleTTL time.Duration, maxEntries int) *Memory {
	return &Memory{
		ttl:        ttl,
		idleTTL:    idleTTL,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		now:        time.Now,
	}
}

func (m *Memory) expired(e *entry, now time.Time) bool {
	return now.Sub(e.insertedAt) >= m.ttl || now.Sub(e.lastAccess) >= m.idleTTL
}

// Get returns the bytes for key. An expired entry is removed and reported as
// a miss. A hit refreshes the idle clock and the LRU position.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		m.misses++
		return nil, false
	}

	e := el.Value.(*entry)
	now := m.now()
	if m.expired(e, now) {
		m.removeLocked(el)
		m.misses++
		return nil, false
	}

	e.lastAccess = now
	m.lru.MoveToFront(el)
	m.hits++
	return e.data, true
}

// Set stores or replaces the entry for key, resetting both expiration clocks.
// When the cache is full, the least recently used entry is evicted to admit
// the new one.
func (m *Memory) Set(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if el, ok := m.entries[key]; ok {
		e := el.Value.(*entry)
		e.data = val
		e.insertedAt = now
		e.lastAccess = now
		m.lru.MoveToFront(el)
		return
	}

	for m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		victim := m.lru.Back()
		if victim == nil {
			break
		}
		m.removeLocked(victim)
		m.evictions++
	}

	el := m.lru.PushFront(&entry{key: key, data: val, insertedAt: now, lastAccess: now})
	m.entries[key] = el
}

func (m *Memory) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	m.lru.Remove(el)
	delete(m.entries, e.key)
}

// Len returns the current entry count, including not-yet-collected expired
// entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Stats returns point-in-time counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Entries:   len(m.entries),
		Hits:      m.hits,
		Misses:    m.misses,
		Evictions: m.evictions,
	}
}
