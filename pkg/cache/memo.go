// Package cache memoizes decoded template resources.
//
// Both caches in matchthumb (decoded layer images and rendered text layers)
// are instances of [Memo]: an unbounded map guarded by a read/write mutex so
// that hits proceed concurrently while the rare insert is serialized.
//
// # Generations
//
// Every entry is tagged with the configuration generation it was computed
// under. A lookup for generation g only hits entries tagged g; older entries
// are treated as misses and replaced. [Memo.Purge] drops everything older than
// a given generation and is called once a reload has published a new
// configuration. Compositions still running against the previous generation
// keep working: their inserts never overwrite a newer entry.
//
// # Eviction
//
// There is no size bound and no LRU. Template resources are a small, stable
// set reused for the whole process lifetime, so memory is bounded by the
// number of distinct keys per generation.
package cache

import (
	"sync"
	"sync/atomic"
)

// Stats reports memo activity since creation or the last Clear.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

type entry[V any] struct {
	value V
	gen   uint64
}

// Memo is a concurrency-safe, generation-tagged memoization table.
type Memo[K comparable, V any] struct {
	mu       sync.RWMutex
	items    map[K]entry[V]
	disabled bool

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemo creates an empty memo.
func NewMemo[K comparable, V any]() *Memo[K, V] {
	return &Memo[K, V]{items: make(map[K]entry[V])}
}

// Get returns the value stored for key under generation gen.
func (m *Memo[K, V]) Get(key K, gen uint64) (V, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()

	if ok && e.gen == gen {
		m.hits.Add(1)
		return e.value, true
	}
	m.misses.Add(1)
	var zero V
	return zero, false
}

// Set stores value for key under generation gen.
// An entry from a newer generation is never replaced by an older one.
func (m *Memo[K, V]) Set(key K, gen uint64, value V) {
	if m.disabled {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.items[key]; ok && e.gen > gen {
		return
	}
	m.items[key] = entry[V]{value: value, gen: gen}
}

// GetOrCompute returns the stored value for key, or calls compute and stores
// its result. The boolean reports whether the value came from the memo.
// Errors are returned to the caller and never stored.
//
// compute runs without holding the lock; two goroutines missing on the same
// key may both compute, and the later insert wins.
func (m *Memo[K, V]) GetOrCompute(key K, gen uint64, compute func() (V, error)) (V, bool, error) {
	if v, ok := m.Get(key, gen); ok {
		return v, true, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, false, err
	}
	m.Set(key, gen, v)
	return v, false, nil
}

// Purge removes entries computed under a generation older than gen and
// returns how many were removed.
func (m *Memo[K, V]) Purge(gen uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k, e := range m.items {
		if e.gen < gen {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// Clear removes every entry and resets the counters.
func (m *Memo[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = make(map[K]entry[V])
	m.hits.Store(0)
	m.misses.Store(0)
}

// Len returns the number of stored entries.
func (m *Memo[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Stats returns a snapshot of the memo's counters.
func (m *Memo[K, V]) Stats() Stats {
	return Stats{
		Entries: m.Len(),
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
	}
}
