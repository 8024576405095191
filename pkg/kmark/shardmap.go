package kmark

import "sync"

// shardMap is a fine-grained-locked concurrent map. Keys are spread across
// shards by a caller-supplied hash so that writers for different keys rarely
// contend, while per-key operations stay a single critical section on one
// shard. In particular tryInsert is a true atomic compare-and-insert, which
// is what the pending ledger's single-claimer guarantee rests on.
type shardMap[K comparable, V any] struct {
	shards []shard[K, V]
	hash   func(K) uint32
}

type shard[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func newShardMap[K comparable, V any](shards int, hash func(K) uint32) *shardMap[K, V] {
	m := &shardMap[K, V]{
		shards: make([]shard[K, V], shards),
		hash:   hash,
	}
	for i := range m.shards {
		m.shards[i].items = make(map[K]V)
	}
	return m
}

func (m *shardMap[K, V]) shardFor(key K) *shard[K, V] {
	return &m.shards[m.hash(key)%uint32(len(m.shards))]
}

// tryInsert inserts key → val only if key is absent, returning whether the
// insert happened.
func (m *shardMap[K, V]) tryInsert(key K, val V) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; exists {
		return false
	}
	s.items[key] = val
	return true
}

func (m *shardMap[K, V]) get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.items[key]
	return val, ok
}

// delete removes key if present; deleting an absent key is a no-op.
func (m *shardMap[K, V]) delete(key K) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}

// deleteFunc removes every entry for which pred returns true and returns how
// many entries were removed. Each shard is swept under its own lock; entries
// inserted into an already-swept shard concurrently with the sweep survive.
func (m *shardMap[K, V]) deleteFunc(pred func(K, V) bool) int {
	var deleted int
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.items {
			if pred(k, v) {
				delete(s.items, k)
				deleted++
			}
		}
		s.mu.Unlock()
	}
	return deleted
}

// clear drops all entries.
func (m *shardMap[K, V]) clear() {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		s.items = make(map[K]V)
		s.mu.Unlock()
	}
}

func (m *shardMap[K, V]) len() int {
	var n int
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}
