package storage

import (
	"bytes"
	"sort"
	"sync"
)

// Store is the key-value surface the engine components persist through.
// Implementations must return stored values without aliasing internal
// buffers; callers may retain and mutate what they get back.
type Store interface {
	// Get returns the value stored under key and whether it exists.
	Get(key []byte) ([]byte, bool)
	// Put stores value under key, replacing any previous value.
	Put(key, value []byte)
	// Delete removes key. Deleting an absent key is a no-op.
	Delete(key []byte)
	// Ascend visits all entries whose key starts with prefix, in
	// lexicographic key order, until fn returns false.
	Ascend(prefix []byte, fn func(key, value []byte) bool)
}

// MemoryStore is the in-memory Store used by the engine. It is safe for
// concurrent readers; the engine serializes writers by design.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// Get returns a copy of the value stored under key.
func (s *MemoryStore) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[string(key)]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true
}

// Put stores a copy of value under key.
func (s *MemoryStore) Put(key, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	s.data[string(key)] = v
}

// Delete removes key from the store.
func (s *MemoryStore) Delete(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, string(key))
}

// Ascend visits entries under prefix in sorted key order. The snapshot is
// taken under the read lock, so fn may call back into the store.
func (s *MemoryStore) Ascend(prefix []byte, fn func(key, value []byte) bool) {
	s.mu.RLock()
	keys := make([]string, 0)
	for k := range s.data {
		if bytes.HasPrefix([]byte(k), prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	for _, k := range keys {
		v, ok := s.Get([]byte(k))
		if !ok {
			continue
		}
		if !fn([]byte(k), v) {
			return
		}
	}
}

// Len returns the number of stored entries. Mainly useful in tests.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
