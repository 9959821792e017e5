package storage

import (
	"cmp"
	"slices"
	"sync"
	"time"
)

// MemoryStorage - universal in-memory object storage
// K - key type, V - stored object type
type MemoryStorage[K cmp.Ordered, V any] struct {
	data       map[K]V
	mutex      sync.RWMutex
	lastUpdate map[K]time.Time
}

// NewMemoryStorage creates a new storage
func NewMemoryStorage[K cmp.Ordered, V any]() *MemoryStorage[K, V] {
	return &MemoryStorage[K, V]{
		data:       make(map[K]V),
		lastUpdate: make(map[K]time.Time),
	}
}

// Set adds or updates an object
func (s *MemoryStorage[K, V]) Set(key K, value V) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.data[key] = value
	s.lastUpdate[key] = time.Now()
}

// SetIf stores value only when keep accepts the current object (ok is false when absent)
func (s *MemoryStorage[K, V]) SetIf(key K, value V, keep func(current V, ok bool) bool) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, ok := s.data[key]
	if !keep(current, ok) {
		return false
	}
	s.data[key] = value
	s.lastUpdate[key] = time.Now()
	return true
}

// Get returns an object by key
func (s *MemoryStorage[K, V]) Get(key K) (V, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.data[key]
	return value, exists
}

// UpdatedAt returns when key was last set
func (s *MemoryStorage[K, V]) UpdatedAt(key K) (time.Time, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	t, ok := s.lastUpdate[key]
	return t, ok
}

// Delete removes an object by key
func (s *MemoryStorage[K, V]) Delete(key K) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, exists := s.data[key]; !exists {
		return false
	}

	delete(s.data, key)
	delete(s.lastUpdate, key)
	return true
}

// DeleteIf removes key when match accepts the stored object
func (s *MemoryStorage[K, V]) DeleteIf(key K, match func(current V) bool) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	current, exists := s.data[key]
	if !exists || !match(current) {
		return false
	}
	delete(s.data, key)
	delete(s.lastUpdate, key)
	return true
}

// Keys returns all keys in ascending order
func (s *MemoryStorage[K, V]) Keys() []K {
	s.mutex.RLock()
	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.mutex.RUnlock()

	slices.Sort(keys)
	return keys
}

// ForEach executes a function for each object
func (s *MemoryStorage[K, V]) ForEach(fn func(key K, value V) bool) {
	// Copy data under lock for subsequent processing
	s.mutex.RLock()
	items := make(map[K]V, len(s.data))
	for k, v := range s.data {
		items[k] = v
	}
	s.mutex.RUnlock()

	for k, v := range items {
		if !fn(k, v) {
			break
		}
	}
}

// Count returns the number of objects
func (s *MemoryStorage[K, V]) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
