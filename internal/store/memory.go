package store

import (
	"sync"
)

// MemoryStore is a concurrency-safe in-memory backend.
// Entries live until the process exits.
type MemoryStore struct {
	mu sync.RWMutex

	// key: fingerprint, value: entry
	data map[string]Entry
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Entry),
	}
}

// Put stores a copy of the entry, replacing any previous one for the key.
func (s *MemoryStore) Put(entry Entry) error {
	payload := make([]byte, len(entry.Payload))
	copy(payload, entry.Payload)
	entry.Payload = payload

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[entry.Key] = entry
	return nil
}

// Get returns the entry for key.
func (s *MemoryStore) Get(key string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return entry, nil
}

// Len reports the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
