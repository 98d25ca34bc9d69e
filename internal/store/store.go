package store

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no entry exists for a key.
	ErrNotFound = errors.New("cache entry not found")
)

// Entry is one persisted cache record.
type Entry struct {
	Key       string
	WrittenAt time.Time
	Payload   []byte
}

// Store is the contract every cache backend (memory, file, sqlite) satisfies.
// Backends know nothing about TTLs; expiry is decided by the reader.
type Store interface {
	Get(key string) (Entry, error)
	Put(entry Entry) error
}
