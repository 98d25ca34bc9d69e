package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileStore keeps one JSON document per key in a directory:
//
//	{"written_at": <epoch seconds>, "payload": <raw json>}
type FileStore struct {
	dir string
}

type fileEntry struct {
	WrittenAt int64           `json:"written_at"`
	Payload   json.RawMessage `json:"payload"`
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the backing directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// Get reads the entry for key. A file that cannot be decoded counts as missing.
func (s *FileStore) Get(key string) (Entry, error) {
	path, err := s.path(key)
	if err != nil {
		return Entry{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("reading cache file: %w", err)
	}

	var fe fileEntry
	if err := json.Unmarshal(data, &fe); err != nil {
		return Entry{}, ErrNotFound
	}

	return Entry{
		Key:       key,
		WrittenAt: time.Unix(fe.WrittenAt, 0),
		Payload:   []byte(fe.Payload),
	}, nil
}

// Put writes the entry atomically (temp file, then rename) so readers never see a
// partial document. Concurrent writers for the same key race; the last rename wins.
func (s *FileStore) Put(entry Entry) error {
	path, err := s.path(entry.Key)
	if err != nil {
		return err
	}
	if !json.Valid(entry.Payload) {
		return fmt.Errorf("cache payload for %q is not valid JSON", entry.Key)
	}

	data, err := json.Marshal(fileEntry{
		WrittenAt: entry.WrittenAt.Unix(),
		Payload:   entry.Payload,
	})
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, entry.Key+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}
