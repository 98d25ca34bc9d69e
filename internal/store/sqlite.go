package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a single table. Writes go through one connection;
// reads use a separate pool.
type SQLiteStore struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// OpenSQLite opens (or creates) the database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	s := &SQLiteStore{writeDB: writeDB}
	if err := s.init(); err != nil {
		writeDB.Close()
		return nil, err
	}

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}
	s.readDB = readDB
	return s, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			key        TEXT PRIMARY KEY,
			written_at INTEGER NOT NULL,
			payload    BLOB NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Get returns the entry for key.
func (s *SQLiteStore) Get(key string) (Entry, error) {
	var (
		writtenAt int64
		payload   []byte
	)
	err := s.readDB.QueryRow(
		"SELECT written_at, payload FROM cache_entries WHERE key = ?", key,
	).Scan(&writtenAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("querying cache entry: %w", err)
	}
	return Entry{Key: key, WrittenAt: time.Unix(writtenAt, 0), Payload: payload}, nil
}

// Put upserts the entry.
func (s *SQLiteStore) Put(entry Entry) error {
	_, err := s.writeDB.Exec(`
		INSERT INTO cache_entries (key, written_at, payload) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			written_at = excluded.written_at,
			payload = excluded.payload
	`, entry.Key, entry.WrittenAt.Unix(), entry.Payload)
	if err != nil {
		return fmt.Errorf("upserting cache entry %s: %w", entry.Key, err)
	}
	return nil
}

// Close releases both connection pools.
func (s *SQLiteStore) Close() error {
	var errs []error
	if s.readDB != nil {
		errs = append(errs, s.readDB.Close())
	}
	if s.writeDB != nil {
		errs = append(errs, s.writeDB.Close())
	}
	return errors.Join(errs...)
}
