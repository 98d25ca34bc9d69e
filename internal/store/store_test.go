package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testBackends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	fs, err := NewFileStore(filepath.Join(dir, "files"))
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	db, err := OpenSQLite(filepath.Join(dir, "cache.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   fs,
		"sqlite": db,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	written := time.Unix(1_760_000_000, 0)
	for name, s := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("aq-missing"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			entry := Entry{Key: "aq-1", WrittenAt: written, Payload: []byte(`{"pm2_5":12.5}`)}
			if err := s.Put(entry); err != nil {
				t.Fatalf("put: %v", err)
			}

			got, err := s.Get("aq-1")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !got.WrittenAt.Equal(written) {
				t.Errorf("expected written_at %v, got %v", written, got.WrittenAt)
			}
			if string(got.Payload) != `{"pm2_5":12.5}` {
				t.Errorf("unexpected payload %s", got.Payload)
			}
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	for name, s := range testBackends(t) {
		t.Run(name, func(t *testing.T) {
			first := Entry{Key: "aq-2", WrittenAt: time.Unix(100, 0), Payload: []byte(`1`)}
			second := Entry{Key: "aq-2", WrittenAt: time.Unix(200, 0), Payload: []byte(`2`)}
			if err := s.Put(first); err != nil {
				t.Fatalf("first put: %v", err)
			}
			if err := s.Put(second); err != nil {
				t.Fatalf("second put: %v", err)
			}

			got, err := s.Get("aq-2")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if string(got.Payload) != "2" || got.WrittenAt.Unix() != 200 {
				t.Errorf("expected last write to win, got %s at %d", got.Payload, got.WrittenAt.Unix())
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	if err := fs.Put(Entry{Key: "aq-3", WrittenAt: time.Unix(42, 0), Payload: []byte(`{"a":1}`)}); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "aq-3.json"))
	if err != nil {
		t.Fatalf("reading entry file: %v", err)
	}
	if string(data) != `{"written_at":42,"payload":{"a":1}}` {
		t.Errorf("unexpected file layout: %s", data)
	}

	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("expected no temp files, found %v", leftovers)
	}
}

func TestFileStoreRejectsBadInput(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	if err := fs.Put(Entry{Key: "../escape", Payload: []byte(`{}`)}); err == nil {
		t.Error("expected error for key with path separator")
	}
	if err := fs.Put(Entry{Key: "aq-4", Payload: []byte(`not json`)}); err == nil {
		t.Error("expected error for non-JSON payload")
	}
}

func TestFileStoreCorruptFileIsMiss(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "aq-5.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}
	if _, err := fs.Get("aq-5"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for corrupt file, got %v", err)
	}
}
