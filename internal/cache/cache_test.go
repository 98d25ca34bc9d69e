package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/i474232898/air-quality-insight/internal/store"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestPutThenGet(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)}
	c := New(store.NewMemoryStore(), 6*time.Hour, WithClock(clock.Now))

	if err := c.Put("aq-a", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	payload, ok := c.Get("aq-a")
	if !ok {
		t.Fatal("expected a live entry right after put")
	}
	if string(payload) != `{"ok":true}` {
		t.Errorf("unexpected payload %s", payload)
	}
}

func TestExpiredEntryIsAbsent(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)}
	backend := store.NewMemoryStore()
	c := New(backend, 6*time.Hour, WithClock(clock.Now))

	if err := c.Put("aq-b", []byte(`1`)); err != nil {
		t.Fatalf("put: %v", err)
	}

	clock.Advance(6*time.Hour + time.Second)
	if _, ok := c.Get("aq-b"); ok {
		t.Fatal("expected entry past TTL to be absent")
	}

	// The stored payload itself is untouched.
	entry, err := backend.Get("aq-b")
	if err != nil {
		t.Fatalf("expected backend to still hold the entry: %v", err)
	}
	if string(entry.Payload) != "1" {
		t.Errorf("unexpected stored payload %s", entry.Payload)
	}
}

func TestMissingEntryIsAbsent(t *testing.T) {
	c := New(store.NewMemoryStore(), 0)
	if c.TTL() != DefaultTTL {
		t.Errorf("expected default TTL, got %v", c.TTL())
	}
	if _, ok := c.Get("aq-none"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

func TestFingerprintStable(t *testing.T) {
	start := time.Date(2026, 10, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)

	a := Fingerprint(-6.17541, 106.82719, start, end)
	b := Fingerprint(-6.17539, 106.82721, start, end)
	if a != b {
		t.Errorf("expected coordinates within rounding to share a key: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "aq-") {
		t.Errorf("expected aq- prefix, got %s", a)
	}

	c := Fingerprint(-6.17541, 106.82719, start, end.AddDate(0, 0, 1))
	if a == c {
		t.Error("expected different date range to change the key")
	}
	d := Fingerprint(-6.2, 106.82719, start, end)
	if a == d {
		t.Error("expected different coordinate to change the key")
	}
}
