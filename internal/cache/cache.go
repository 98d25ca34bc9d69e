package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/i474232898/air-quality-insight/internal/store"
)

// DefaultTTL is how long a cached response stays live.
const DefaultTTL = 6 * time.Hour

// CoordinatePrecision is the number of decimals coordinates are rounded to
// before fingerprinting (about 110 m at the equator).
const CoordinatePrecision = 3

// ResponseCache is a TTL view over a store.Store. Expired and missing entries are
// indistinguishable to callers; nothing is ever deleted.
type ResponseCache struct {
	backend store.Store
	ttl     time.Duration
	now     func() time.Time
}

// Option customizes a ResponseCache.
type Option func(*ResponseCache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ResponseCache) { c.now = now }
}

// New creates a ResponseCache. A non-positive ttl falls back to DefaultTTL.
func New(backend store.Store, ttl time.Duration, opts ...Option) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ResponseCache{backend: backend, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload for key if it was written less than TTL ago.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	entry, err := c.backend.Get(key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("WARN: cache: read %s failed: %v", key, err)
		}
		return nil, false
	}
	if c.now().Sub(entry.WrittenAt) > c.ttl {
		return nil, false
	}
	return entry.Payload, true
}

// Put stores payload under key stamped with the current time.
func (c *ResponseCache) Put(key string, payload []byte) error {
	return c.backend.Put(store.Entry{
		Key:       key,
		WrittenAt: c.now(),
		Payload:   payload,
	})
}

// Fingerprint derives the stable cache key for a coordinate and date window.
// Dates are formatted as calendar days so the key survives restarts and time zones.
func Fingerprint(lat, lon float64, start, end time.Time) string {
	raw := fmt.Sprintf("%s|%s|%s|%s",
		strconv.FormatFloat(round(lat), 'f', CoordinatePrecision, 64),
		strconv.FormatFloat(round(lon), 'f', CoordinatePrecision, 64),
		start.Format("2006-01-02"),
		end.Format("2006-01-02"),
	)
	sum := sha1.Sum([]byte(raw))
	return "aq-" + hex.EncodeToString(sum[:])
}

func round(v float64) float64 {
	r := math.Round(v*1e3) / 1e3
	if r == 0 {
		return 0 // drops negative zero
	}
	return r
}
