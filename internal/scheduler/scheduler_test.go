package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"
)

type fakeWarmer struct {
	mu    sync.Mutex
	areas []string
	days  int
}

func (f *fakeWarmer) WarmUp(ctx context.Context, area string, days int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.areas = append(f.areas, area)
	f.days = days
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("expected a deadline")
	}
	if area == "Atlantis" {
		return 0, errors.New("not found")
	}
	return 3, nil
}

func TestRunOnceWarmsEveryArea(t *testing.T) {
	w := &fakeWarmer{}
	s := New([]string{"Jakarta", "Atlantis", "Surabaya"}, time.Hour, 7, w)

	s.RunOnce()

	sort.Strings(w.areas)
	if len(w.areas) != 3 || w.areas[0] != "Atlantis" || w.areas[2] != "Surabaya" {
		t.Errorf("unexpected warmed areas %v", w.areas)
	}
	if w.days != 7 {
		t.Errorf("expected 7 days, got %d", w.days)
	}
}

func TestStartWithoutAreas(t *testing.T) {
	s := New(nil, time.Hour, 7, &fakeWarmer{})
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.scheduler.Jobs()) != 0 {
		t.Error("expected no jobs to be scheduled")
	}
	s.Stop()
}
