package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// perAreaTimeout bounds one area's warm-up run.
const perAreaTimeout = 2 * time.Minute

// Warmer prefetches an area into the response cache. *pipeline.Pipeline implements it.
type Warmer interface {
	WarmUp(ctx context.Context, area string, days int) (int, error)
}

// Scheduler periodically warms the response cache for configured areas.
type Scheduler struct {
	scheduler *gocron.Scheduler
	warmer    Warmer
	areas     []string
	interval  time.Duration
	days      int
}

// New creates a new Scheduler.
func New(areas []string, interval time.Duration, days int, warmer Warmer) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		warmer:    warmer,
		areas:     areas,
		interval:  interval,
		days:      days,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.areas) == 0 {
		log.Println("INFO: scheduler: no warm-up areas configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 360
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce warms every area concurrently and waits for all of them.
func (s *Scheduler) RunOnce() {
	log.Printf("INFO: scheduler: warming %d areas", len(s.areas))

	var wg sync.WaitGroup
	for _, area := range s.areas {
		wg.Add(1)
		go func(area string) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), perAreaTimeout)
			defer cancel()

			n, err := s.warmer.WarmUp(ctx, area, s.days)
			if err != nil {
				log.Printf("WARN: scheduler: warm-up failed for %s: %v", area, err)
				return
			}
			log.Printf("INFO: scheduler: %s warmed (%d locations with data)", area, n)
		}(area)
	}
	wg.Wait()
	log.Println("INFO: scheduler: warm-up complete")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
