package scheduler

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Purger drops expired entries and reports how many were removed.
type Purger interface {
	PurgeExpired() int
}

// Scheduler periodically sweeps expired monthly values out of the cache.
type Scheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	interval  time.Duration
}

// New creates a new Scheduler.
func New(interval time.Duration, purger Purger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		purger:    purger,
		interval:  interval,
	}
}

// Start schedules the periodic sweep and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.purger == nil {
		log.Println("scheduler: no cache configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) sweep() {
	if n := s.purger.PurgeExpired(); n > 0 {
		log.Printf("scheduler: purged %d expired monthly values", n)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
