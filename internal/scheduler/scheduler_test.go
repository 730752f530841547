package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingPurger struct {
	calls int32
}

func (p *countingPurger) PurgeExpired() int {
	atomic.AddInt32(&p.calls, 1)
	return 2
}

func TestStartWithoutPurger(t *testing.T) {
	s := New(time.Minute, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.Stop()
}

func TestSweepCallsPurger(t *testing.T) {
	p := &countingPurger{}
	s := New(time.Hour, p)
	s.sweep()
	if atomic.LoadInt32(&p.calls) != 1 {
		t.Errorf("expected 1 purge, got %d", p.calls)
	}
}

func TestStartSchedulesSweep(t *testing.T) {
	p := &countingPurger{}
	s := New(time.Minute, p)
	if err := s.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	if jobs := s.scheduler.Jobs(); len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
}
