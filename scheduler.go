package main

import (
	"sync"
	"time"
)

const (
	SchedulerInterval = 8 * time.Millisecond
	MaxFrameTime      = 100 * time.Millisecond
)

// Scheduler is the single process-wide heartbeat driving every room
type Scheduler struct {
	registry *RoomRegistry
	interval time.Duration
	last     time.Time
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// NewScheduler creates a scheduler over the registry's rooms
func NewScheduler(registry *RoomRegistry, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = SchedulerInterval
	}
	return &Scheduler{
		registry: registry,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run blocks until Stop is called
func (s *Scheduler) Run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.last = time.Now()
	for {
		select {
		case now := <-ticker.C:
			s.wake(now)
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the loop and waits for the current wake to finish
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

// wake feeds the elapsed time to every room. Elapsed time is clamped so a
// stall cannot trigger a long catch-up burst.
func (s *Scheduler) wake(now time.Time) {
	elapsed := now.Sub(s.last)
	s.last = now
	if elapsed > MaxFrameTime {
		elapsed = MaxFrameTime
	}
	if elapsed < 0 {
		elapsed = 0
	}
	Metrics.IncWake()

	for _, r := range s.registry.Rooms() {
		s.pump(r, elapsed)
		s.registry.RemoveIfEmpty(r)
	}
}

// pump runs one room and contains any panic to that room
func (s *Scheduler) pump(r *Room, elapsed time.Duration) (steps int) {
	defer func() {
		if v := recover(); v != nil {
			Metrics.IncPanic()
			Log.Errorf("room %q: tick panic: %v", r.Name(), v)
		}
	}()
	return r.Pump(elapsed)
}
