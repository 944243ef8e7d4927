package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrSchedulerStopped is returned when scheduling on a stopped scheduler.
var ErrSchedulerStopped = errors.New("scheduler is stopped")

// Func is the body of a scheduled task. The context is cancelled when the
// task's key is cancelled or the scheduler stops.
type Func func(ctx context.Context)

// Scheduler runs delayed tasks grouped by key. Tasks under one key can be
// cancelled together; a cancelled task that has not started is guaranteed
// never to run. Key state lives until the key is cancelled, so owners must
// call Cancel when they are done with a key.
type Scheduler struct {
	clock  Clock
	logger *slog.Logger

	mu      sync.Mutex
	seq     uint64
	keys    map[string]*keyState
	stopped bool
	wg      sync.WaitGroup
}

type keyState struct {
	ctx    context.Context
	cancel context.CancelFunc
	timers map[uint64]Timer
}

// NewScheduler creates a scheduler on clock. A nil clock uses RealClock.
func NewScheduler(clock Clock, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		clock:  clock,
		logger: logger.With("component", "scheduler"),
		keys:   make(map[string]*keyState),
	}
}

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Schedule runs fn under key after delay.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn Func) error {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrSchedulerStopped
	}
	ks, ok := s.keys[key]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		ks = &keyState{ctx: ctx, cancel: cancel, timers: make(map[uint64]Timer)}
		s.keys[key] = ks
	}
	s.seq++
	id := s.seq
	// Registered before the timer exists so a zero delay cannot fire first.
	s.wg.Add(1)
	ks.timers[id] = nil
	s.mu.Unlock()

	timer := s.clock.AfterFunc(delay, func() { s.fire(key, ks, id, fn) })

	s.mu.Lock()
	_, pending := ks.timers[id]
	if pending {
		ks.timers[id] = timer
	}
	s.mu.Unlock()
	if !pending {
		timer.Stop()
	}
	return nil
}

func (s *Scheduler) fire(key string, ks *keyState, id uint64, fn Func) {
	s.mu.Lock()
	if _, pending := ks.timers[id]; !pending {
		// Cancelled; Cancel already released the wait group slot.
		s.mu.Unlock()
		return
	}
	delete(ks.timers, id)
	ctx := ks.ctx
	s.mu.Unlock()
	defer s.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				"key", key,
				"panic", fmt.Sprint(r))
		}
	}()
	fn(ctx)
}

// Cancel stops every pending task under key and cancels the context of any
// task under key that is already running. It returns the number of pending
// tasks that were dropped.
func (s *Scheduler) Cancel(key string) int {
	s.mu.Lock()
	ks, ok := s.keys[key]
	if !ok {
		s.mu.Unlock()
		return 0
	}
	delete(s.keys, key)
	timers := ks.timers
	ks.timers = map[uint64]Timer{}
	s.mu.Unlock()

	ks.cancel()
	for _, t := range timers {
		if t != nil {
			t.Stop()
		}
		s.wg.Done()
	}
	if len(timers) > 0 {
		s.logger.Debug("cancelled scheduled tasks", "key", key, "count", len(timers))
	}
	return len(timers)
}

// Pending returns the number of tasks under key that have not started.
func (s *Scheduler) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ks, ok := s.keys[key]; ok {
		return len(ks.timers)
	}
	return 0
}

// Stop cancels every key and waits for running tasks to return. Further
// Schedule calls fail with ErrSchedulerStopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	s.mu.Unlock()

	for _, k := range keys {
		s.Cancel(k)
	}
	s.wg.Wait()
}
