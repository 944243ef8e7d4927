package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/arcana/internal/task"
)

// RevealFunc is called after each reveal tick with the new count. It runs
// without the revealer's lock held.
type RevealFunc func(revealed, total int)

// Revealer staggers the reveal of an already finalized selection. It has no
// effect on the interpretation; it only reports how many cards a consumer
// should show.
type Revealer struct {
	scheduler *task.Scheduler
	key       string
	interval  time.Duration
	onReveal  RevealFunc
	logger    *slog.Logger

	mu       sync.Mutex
	gen      uint64
	total    int
	revealed int
}

// NewRevealer creates a revealer that schedules its ticks under key.
// onReveal may be nil.
func NewRevealer(scheduler *task.Scheduler, key string, interval time.Duration, onReveal RevealFunc, logger *slog.Logger) *Revealer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Revealer{
		scheduler: scheduler,
		key:       key,
		interval:  interval,
		onReveal:  onReveal,
		logger:    logger,
	}
}

// Start cancels any running sequence and begins revealing total cards, one
// per interval.
func (r *Revealer) Start(total int) {
	r.scheduler.Cancel(r.key)

	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.total = total
	r.revealed = 0
	r.mu.Unlock()

	if total <= 0 {
		return
	}
	r.scheduleNext(gen)
}

func (r *Revealer) scheduleNext(gen uint64) {
	err := r.scheduler.Schedule(r.key, r.interval, func(context.Context) { r.tick(gen) })
	if err != nil {
		r.logger.Warn("could not schedule reveal tick", "error", err)
	}
}

func (r *Revealer) tick(gen uint64) {
	r.mu.Lock()
	if gen != r.gen || r.revealed >= r.total {
		r.mu.Unlock()
		return
	}
	r.revealed++
	revealed, total := r.revealed, r.total
	r.mu.Unlock()

	if r.onReveal != nil {
		r.onReveal(revealed, total)
	}
	if revealed < total {
		r.scheduleNext(gen)
	}
}

// RevealedCount returns how many cards have been revealed so far.
func (r *Revealer) RevealedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revealed
}

// AllRevealed reports whether a started sequence has revealed every card.
func (r *Revealer) AllRevealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total > 0 && r.revealed == r.total
}

// Cancel stops the sequence and resets the count. No tick scheduled before
// Cancel will run.
func (r *Revealer) Cancel() {
	r.mu.Lock()
	r.gen++
	r.total = 0
	r.revealed = 0
	r.mu.Unlock()
	r.scheduler.Cancel(r.key)
}
