// Package throttle bounds concurrent and per-interval calls to an external
// capability. Admission is FIFO: a queued task starts only when fewer than
// maxConcurrent tasks are active and at least minInterval has elapsed since
// the previous task started.
package throttle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter is an admission queue for outbound requests. All counter updates
// happen under one mutex so concurrent submits can never exceed the
// configured bounds.
type Limiter struct {
	mu        sync.Mutex
	queue     []chan struct{}
	active    int
	lastStart time.Time
	timerSet  bool

	maxConcurrent int
	minInterval   time.Duration
}

// NewLimiter creates a Limiter admitting at most maxConcurrent in-flight
// tasks with at least minInterval between consecutive task starts.
func NewLimiter(maxConcurrent int, minInterval time.Duration) (*Limiter, error) {
	if maxConcurrent <= 0 {
		return nil, fmt.Errorf("maxConcurrent must be positive, got %d", maxConcurrent)
	}
	if minInterval < 0 {
		return nil, fmt.Errorf("minInterval must not be negative, got %s", minInterval)
	}
	return &Limiter{
		maxConcurrent: maxConcurrent,
		minInterval:   minInterval,
	}, nil
}

// Do runs task once admitted, blocking until admission or context
// cancellation. Completion order is not the admission order; callers
// correlate results through their own identifiers.
func (l *Limiter) Do(ctx context.Context, task func() error) error {
	if err := l.acquire(ctx); err != nil {
		return err
	}
	defer l.release()
	return task()
}

// Active reports the number of tasks currently in flight.
func (l *Limiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

func (l *Limiter) acquire(ctx context.Context) error {
	ticket := make(chan struct{})

	l.mu.Lock()
	l.queue = append(l.queue, ticket)
	l.admitLocked()
	l.mu.Unlock()

	select {
	case <-ticket:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		// The ticket may have been admitted between ctx firing and taking
		// the lock; if so the slot must be returned.
		admitted := true
		for i, q := range l.queue {
			if q == ticket {
				l.queue = append(l.queue[:i], l.queue[i+1:]...)
				admitted = false
				break
			}
		}
		if admitted {
			l.active--
			l.admitLocked()
		}
		l.mu.Unlock()
		return ctx.Err()
	}
}

func (l *Limiter) release() {
	l.mu.Lock()
	l.active--
	l.admitLocked()
	l.mu.Unlock()
}

// admitLocked starts as many queued tasks as the bounds allow. When only the
// interval gate blocks admission, a timer re-runs admission once it opens.
// Callers must hold l.mu.
func (l *Limiter) admitLocked() {
	for len(l.queue) > 0 && l.active < l.maxConcurrent {
		now := time.Now()
		if wait := l.minInterval - now.Sub(l.lastStart); wait > 0 && !l.lastStart.IsZero() {
			if !l.timerSet {
				l.timerSet = true
				time.AfterFunc(wait, func() {
					l.mu.Lock()
					l.timerSet = false
					l.admitLocked()
					l.mu.Unlock()
				})
			}
			return
		}

		ticket := l.queue[0]
		l.queue = l.queue[1:]
		l.active++
		l.lastStart = now
		close(ticket)
	}
}
