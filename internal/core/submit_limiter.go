package core

// submit_limiter.go bounds how many registrations write photos at once.
//
// Slots are a buffered channel used as a semaphore. A submission that cannot
// get a slot within maxWait fails with ErrTooManySubmissions instead of
// queueing indefinitely. WaitForDrain lets shutdown wait for in-flight
// registrations so no photo is left without its record.

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrTooManySubmissions is returned when every slot stayed busy for the whole wait.
var ErrTooManySubmissions = errors.New("too many registrations in progress, please try again later")

// Defaults used when NewSubmitLimiter gets non-positive values.
const (
	DefaultMaxConcurrentSubmissions = 5
	DefaultSubmitWait               = 30 * time.Second
)

// SubmitLimiter is a counting semaphore for registrations.
type SubmitLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	active  atomic.Int32
}

// NewSubmitLimiter allows at most maxConcurrent registrations in flight.
func NewSubmitLimiter(maxConcurrent int, maxWait time.Duration) *SubmitLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubmissions
	}
	if maxWait <= 0 {
		maxWait = DefaultSubmitWait
	}
	return &SubmitLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting up to maxWait. The caller must Release a
// successfully acquired slot exactly once.
func (l *SubmitLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-timer.C:
		return ErrTooManySubmissions
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *SubmitLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.active.Add(1)
		return true
	default:
		return false
	}
}

// Release returns a slot.
func (l *SubmitLimiter) Release() {
	l.active.Add(-1)
	<-l.slots
}

// Active returns the number of registrations holding a slot.
func (l *SubmitLimiter) Active() int {
	return int(l.active.Load())
}

// Capacity returns the maximum number of concurrent registrations.
func (l *SubmitLimiter) Capacity() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no registration holds a slot or ctx ends.
func (l *SubmitLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.Active() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
