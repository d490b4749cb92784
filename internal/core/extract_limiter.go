package core

// extract_limiter.go bounds how many archives are opened at once.
//
// Opening an archive buffers its model schema and decoded tables in memory,
// so the number of parallel extractions is capped with a semaphore. When
// every slot is taken a request waits up to maxWait before failing with
// ErrTooManyExtractions. WaitForDrain lets shutdown wait for in-flight work.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyExtractions is returned when no extraction slot frees up within
// the wait timeout. Clients should retry after a short delay.
var ErrTooManyExtractions = errors.New("too many concurrent extractions, please try again later")

// DefaultMaxConcurrentExtractions is the default limit for parallel extractions.
const DefaultMaxConcurrentExtractions = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ExtractLimiter controls concurrent extractions using a semaphore.
type ExtractLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewExtractLimiter creates a limiter that allows at most maxConcurrent
// simultaneous extractions. Requests that cannot acquire a slot within
// maxWait receive ErrTooManyExtractions.
func NewExtractLimiter(maxConcurrent int, maxWait time.Duration) *ExtractLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExtractions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ExtractLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for an extraction slot.
// The caller MUST call Release() when the extraction completes (use defer).
func (l *ExtractLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own wait timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyExtractions
	}
}

// TryAcquire attempts to acquire a slot without blocking.
func (l *ExtractLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *ExtractLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of extractions in progress.
func (l *ExtractLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent extractions.
func (l *ExtractLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *ExtractLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until all active extractions complete or ctx is done.
func (l *ExtractLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *ExtractLimiter) Status() LimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
