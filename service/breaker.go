package service

import (
	"sync"
	"time"

	"github.com/ZKyNetOfficial/zkynet-client/logger"
)

const (
	breakerThreshold = 5
	breakerRecovery  = 60 * time.Second
)

// CircuitBreaker tracks consecutive failed connection sequences across all
// servers. After breakerThreshold failures it opens and rejects requests
// until breakerRecovery has elapsed, then lets a single trial through
// (half-open). One instance is shared per app lifetime.
type CircuitBreaker struct {
	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	open        bool
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{}
}

// Allow reports whether a connection attempt may proceed. When the recovery
// window has elapsed a single trial is let through; success closes the
// breaker, failure restarts the window.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.open {
		return true
	}
	if time.Since(b.lastFailure) < breakerRecovery {
		return false
	}
	// Half-open: restart the window so concurrent requests stay rejected
	// until the single trial reports back.
	b.lastFailure = time.Now()
	logger.Info("circuit breaker half-open, allowing one trial")
	return true
}

func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.open = false
}

func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.lastFailure = time.Now()
	if b.failures >= breakerThreshold {
		if !b.open {
			logger.Warningf("circuit breaker opened after %d consecutive failures", b.failures)
		}
		b.open = true
	}
}

func (b *CircuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *CircuitBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
