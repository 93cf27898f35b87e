package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerStaysClosedBelowThreshold(t *testing.T) {
	b := NewCircuitBreaker()
	for i := 0; i < breakerThreshold-1; i++ {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	b := NewCircuitBreaker()
	for i := 0; i < breakerThreshold; i++ {
		b.RecordFailure()
	}
	assert.True(t, b.IsOpen())
	assert.False(t, b.Allow())
}

func TestCircuitBreakerResetsOnSuccess(t *testing.T) {
	b := NewCircuitBreaker()
	for i := 0; i < breakerThreshold; i++ {
		b.RecordFailure()
	}
	b.RecordSuccess()
	assert.False(t, b.IsOpen())
	assert.Equal(t, 0, b.Failures())
	assert.True(t, b.Allow())
}

func TestCircuitBreakerHalfOpenAllowsSingleTrial(t *testing.T) {
	b := NewCircuitBreaker()
	for i := 0; i < breakerThreshold; i++ {
		b.RecordFailure()
	}
	// Pretend the recovery window has elapsed.
	b.mu.Lock()
	b.lastFailure = time.Now().Add(-breakerRecovery - time.Second)
	b.mu.Unlock()

	assert.True(t, b.Allow(), "first request after the window is the trial")
	assert.False(t, b.Allow(), "concurrent requests stay rejected during the trial")

	b.RecordSuccess()
	assert.True(t, b.Allow())
}

func TestCircuitBreakerReopensAfterFailedTrial(t *testing.T) {
	b := NewCircuitBreaker()
	for i := 0; i < breakerThreshold; i++ {
		b.RecordFailure()
	}
	b.mu.Lock()
	b.lastFailure = time.Now().Add(-breakerRecovery - time.Second)
	b.mu.Unlock()

	assert.True(t, b.Allow())
	b.RecordFailure()
	assert.True(t, b.IsOpen())
	assert.False(t, b.Allow())
}
