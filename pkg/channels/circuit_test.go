package channels_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/channels"
)

func TestCircuitBreakerOpensAtThreshold(t *testing.T) {
	t.Parallel()

	cb := channels.NewCircuitBreaker(3, 2, time.Hour)
	assert.Equal(t, channels.CircuitClosed, cb.State())

	cb.RecordFailure()
	cb.RecordFailure()
	assert.Equal(t, channels.CircuitClosed, cb.State())
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.Equal(t, channels.CircuitOpen, cb.State())
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	t.Parallel()

	cb := channels.NewCircuitBreaker(3, 2, time.Hour)
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	cb.RecordFailure()

	// Counter was reset, so two more failures do not open the circuit.
	assert.Equal(t, channels.CircuitClosed, cb.State())
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	t.Parallel()

	cb := channels.NewCircuitBreaker(1, 2, 10*time.Millisecond)
	cb.RecordFailure()
	assert.False(t, cb.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow())
	assert.Equal(t, channels.CircuitHalfOpen, cb.State())

	cb.RecordSuccess()
	assert.Equal(t, channels.CircuitHalfOpen, cb.State())
	cb.RecordSuccess()
	assert.Equal(t, channels.CircuitClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	cb := channels.NewCircuitBreaker(1, 2, 10*time.Millisecond)
	cb.RecordFailure()

	time.Sleep(20 * time.Millisecond)
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.False(t, cb.Allow())
}

func TestCircuitBreakerReset(t *testing.T) {
	t.Parallel()

	cb := channels.NewCircuitBreaker(1, 1, time.Hour)
	cb.RecordFailure()
	assert.False(t, cb.Allow())

	cb.Reset()
	assert.Equal(t, channels.CircuitClosed, cb.State())
	assert.True(t, cb.Allow())
}
