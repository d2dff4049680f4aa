package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRendererDown = errors.New("renderer error: status 503")

func failing(ctx context.Context) error { return errRendererDown }

func succeeding(ctx context.Context) error { return nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 3, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, failing), errRendererDown)
	}
	assert.Equal(t, StateOpen, cb.State())

	// Calls are rejected without reaching the function.
	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.NoError(t, cb.Execute(ctx, succeeding))
	require.Error(t, cb.Execute(ctx, failing))

	// The streak was broken, so one more failure is still tolerated.
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Millisecond})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)

	// Two successful probes close the circuit.
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ctx, succeeding))
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerFailedProbeReopens(t *testing.T) {
	cb := New(Config{Name: "test", FailureThreshold: 1, Timeout: time.Millisecond})
	ctx := context.Background()

	require.Error(t, cb.Execute(ctx, failing))
	time.Sleep(5 * time.Millisecond)

	require.Error(t, cb.Execute(ctx, failing))
	assert.Equal(t, StateOpen, cb.State())
}

func TestBreakerNotifiesStateChanges(t *testing.T) {
	type transition struct{ from, to State }
	var transitions []transition

	cb := New(Config{
		Name:             "pdf-renderer",
		FailureThreshold: 1,
		Timeout:          time.Minute,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "pdf-renderer", name)
			transitions = append(transitions, transition{from, to})
		},
	})

	require.Error(t, cb.Execute(context.Background(), failing))
	require.Equal(t, []transition{{StateClosed, StateOpen}}, transitions)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
