package resilient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tippingchain/txhistory/internal/storage"
)

// flakyBackend fails the first failN calls to each operation.
type flakyBackend struct {
	failN int
	calls int
	slots map[string][]byte
}

func newFlaky(failN int) *flakyBackend {
	return &flakyBackend{failN: failN, slots: make(map[string][]byte)}
}

func (f *flakyBackend) fail() error {
	f.calls++
	if f.calls <= f.failN {
		return fmt.Errorf("%w: transient fault %d", storage.ErrStorage, f.calls)
	}
	return nil
}

func (f *flakyBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := f.fail(); err != nil {
		return nil, false, err
	}
	v, ok := f.slots[key]
	return v, ok, nil
}

func (f *flakyBackend) Set(_ context.Context, key string, value []byte) error {
	if err := f.fail(); err != nil {
		return err
	}
	f.slots[key] = value
	return nil
}

func (f *flakyBackend) Delete(_ context.Context, key string) error {
	if err := f.fail(); err != nil {
		return err
	}
	delete(f.slots, key)
	return nil
}

func (f *flakyBackend) Close() error { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig() Config {
	return Config{
		MaxAttempts:      3,
		RetryBackoff:     time.Millisecond,
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	inner := newFlaky(2)
	b := Wrap(inner, testLogger(), fastConfig())
	ctx := context.Background()

	require.NoError(t, b.Set(ctx, "slot", []byte("v")))

	got, ok, err := b.Get(ctx, "slot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestExhaustedRetriesReturnError(t *testing.T) {
	t.Parallel()

	inner := newFlaky(100)
	b := Wrap(inner, testLogger(), fastConfig())

	err := b.Set(context.Background(), "slot", []byte("v"))
	require.ErrorIs(t, err, storage.ErrStorage)
	assert.Equal(t, 3, inner.calls, "each operation gets MaxAttempts tries")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	inner := newFlaky(100)
	b := Wrap(inner, testLogger(), fastConfig())
	ctx := context.Background()

	// FailureThreshold exhausted operations open the circuit.
	require.Error(t, b.Set(ctx, "slot", []byte("v")))
	require.Error(t, b.Set(ctx, "slot", []byte("v")))

	callsBefore := inner.calls
	err := b.Set(ctx, "slot", []byte("v"))
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.ErrorIs(t, err, storage.ErrStorage)
	assert.Equal(t, callsBefore, inner.calls, "open circuit must not reach the backend")
}

func TestBreakerRecoversAfterOpenTimeout(t *testing.T) {
	t.Parallel()

	inner := newFlaky(6)
	b := Wrap(inner, testLogger(), fastConfig())
	ctx := context.Background()

	require.Error(t, b.Set(ctx, "slot", []byte("v")))
	require.Error(t, b.Set(ctx, "slot", []byte("v")))
	require.ErrorIs(t, b.Set(ctx, "slot", []byte("v")), ErrCircuitOpen)

	// Move past the open window; the next call probes and succeeds.
	now := time.Now()
	b.nowFn = func() time.Time { return now.Add(2 * time.Minute) }

	require.NoError(t, b.Set(ctx, "slot", []byte("v")))
	assert.Equal(t, []byte("v"), inner.slots["slot"])
}

func TestCancellationIsNotRetried(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &cancelledBackend{}
	b := Wrap(inner, testLogger(), fastConfig())

	err := b.Set(ctx, "slot", []byte("v"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, inner.calls, "cancellation must not be retried")
}

type cancelledBackend struct {
	calls int
}

func (c *cancelledBackend) Get(context.Context, string) ([]byte, bool, error) {
	c.calls++
	return nil, false, context.Canceled
}

func (c *cancelledBackend) Set(context.Context, string, []byte) error {
	c.calls++
	return context.Canceled
}

func (c *cancelledBackend) Delete(context.Context, string) error {
	c.calls++
	return context.Canceled
}

func (c *cancelledBackend) Close() error { return nil }
