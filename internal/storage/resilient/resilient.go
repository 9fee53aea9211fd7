// Package resilient decorates a storage backend with retries and a circuit
// breaker, for network-backed stores that can fail transiently.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tippingchain/txhistory/internal/storage"
)

// ErrCircuitOpen is returned while the breaker is rejecting calls. It wraps
// storage.ErrStorage so callers see an ordinary storage failure.
var ErrCircuitOpen = fmt.Errorf("%w: circuit open", storage.ErrStorage)

// Config tunes the wrapper. Zero values fall back to defaults.
type Config struct {
	MaxAttempts      int           // attempts per operation (default: 3)
	RetryBackoff     time.Duration // base backoff, doubled per attempt (default: 50ms)
	FailureThreshold int           // consecutive failures before opening (default: 5)
	SuccessThreshold int           // half-open successes before closing (default: 2)
	OpenTimeout      time.Duration // open duration before probing (default: 30s)
}

func (c *Config) applyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 50 * time.Millisecond
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = 2
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
}

type state int

const (
	stateClosed state = iota
	stateOpen
	stateHalfOpen
)

func (s state) String() string {
	switch s {
	case stateClosed:
		return "closed"
	case stateOpen:
		return "open"
	case stateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Backend wraps an inner storage backend. Each operation is retried with
// exponential backoff while the breaker is closed; consecutive exhausted
// operations open the breaker, which then rejects calls until OpenTimeout
// passes and a probe succeeds.
type Backend struct {
	inner  storage.Backend
	cfg    Config
	logger *slog.Logger

	mu            sync.Mutex
	state         state
	failures      int
	successes     int
	lastFailureAt time.Time
	nowFn         func() time.Time
}

// Wrap decorates inner with retry and circuit-breaking behavior.
func Wrap(inner storage.Backend, logger *slog.Logger, cfg Config) *Backend {
	cfg.applyDefaults()
	return &Backend{
		inner:  inner,
		cfg:    cfg,
		logger: logger.With("component", "storage_resilient"),
		nowFn:  time.Now,
	}
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		ok    bool
	)
	err := b.do(ctx, func() error {
		var err error
		value, ok, err = b.inner.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, ok, nil
}

func (b *Backend) Set(ctx context.Context, key string, value []byte) error {
	return b.do(ctx, func() error {
		return b.inner.Set(ctx, key, value)
	})
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	return b.do(ctx, func() error {
		return b.inner.Delete(ctx, key)
	})
}

func (b *Backend) Close() error {
	return b.inner.Close()
}

// do runs op through the breaker, retrying retryable failures with
// exponential backoff until attempts are exhausted or ctx ends.
func (b *Backend) do(ctx context.Context, op func() error) error {
	if err := b.allow(); err != nil {
		return err
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil {
			b.recordSuccess()
			return nil
		}
		if !retryable(err) || attempt >= b.cfg.MaxAttempts {
			break
		}

		backoff := b.cfg.RetryBackoff << (attempt - 1)
		b.logger.Debug("retrying storage operation", "attempt", attempt, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	if retryable(err) {
		b.recordFailure()
	}
	return err
}

// retryable reports whether err is worth another attempt. Cancellation is
// the caller giving up, not a backend fault.
func retryable(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (b *Backend) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateOpen {
		if b.nowFn().Sub(b.lastFailureAt) <= b.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		b.setState(stateHalfOpen)
	}
	return nil
}

func (b *Backend) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	if b.state == stateHalfOpen {
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.setState(stateClosed)
		}
	}
}

func (b *Backend) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.successes = 0
	b.lastFailureAt = b.nowFn()
	if b.state == stateHalfOpen || (b.state == stateClosed && b.failures >= b.cfg.FailureThreshold) {
		b.setState(stateOpen)
	}
}

func (b *Backend) setState(to state) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	b.successes = 0
	if to == stateClosed {
		b.failures = 0
	}
	b.logger.Warn("storage circuit state changed", "from", from.String(), "to", to.String())
}
