// Package breaker provides a per-dependency circuit breaker. Every external
// call in the pipeline goes through a named breaker, so no upstream outage
// can hang a run or cascade across sports.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State is the breaker's current mode.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// ErrOpen is matched by errors.Is against the fail-fast error returned
// while the breaker is cooling down.
var ErrOpen = errors.New("breaker open")

// ErrTimeout is returned when the wrapped call loses the race against the
// per-call timeout. A timeout counts as a failure.
var ErrTimeout = errors.New("call timed out")

// OpenError is the fail-fast error, carrying how long until the next trial
// call will be admitted.
type OpenError struct {
	Name    string
	RetryIn time.Duration
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("breaker %s open, retry in %ds", e.Name, int(e.RetryIn.Seconds())+1)
}

func (e *OpenError) Is(target error) bool { return target == ErrOpen }

// Settings tunes one breaker instance.
type Settings struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // half-open successes before closing
	Timeout          time.Duration // per-call deadline
	ResetTimeout     time.Duration // open-state cool-down
}

// DefaultSettings are applied where config gives no per-dependency override.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		ResetTimeout:     30 * time.Second,
	}
}

// Snapshot is a point-in-time view of breaker state for diagnostics.
type Snapshot struct {
	Name            string    `json:"name"`
	State           State     `json:"state"`
	FailureCount    int       `json:"failure_count"`
	SuccessCount    int       `json:"success_count"`
	LastFailureTime time.Time `json:"last_failure_time"`
	LastSuccessTime time.Time `json:"last_success_time"`
}

// Breaker guards calls to one named dependency. One instance lives for the
// whole process; state is never persisted.
type Breaker struct {
	name     string
	settings Settings

	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	lastSuccessTime time.Time
}

// New creates a closed Breaker with the given settings. Zero-valued
// settings fields fall back to DefaultSettings.
func New(name string, settings Settings) *Breaker {
	def := DefaultSettings()
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = def.FailureThreshold
	}
	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = def.SuccessThreshold
	}
	if settings.Timeout <= 0 {
		settings.Timeout = def.Timeout
	}
	if settings.ResetTimeout <= 0 {
		settings.ResetTimeout = def.ResetTimeout
	}
	return &Breaker{name: name, settings: settings, state: StateClosed}
}

// Name returns the dependency name this breaker guards.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// GetState returns a diagnostic snapshot.
func (b *Breaker) GetState() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Snapshot{
		Name:            b.name,
		State:           b.state,
		FailureCount:    b.failureCount,
		SuccessCount:    b.successCount,
		LastFailureTime: b.lastFailureTime,
		LastSuccessTime: b.lastSuccessTime,
	}
}

// Reset forces the breaker closed and clears all counters. Exposed for
// manual recovery.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
}

// beforeCall admits or rejects a call. While open it fails fast until
// ResetTimeout has elapsed since the last failure, then transitions to
// half-open and admits a trial call.
func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return nil
	}
	elapsed := time.Since(b.lastFailureTime)
	if elapsed < b.settings.ResetTimeout {
		return &OpenError{Name: b.name, RetryIn: b.settings.ResetTimeout - elapsed}
	}
	b.state = StateHalfOpen
	b.successCount = 0
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.lastSuccessTime = time.Now()
	if b.state == StateHalfOpen {
		b.successCount++
		if b.successCount >= b.settings.SuccessThreshold {
			b.state = StateClosed
			b.successCount = 0
		}
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.successCount = 0
	b.lastFailureTime = time.Now()

	switch b.state {
	case StateHalfOpen:
		b.state = StateOpen
	case StateClosed:
		if b.failureCount >= b.settings.FailureThreshold {
			b.state = StateOpen
		}
	}
}

// Execute runs fn through the breaker with no return value.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := Do(ctx, b, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

type result[T any] struct {
	value T
	err   error
}

// Do runs fn through the breaker, racing it against the per-call timeout.
// Whichever settles first determines the outcome; a timeout counts as a
// failure. The losing call keeps running in its goroutine and writes into a
// buffered channel, so it is discarded without leaking.
func Do[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := b.beforeCall(); err != nil {
		return zero, err
	}

	callCtx, cancel := context.WithTimeout(ctx, b.settings.Timeout)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		v, err := fn(callCtx)
		ch <- result[T]{value: v, err: err}
	}()

	select {
	case <-callCtx.Done():
		b.onFailure()
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("breaker %s: %w after %s", b.name, ErrTimeout, b.settings.Timeout)
		}
		return zero, callCtx.Err()
	case res := <-ch:
		if res.err != nil {
			b.onFailure()
			return zero, res.err
		}
		b.onSuccess()
		return res.value, nil
	}
}
