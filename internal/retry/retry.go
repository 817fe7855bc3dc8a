// Package retry implements the bounded exponential backoff applied to
// workflow version registration.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justworkflowit/workflow-deployer/internal/registry"
	"github.com/justworkflowit/workflow-deployer/pkg/logging"
)

const (
	// DefaultMaxAttempts is the total number of attempts made by default.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the delay before the second attempt.
	DefaultBaseDelay = time.Second
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Classifier decides whether an error is worth another attempt.
type Classifier func(err error) bool

// Policy retries an operation with exponential backoff.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is multiplied by 2^(attempt-1) between attempts.
	BaseDelay time.Duration

	// Retryable classifies errors. Defaults to registry.IsRetryable.
	Retryable Classifier

	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep Sleeper
}

// DefaultPolicy returns a Policy with the default tuning.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Validate checks the tuning values.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 {
		return fmt.Errorf("base delay must not be negative, got %s", p.BaseDelay)
	}
	return nil
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return p.BaseDelay * time.Duration(1<<uint(attempt-1))
}

// Do runs op until it succeeds, fails with a non-retryable error, or
// MaxAttempts attempts have been made. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	if err := p.Validate(); err != nil {
		return err
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = registry.IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			if attempt > 1 {
				logging.Info("Retry", "%s succeeded on attempt %d", name, attempt)
			}
			return nil
		}

		if !retryable(err) {
			logging.Debug("Retry", "%s failed with a non-retryable error on attempt %d", name, attempt)
			return err
		}
		if attempt == p.MaxAttempts {
			logging.Warn("Retry", "%s failed after %d attempts: %v", name, attempt, err)
			return err
		}

		delay := p.Delay(attempt)
		logging.Warn("Retry", "%s failed on attempt %d/%d, retrying in %s: %v", name, attempt, p.MaxAttempts, delay, err)
		if sleepErr := sleep(ctx, delay); sleepErr != nil {
			return errors.Join(err, sleepErr)
		}
	}
	return err
}

// SleepContext waits for d unless ctx is cancelled first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
