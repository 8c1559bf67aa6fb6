package azdevops

import (
	"context"
	"log/slog"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultRetryDelay  = time.Second
)

// Retrier runs an operation up to MaxAttempts times, waiting attempt*Delay
// between attempts. Every failure is retried; the status of the failure is
// not inspected.
type Retrier struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier returns a Retrier with three attempts and one second linear backoff.
func NewRetrier(logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		MaxAttempts: defaultMaxAttempts,
		Delay:       defaultRetryDelay,
		Logger:      logger,
	}
}

// retry calls op until it succeeds or attempts run out. The last error is
// returned as-is.
func retry[T any](ctx context.Context, r *Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sleep := r.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		logger.Warn("request attempt failed",
			"attempt", attempt,
			"max_attempts", attempts,
			"error", err.Error(),
		)

		if attempt >= attempts {
			return result, err
		}

		if serr := sleep(ctx, time.Duration(attempt)*r.Delay); serr != nil {
			return result, serr
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
