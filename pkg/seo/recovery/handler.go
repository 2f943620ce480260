package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"content-optimizer-be/internal/pkg/logger"

	"github.com/cenkalti/backoff/v5"
)

const logModule = "RECOVERY"

// Options bounds retries. Backoff grows monotonically from
// InitialInterval by Multiplier up to MaxInterval.
type Options struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultOptions() Options {
	return Options{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
	}
}

type Handler struct {
	opts       Options
	rules      []Rule
	strategies map[ErrorType]Strategy
	chains     map[string]Chain
	logger     logger.ILogger
}

func NewHandler(opts Options, log logger.ILogger) *Handler {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Multiplier < 1 {
		opts.Multiplier = 1
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = opts.InitialInterval
	}
	return &Handler{
		opts:       opts,
		rules:      DefaultRules(),
		strategies: DefaultStrategies(),
		chains:     DefaultChains(),
		logger:     log,
	}
}

// WithMaxAttempts returns a copy of h with a different attempt cap.
func (h *Handler) WithMaxAttempts(n int) *Handler {
	c := *h
	c.opts.MaxAttempts = max(1, n)
	return &c
}

func (h *Handler) MaxAttempts() int {
	return h.opts.MaxAttempts
}

// Failure is the last error of an operation that never succeeded.
type Failure struct {
	Attempts       int
	Classification Classification
	Err            error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("failed after %d attempt(s) [%s/%s]: %v", f.Attempts, f.Classification.Class, f.Classification.Type, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func (h *Handler) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = h.opts.InitialInterval
	b.MaxInterval = h.opts.MaxInterval
	b.Multiplier = h.opts.Multiplier
	b.RandomizationFactor = 0
	return b
}

// Execute runs op until it succeeds, a critical failure occurs or the
// attempt cap is reached. attempt starts at 1. The returned int is the
// number of attempts made; on failure the error is a *Failure.
func Execute[T any](ctx context.Context, h *Handler, op func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	attempts := 0
	var last error
	var lastClass Classification

	res, err := backoff.Retry(ctx, func() (T, error) {
		attempts++
		v, err := op(ctx, attempts)
		if err == nil {
			return v, nil
		}
		last = err
		lastClass = h.Classify(err)
		if !lastClass.Retryable() {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(h.newBackOff()),
		backoff.WithMaxTries(uint(h.opts.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			h.logger.Warn(logModule, "Retrying operation", map[string]interface{}{
				"attempt":  attempts,
				"wait_ms":  wait.Milliseconds(),
				"error":    err.Error(),
				"strategy": string(h.Classify(err).Strategy),
			})
		}),
	)
	if err == nil {
		return res, attempts, nil
	}

	if last == nil {
		last = err
		lastClass = h.Classify(err)
	} else if !errors.Is(err, last) {
		// Context ended between attempts.
		last = errors.Join(last, err)
	}
	var zero T
	return zero, attempts, &Failure{Attempts: attempts, Classification: lastClass, Err: last}
}

// ExecuteWithRecovery runs an operation that produces no value.
func (h *Handler) ExecuteWithRecovery(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	_, n, err := Execute(ctx, h, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, op(ctx, attempt)
	})
	return n, err
}
