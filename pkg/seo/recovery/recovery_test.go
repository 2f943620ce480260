package recovery_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/llm"
	"content-optimizer-be/pkg/seo/recovery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastHandler(attempts int) *recovery.Handler {
	return recovery.NewHandler(recovery.Options{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}, logger.NewNop())
}

func TestClassify(t *testing.T) {
	h := fastHandler(3)
	tests := []struct {
		name     string
		err      error
		class    recovery.Class
		typ      recovery.ErrorType
		strategy recovery.Strategy
	}{
		{"rate limit message", errors.New("Rate limit reached"), recovery.ClassRecoverable, recovery.ErrorRateLimit, recovery.StrategyExponentialBackoff},
		{"rate limit status", &llm.StatusError{Provider: "openai", StatusCode: 429}, recovery.ClassRecoverable, recovery.ErrorRateLimit, recovery.StrategyExponentialBackoff},
		{"unauthorized status", &llm.StatusError{Provider: "openai", StatusCode: 401}, recovery.ClassCritical, recovery.ErrorAIProvider, recovery.StrategyProviderFailover},
		{"server error status", &llm.StatusError{Provider: "ollama", StatusCode: 503}, recovery.ClassRecoverable, recovery.ErrorAIProvider, recovery.StrategyProviderFailover},
		{"invalid key message", errors.New("invalid API key supplied"), recovery.ClassCritical, recovery.ErrorAIProvider, recovery.StrategyProviderFailover},
		{"validation timeout", errors.New("validation timed out after 5s"), recovery.ClassRecoverable, recovery.ErrorValidationTimeout, recovery.StrategySimplifiedValidation},
		{"network", errors.New("dial tcp: connection refused"), recovery.ClassRecoverable, recovery.ErrorNetwork, recovery.StrategyRetryWithBackoff},
		{"partial", errors.New("partial response"), recovery.ClassDegraded, recovery.ErrorUnknown, recovery.StrategyRetryWithBackoff},
		{"informational", errors.New("deprecated parameter"), recovery.ClassInformational, recovery.ErrorUnknown, recovery.StrategyRetryWithBackoff},
		{"cancelled", fmt.Errorf("call: %w", context.Canceled), recovery.ClassCritical, recovery.ErrorCancelled, recovery.StrategyNone},
		{"deadline", context.DeadlineExceeded, recovery.ClassRecoverable, recovery.ErrorNetwork, recovery.StrategyRetryWithBackoff},
		{"unknown", errors.New("something odd"), recovery.ClassRecoverable, recovery.ErrorUnknown, recovery.StrategyRetryWithBackoff},
		{"failover overrides critical", recovery.Failover(errors.New("fatal exception")), recovery.ClassRecoverable, recovery.ErrorAIProvider, recovery.StrategyProviderFailover},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := h.Classify(tt.err)
			assert.Equal(t, tt.class, c.Class)
			assert.Equal(t, tt.typ, c.Type)
			assert.Equal(t, tt.strategy, c.Strategy)
			assert.Equal(t, tt.err.Error(), c.Message)
		})
	}
}

func TestExecute(t *testing.T) {
	t.Run("succeeds after retries", func(t *testing.T) {
		v, attempts, err := recovery.Execute(context.Background(), fastHandler(3), func(ctx context.Context, attempt int) (string, error) {
			if attempt < 3 {
				return "", errors.New("connection reset by peer")
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 3, attempts)
	})

	t.Run("stops at attempt cap", func(t *testing.T) {
		calls := 0
		_, attempts, err := recovery.Execute(context.Background(), fastHandler(3), func(ctx context.Context, attempt int) (int, error) {
			calls++
			return 0, errors.New("something odd")
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, 3, attempts)

		var f *recovery.Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, 3, f.Attempts)
		assert.Equal(t, recovery.ErrorUnknown, f.Classification.Type)
	})

	t.Run("critical failure is not retried", func(t *testing.T) {
		calls := 0
		sentinel := &llm.StatusError{Provider: "openai", StatusCode: 403}
		_, attempts, err := recovery.Execute(context.Background(), fastHandler(5), func(ctx context.Context, attempt int) (int, error) {
			calls++
			return 0, sentinel
		})
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, attempts)
		assert.ErrorIs(t, err, sentinel)

		var f *recovery.Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, recovery.ClassCritical, f.Classification.Class)
	})

	t.Run("cancellation is not retried", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, _, err := recovery.Execute(ctx, fastHandler(5), func(ctx context.Context, attempt int) (int, error) {
			calls++
			cancel()
			return 0, ctx.Err()
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("with max attempts copy", func(t *testing.T) {
		h := fastHandler(5)
		one := h.WithMaxAttempts(1)
		assert.Equal(t, 1, one.MaxAttempts())
		assert.Equal(t, 5, h.MaxAttempts())

		n, err := one.ExecuteWithRecovery(context.Background(), func(ctx context.Context, attempt int) error {
			return errors.New("network down")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestNewHandlerNormalizesOptions(t *testing.T) {
	h := recovery.NewHandler(recovery.Options{MaxAttempts: 0}, logger.NewNop())
	assert.Equal(t, 1, h.MaxAttempts())
}

func TestApplyGracefulDegradation(t *testing.T) {
	tests := []struct {
		name     string
		results  []int
		failures []error
		rate     float64
		degraded bool
		failed   bool
	}{
		{"empty", nil, nil, 100, false, false},
		{"all succeeded", []int{1, 2}, nil, 100, false, false},
		{"partial", []int{1, 2}, []error{errors.New("x")}, 66.67, true, false},
		{"all failed", nil, []error{errors.New("x")}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := recovery.ApplyGracefulDegradation(tt.results, tt.failures)
			assert.Equal(t, tt.rate, d.SuccessRate)
			assert.Equal(t, tt.degraded, d.Degraded)
			assert.Equal(t, tt.failed, d.Failed)
			assert.Equal(t, tt.results, d.Results)
		})
	}
}

func TestFallbackChains(t *testing.T) {
	h := fastHandler(3)

	c := h.FallbackChain("corrector")
	require.Len(t, c.Levels, 4)
	assert.True(t, c.Graceful)
	assert.Equal(t, recovery.LevelPrimary, c.At(1).Level)
	assert.Equal(t, recovery.LevelFallback2, c.At(3).Level)
	assert.Equal(t, recovery.LevelPrimary, c.At(5).Level)

	assert.Equal(t, "primary", h.FallbackChain("validation").At(1).Action)

	unknown := h.FallbackChain("renderer")
	assert.True(t, unknown.Graceful)
	assert.Equal(t, "primary", unknown.At(1).Action)

	h.SetFallbackChain(recovery.NewChain("renderer", false, "a", "b"))
	assert.Equal(t, "b", h.FallbackChain("renderer").At(2).Action)
}

func TestChainWalk(t *testing.T) {
	c := recovery.NewChain("corrector", true, "a", "b", "c", "skip")
	none := func(int) bool { return false }

	tests := []struct {
		name     string
		attempt  int
		excluded func(int) bool
		index    int
		action   string
	}{
		{"first attempt", 1, none, 0, "a"},
		{"third attempt", 3, none, 2, "c"},
		{"rotation skips terminal", 4, none, 0, "a"},
		{"excluded level skipped", 1, func(i int) bool { return i == 0 }, 1, "b"},
		{"rotation over open levels", 2, func(i int) bool { return i == 1 }, 2, "c"},
		{"terminal once exhausted", 1, func(i int) bool { return i < 3 }, 3, "skip"},
		{"nil excluded", 2, nil, 1, "b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i, lvl := c.Walk(tt.attempt, tt.excluded)
			assert.Equal(t, tt.index, i)
			assert.Equal(t, tt.action, lvl.Action)
			assert.Equal(t, tt.action == "skip", c.Terminal(i))
		})
	}

	i, _ := recovery.Chain{}.Walk(1, nil)
	assert.Equal(t, -1, i)
}
