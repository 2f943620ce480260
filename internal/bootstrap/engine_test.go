package bootstrap

import (
	"context"
	"testing"
	"time"

	"content-optimizer-be/internal/config"
	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/llm/factory"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/optimizer"
	"content-optimizer-be/pkg/seo/seotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Ai: config.AIConfig{RateLimit: 1, RateBurst: 1, HistoryLimit: 10, RetryInterval: time.Millisecond},
		Cache: config.CacheConfig{
			TTL:        time.Minute,
			MaxEntries: 10,
			KeyPrefix:  "test:",
		},
		Optimizer: seo.DefaultConfig(),
	}
}

func TestNewEngine(t *testing.T) {
	t.Run("no providers runs validation only", func(t *testing.T) {
		cfg := testConfig()
		cfg.Optimizer.TargetComplianceScore = 95
		engine, err := NewEngine(cfg, CacheOptions(cfg), nil, logger.NewNop())
		require.NoError(t, err)
		assert.Nil(t, engine.Pipeline.Corrector())

		res, err := engine.Optimizer.Optimize(context.Background(), seotest.ShortMeta(), optimizer.Options{})
		require.NoError(t, err)
		assert.Equal(t, optimizer.ReasonNoActionableIssues, res.Summary.TerminationReason)
	})

	t.Run("providers become capabilities in order", func(t *testing.T) {
		cfg := testConfig()
		cfg.Ai.Providers = []factory.ProviderConfig{
			{Type: "ollama", Model: "llama3"},
			{Type: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"},
		}
		engine, err := NewEngine(cfg, CacheOptions(cfg), nil, logger.NewNop())
		require.NoError(t, err)
		require.NotNil(t, engine.Pipeline.Corrector())
		assert.Equal(t, []string{"ollama:llama3", "openai:gpt-4o-mini"}, engine.Pipeline.Corrector().Names())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := testConfig()
		cfg.Ai.Providers = []factory.ProviderConfig{{Type: "carrier-pigeon"}}
		_, err := NewEngine(cfg, CacheOptions(cfg), nil, logger.NewNop())
		assert.Error(t, err)
	})

	t.Run("invalid optimizer config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Optimizer.MaxIterations = 0
		_, err := NewEngine(cfg, CacheOptions(cfg), nil, logger.NewNop())
		assert.ErrorIs(t, err, seo.ErrInvalidConfig)
	})
}

func TestCacheOptions(t *testing.T) {
	cfg := testConfig()
	opts := CacheOptions(cfg)
	assert.Equal(t, time.Minute, opts.TTL)
	assert.Equal(t, 10, opts.MaxEntries)
	assert.Equal(t, "test:", opts.KeyPrefix)
	assert.Nil(t, opts.Redis)
}
