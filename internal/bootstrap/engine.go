package bootstrap

import (
	"fmt"
	"log"

	"content-optimizer-be/internal/config"
	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/events"
	"content-optimizer-be/pkg/llm"
	"content-optimizer-be/pkg/llm/factory"
	"content-optimizer-be/pkg/seo/corrector"
	"content-optimizer-be/pkg/seo/issue"
	"content-optimizer-be/pkg/seo/optimizer"
	"content-optimizer-be/pkg/seo/prompt"
	"content-optimizer-be/pkg/seo/recovery"
	"content-optimizer-be/pkg/seo/validation"

	"go.opentelemetry.io/otel"
)

// Engine is the optimization core without any transport.
type Engine struct {
	Pipeline  *validation.Pipeline
	Optimizer *optimizer.Optimizer
}

// NewEngine builds providers, pipeline and optimizer. cacheOpts carries
// the optional Redis tier; publisher may be nil.
func NewEngine(cfg *config.Config, cacheOpts validation.CacheOptions, publisher events.Publisher, sysLogger logger.ILogger) (*Engine, error) {
	// Correction providers, in priority order
	providers, err := factory.NewProviders(cfg.Ai.Providers)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM providers: %w", err)
	}
	capabilities := make([]corrector.Capability, 0, len(providers))
	for _, p := range providers {
		capabilities = append(capabilities, corrector.NewLLMCapability(p, cfg.Ai.RateLimit, cfg.Ai.RateBurst, llm.WithTemperature(cfg.Ai.Temperature)))
		log.Printf("[INFO] Using LLM Provider: %s", p.Name())
	}

	retryOpts := recovery.DefaultOptions()
	retryOpts.MaxAttempts = cfg.Optimizer.MaxRetryAttempts
	retryOpts.InitialInterval = cfg.Ai.RetryInterval
	retryHandler := recovery.NewHandler(retryOpts, sysLogger)

	var corr *corrector.Corrector
	if len(capabilities) > 0 {
		corr = corrector.NewCorrector(capabilities, retryHandler, sysLogger, cfg.Ai.HistoryLimit)
	}

	pipeline := validation.NewPipeline(
		issue.NewDetector(sysLogger),
		validation.NewCache(cacheOpts, sysLogger),
		prompt.NewGenerator(prompt.NewOverrideRegistry()),
		corr,
		sysLogger,
	)

	opt, err := optimizer.New(optimizer.Deps{
		Pipeline:  pipeline,
		Publisher: publisher,
		Logger:    sysLogger,
		Tracer:    otel.Tracer("content-optimizer-be/optimizer"),
	}, cfg.Optimizer)
	if err != nil {
		return nil, err
	}
	return &Engine{Pipeline: pipeline, Optimizer: opt}, nil
}

// CacheOptions maps the cache settings onto validation cache options
// without a Redis tier.
func CacheOptions(cfg *config.Config) validation.CacheOptions {
	opts := validation.DefaultCacheOptions()
	opts.TTL = cfg.Cache.TTL
	opts.MaxEntries = cfg.Cache.MaxEntries
	opts.KeyPrefix = cfg.Cache.KeyPrefix
	return opts
}
