package validation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/corrector"
	"content-optimizer-be/pkg/seo/issue"
	"content-optimizer-be/pkg/seo/prompt"

	"golang.org/x/sync/singleflight"
)

// Pipeline fronts the detector with the cache and, when auto correction
// is enabled, chains prompt generation and correction behind it.
type Pipeline struct {
	detector  *issue.Detector
	cache     *Cache
	generator *prompt.Generator
	corrector *corrector.Corrector
	logger    logger.ILogger
	flight    singleflight.Group
}

// NewPipeline wires the pipeline. corr may be nil, in which case
// ValidateAndCorrect only validates.
func NewPipeline(det *issue.Detector, cache *Cache, gen *prompt.Generator, corr *corrector.Corrector, log logger.ILogger) *Pipeline {
	return &Pipeline{
		detector:  det,
		cache:     cache,
		generator: gen,
		corrector: corr,
		logger:    log,
	}
}

func (p *Pipeline) Generator() *prompt.Generator {
	return p.generator
}

func (p *Pipeline) Corrector() *corrector.Corrector {
	return p.corrector
}

// Validate returns the detection result for doc under cfg, from the cache
// when possible. Concurrent misses for the same key run the detector once.
// The returned result is owned by the caller.
func (p *Pipeline) Validate(ctx context.Context, doc seo.Document, cfg seo.Config, opts issue.DetectOptions) (*seo.ValidationResult, error) {
	contentHash := ContentHash(doc, opts.ExistingTitles)
	configHash := cfg.Hash()

	if r, ok := p.cache.Get(ctx, contentHash, configHash); ok {
		return withPrior(r, opts.Prior), nil
	}

	v, err, _ := p.flight.Do(key(contentHash, configHash), func() (interface{}, error) {
		start := time.Now()
		r, err := p.detector.Detect(ctx, doc, cfg, issue.DetectOptions{ExistingTitles: opts.ExistingTitles})
		detectDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		p.cache.Set(ctx, contentHash, configHash, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return withPrior(v.(*seo.ValidationResult).Clone(), opts.Prior), nil
}

// withPrior adds the warnings that depend on the previous pass. They are
// kept out of the cache because the key does not cover them.
func withPrior(r *seo.ValidationResult, prior *seo.ValidationResult) *seo.ValidationResult {
	extra := issue.PersistentWarnings(prior, r.Issues)
	if len(extra) == 0 {
		return r
	}
	r.Warnings = append(r.Warnings, extra...)
	sort.Strings(r.Warnings)
	return r
}

// CorrectionReport is the result of one validate and correct round.
type CorrectionReport struct {
	Document seo.Document              `json:"document"`
	Before   *seo.ValidationResult     `json:"before"`
	After    *seo.ValidationResult     `json:"after"`
	Prompts  []prompt.CorrectionPrompt `json:"prompts"`
	Skipped  []seo.Issue               `json:"skipped,omitempty"`
	Outcome  *corrector.Outcome        `json:"outcome,omitempty"`
}

// ValidateAndCorrect validates doc, applies one batch of corrections when
// cfg.AutoCorrection is set and re-validates the result. On a corrector
// error the report still carries the pre-correction validation.
func (p *Pipeline) ValidateAndCorrect(ctx context.Context, doc seo.Document, cfg seo.Config, opts issue.DetectOptions) (*CorrectionReport, error) {
	before, err := p.Validate(ctx, doc, cfg, opts)
	if err != nil {
		return nil, err
	}
	rep := &CorrectionReport{Document: doc.Clone(), Before: before, After: before}
	if !cfg.AutoCorrection || p.corrector == nil || before.TotalIssues == 0 {
		return rep, nil
	}

	rep.Prompts, rep.Skipped = p.generator.Generate(before.Issues, doc)
	if len(rep.Prompts) == 0 {
		return rep, nil
	}

	outcome, err := p.corrector.Apply(ctx, doc, rep.Prompts, cfg, opts.ExistingTitles)
	rep.Outcome = &outcome
	if err != nil {
		return rep, fmt.Errorf("correct: %w", err)
	}

	after, err := p.Validate(ctx, outcome.Document, cfg, issue.DetectOptions{ExistingTitles: opts.ExistingTitles, Prior: before})
	if err != nil {
		return rep, err
	}
	for _, a := range outcome.Applied {
		after.CorrectionsMade = append(after.CorrectionsMade, string(a.IssueType))
	}
	for _, f := range outcome.FailedCorrections {
		after.Errors = append(after.Errors, fmt.Sprintf("correction for %s failed: %s", f.IssueType, f.Reason))
	}
	rep.Document = outcome.Document
	rep.After = after

	p.logger.Info(logModule, "Validate and correct complete", map[string]interface{}{
		"before":  before.ComplianceScore,
		"after":   after.ComplianceScore,
		"applied": len(outcome.Applied),
		"failed":  len(outcome.FailedCorrections),
	})
	return rep, nil
}

type PipelineStats struct {
	Cache        Stats `json:"cache"`
	DetectorRuns int64 `json:"detector_runs"`
}

func (p *Pipeline) Stats() PipelineStats {
	return PipelineStats{Cache: p.cache.Stats(), DetectorRuns: p.detector.Runs()}
}
