// Package issue turns analyzer measurements into typed, severity-ranked
// issues and an aggregate compliance score.
package issue

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/analyzer"

	"golang.org/x/sync/errgroup"
)

const logModule = "DETECTOR"

var (
	ErrAnalyzerFailed   = errors.New("analyzer failed")
	ErrMissingLocations = errors.New("issue detected without required locations")
)

// DetectOptions carries context beyond the document itself.
type DetectOptions struct {
	// ExistingTitles are titles already used by the host, for the
	// uniqueness check.
	ExistingTitles []string
	// Prior is the previous pass result, used to flag persistent issues.
	Prior *seo.ValidationResult
}

// Detector runs every analyzer once per call. It is safe for concurrent
// use.
type Detector struct {
	analyzers []analyzer.Analyzer
	logger    logger.ILogger
	runs      atomic.Int64
}

// NewDetector builds a detector over the given analyzers, or over
// analyzer.All() when none are given.
func NewDetector(log logger.ILogger, analyzers ...analyzer.Analyzer) *Detector {
	if len(analyzers) == 0 {
		analyzers = analyzer.All()
	}
	return &Detector{analyzers: analyzers, logger: log}
}

// Runs returns how many detections have executed the analyzers.
func (d *Detector) Runs() int64 {
	return d.runs.Load()
}

// Detect measures doc against cfg. A failing analyzer fails the whole
// detection; it is never reported as an issue.
func (d *Detector) Detect(ctx context.Context, doc seo.Document, cfg seo.Config, opts DetectOptions) (*seo.ValidationResult, error) {
	d.runs.Add(1)

	if doc.Keyword() == "" {
		return nil, fmt.Errorf("%w: %v", ErrAnalyzerFailed, analyzer.ErrNoKeyword)
	}

	in, err := analyzer.NewInput(doc, cfg, opts.ExistingTitles)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalyzerFailed, err)
	}

	// 1. Measure (analyzers are independent, results are slotted by index
	// so the outcome does not depend on scheduling)
	results := make([]analyzer.Measurement, len(d.analyzers))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range d.analyzers {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: %s panicked: %v", ErrAnalyzerFailed, a.Metric(), r)
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := a.Measure(in)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", ErrAnalyzerFailed, a.Metric(), err)
			}
			results[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.logger.Error(logModule, "Detection failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	byMetric := make(map[analyzer.Metric]analyzer.Measurement, len(results))
	for _, m := range results {
		byMetric[m.Metric] = m
	}

	// 2. Normalize into issues
	b := &builder{cfg: cfg, doc: doc, in: in, measures: byMetric, existing: len(opts.ExistingTitles) > 0}
	issues, checks := b.build()

	for i := range issues {
		issues[i].Weight = issues[i].Severity.Weight()
		issues[i].Priority = issues[i].Severity.Rank()*1000 - i
		if issues[i].Type.RequiresLocations() && len(issues[i].Locations) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingLocations, issues[i].Type)
		}
	}

	// 3. Aggregate
	res := &seo.ValidationResult{
		Issues:          issues,
		Metrics:         b.metrics(),
		Errors:          []string{},
		Warnings:        b.warnings(opts.Prior, issues),
		CorrectionsMade: []string{},
	}
	res.TotalIssues = len(issues)
	for _, is := range issues {
		switch is.Severity {
		case seo.SeverityCritical:
			res.CriticalIssues++
		case seo.SeverityMajor:
			res.MajorIssues++
		default:
			res.MinorIssues++
		}
	}
	res.ComplianceScore = Score(issues, checks)

	d.logger.Debug(logModule, "Detection complete", map[string]interface{}{
		"score":  res.ComplianceScore,
		"issues": res.TotalIssues,
		"checks": checks,
	})
	return res, nil
}
