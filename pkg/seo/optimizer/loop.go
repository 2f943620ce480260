package optimizer

import (
	"context"
	"fmt"
	"time"

	"content-optimizer-be/pkg/events"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/issue"
	"content-optimizer-be/pkg/seo/progress"
	"content-optimizer-be/pkg/seo/structure"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// session is the mutable state of one Optimize call.
type session struct {
	o         *Optimizer
	id        string
	titles    []string
	tracker   *progress.Tracker
	preserver *structure.Preserver
	states    []State
	warnings  []string
	deadline  time.Time

	current    seo.Document
	currentRes *seo.ValidationResult
	reason     TerminationReason
	err        error
}

func (s *session) enter(st State) {
	s.states = append(s.states, st)
}

// Optimize runs one session. It only returns an error for an invalid
// input document; every other failure ends the session with a reason and
// still produces a full result.
func (o *Optimizer) Optimize(ctx context.Context, doc seo.Document, opts Options) (*Result, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	id := opts.SessionID
	if id == "" {
		id = uuid.NewString()
	}
	cfg := o.Config()

	ctx, span := o.deps.Tracer.Start(ctx, "optimizer.Optimize", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.String("document.keyword", doc.Keyword()),
	))
	defer span.End()

	s := &session{
		o:         o,
		id:        id,
		titles:    opts.ExistingTitles,
		tracker:   progress.Start(id),
		preserver: structure.NewPreserver(cfg.SnapshotLimit, cfg.ParagraphTolerance, o.deps.Logger),
		current:   doc.Clone(),
	}
	if cfg.SessionTimeout > 0 {
		s.deadline = time.Now().Add(cfg.SessionTimeout)
	}
	s.enter(StateInit)

	o.deps.Logger.Info(logModule, "Optimization started", map[string]interface{}{
		"session_id":     id,
		"max_iterations": cfg.MaxIterations,
		"target":         cfg.TargetComplianceScore,
	})

	if s.baseline(ctx, cfg) {
		s.enter(StateIterate)
		s.iterate(ctx)
	}

	res := s.finish(ctx)
	span.SetAttributes(
		attribute.String("termination.reason", string(res.Summary.TerminationReason)),
		attribute.Int("passes", res.Summary.IterationsUsed),
		attribute.Float64("score.final", res.Summary.FinalScore),
	)
	if s.err != nil {
		span.RecordError(s.err)
		span.SetStatus(codes.Error, s.err.Error())
	}
	return res, nil
}

// detached keeps detection and event delivery running after the caller
// cancels. Detection does no I/O and the budget is only checked at pass
// boundaries.
func detached(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

// baseline reports whether iteration should start.
func (s *session) baseline(ctx context.Context, cfg seo.Config) bool {
	s.enter(StateBaseline)
	snap, err := s.preserver.Snapshot(s.current, "baseline", 0)
	if err != nil {
		s.fail(fmt.Errorf("baseline snapshot: %w", err))
		return false
	}
	res, err := s.o.deps.Pipeline.Validate(detached(ctx), s.current, cfg, issue.DetectOptions{ExistingTitles: s.titles})
	if err != nil {
		s.fail(fmt.Errorf("baseline detection: %w", err))
		return false
	}
	if _, err := s.tracker.RecordBaseline(res, s.current, snap.ID); err != nil {
		s.fail(err)
		return false
	}
	s.currentRes = res

	if res.ComplianceScore >= cfg.TargetComplianceScore {
		s.reason = ReasonInitialCompliance
		return false
	}
	return true
}

func (s *session) fail(err error) {
	s.err = err
	s.reason = ReasonCriticalError
	s.o.deps.Logger.Error(logModule, "Optimization failed", map[string]interface{}{"session_id": s.id, "error": err.Error()})
}

func (s *session) budgetExceeded(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return !s.deadline.IsZero() && !time.Now().Before(s.deadline)
}

func (s *session) iterate(ctx context.Context) {
	var last *passOutcome
	stagnant := 0

	for pass := 1; ; pass++ {
		cfg := s.o.Config()
		if s.budgetExceeded(ctx) {
			s.reason = ReasonTimeBudgetExceeded
			return
		}

		rec, done := s.runPass(ctx, cfg, pass, nextStrategy(last))
		if done {
			return
		}
		last = &passOutcome{reverted: rec.Reverted, improved: rec.ScoreImprovement > 0}

		if rec.ScoreImprovement <= 0 {
			stagnant++
		} else {
			stagnant = 0
		}

		switch {
		case rec.AfterScore >= cfg.TargetComplianceScore:
			s.reason = ReasonComplianceAchieved
		case pass >= cfg.MaxIterations:
			s.reason = ReasonMaxIterations
		case cfg.EnableEarlyTermination && stagnant >= cfg.StagnationThreshold:
			s.reason = ReasonNoImprovement
		case cfg.EnableEarlyTermination && rec.ScoreImprovement > 0 && rec.ScoreImprovement < cfg.MinImprovementThreshold:
			s.reason = ReasonInsufficientImprovement
		default:
			continue
		}
		return
	}
}

// runPass executes one pass. done is true when the pass ended the session
// before a termination check could run.
func (s *session) runPass(ctx context.Context, cfg seo.Config, pass int, strategy string) (progress.PassRecord, bool) {
	deps := s.o.deps
	ctx, span := deps.Tracer.Start(ctx, "optimizer.pass", trace.WithAttributes(
		attribute.Int("pass", pass),
		attribute.String("strategy", strategy),
	))
	defer span.End()
	start := time.Now()

	snap, err := s.preserver.Snapshot(s.current, fmt.Sprintf("pass-%d", pass), pass)
	if err != nil {
		s.fail(fmt.Errorf("pass %d snapshot: %w", pass, err))
		return progress.PassRecord{}, true
	}

	before, err := deps.Pipeline.Validate(detached(ctx), s.current, cfg, issue.DetectOptions{ExistingTitles: s.titles})
	if err != nil {
		s.fail(fmt.Errorf("pass %d detection: %w", pass, err))
		return progress.PassRecord{}, true
	}

	corr := deps.Pipeline.Corrector()
	if !cfg.AutoCorrection || corr == nil {
		s.warnings = append(s.warnings, "automatic correction is disabled")
		s.reason = ReasonNoActionableIssues
		return progress.PassRecord{}, true
	}
	prompts, skipped := deps.Pipeline.Generator().Generate(before.Issues, s.current)
	for _, is := range skipped {
		s.warnings = append(s.warnings, fmt.Sprintf("issue %s skipped by manual override", is.Type))
	}
	prompts = selectPrompts(strategy, prompts)
	if len(prompts) == 0 {
		s.reason = ReasonNoActionableIssues
		return progress.PassRecord{}, true
	}

	passCtx := ctx
	if cfg.PassTimeout > 0 {
		var cancel context.CancelFunc
		passCtx, cancel = context.WithTimeout(ctx, cfg.PassTimeout)
		defer cancel()
	}

	outcome, corrErr := corr.Apply(passCtx, s.current, prompts, cfg, s.titles)
	in := progress.PassInput{
		Before:      before,
		BeforeDoc:   s.current,
		Strategy:    strategy,
		SnapshotID:  snap.ID,
		Degraded:    outcome.Degraded,
		SuccessRate: outcome.SuccessRate,
	}
	for _, f := range outcome.FailedCorrections {
		in.FailedCorrections = append(in.FailedCorrections, fmt.Sprintf("%s: %s", f.IssueType, f.Reason))
	}

	if corrErr != nil {
		// Abort the pass: restore the snapshot and end with the best
		// document seen so far. A pass that ran out of time ends the
		// session on its budget instead.
		timedOut := passCtx.Err() != nil
		reason := ReasonCriticalError
		if timedOut {
			reason = ReasonTimeBudgetExceeded
		}
		restored, err := s.preserver.Rollback(snap.ID)
		if err != nil {
			restored = snap.Document.Clone()
		}
		in.After, in.AfterDoc = before, restored
		in.Reverted, in.RevertReason = true, string(reason)
		in.Duration = time.Since(start)
		passRollbacks.Inc()
		if rec, err := s.tracker.RecordPass(in); err == nil {
			s.publishPass(ctx, rec)
		}
		s.current, s.currentRes = restored, before
		span.RecordError(corrErr)
		if timedOut {
			s.reason = reason
			s.warnings = append(s.warnings, fmt.Sprintf("pass %d exceeded its time budget", pass))
			return progress.PassRecord{}, true
		}
		s.fail(fmt.Errorf("pass %d correction: %w", pass, corrErr))
		return progress.PassRecord{}, true
	}
	if outcome.Degraded {
		s.warnings = append(s.warnings, fmt.Sprintf("pass %d degraded: %.2f%% of corrections succeeded", pass, outcome.SuccessRate))
	}

	guarded, report, rolledBack, err := s.preserver.Guard(snap, outcome.Document)
	if err != nil {
		s.warnings = append(s.warnings, fmt.Sprintf("pass %d structure check failed: %v", pass, err))
	}
	for _, v := range report.Minor() {
		s.warnings = append(s.warnings, fmt.Sprintf("pass %d: %s", pass, v.Message))
	}
	if rolledBack {
		passRollbacks.Inc()
		in.Reverted, in.RevertReason = true, "structure_violation"
	} else {
		for _, a := range outcome.Applied {
			in.Corrections = append(in.Corrections, string(a.IssueType))
		}
	}

	after, err := deps.Pipeline.Validate(detached(ctx), guarded, cfg, issue.DetectOptions{ExistingTitles: s.titles, Prior: before})
	if err != nil {
		s.fail(fmt.Errorf("pass %d re-validation: %w", pass, err))
		return progress.PassRecord{}, true
	}
	in.After, in.AfterDoc = after, guarded
	in.Duration = time.Since(start)

	rec, err := s.tracker.RecordPass(in)
	if err != nil {
		s.fail(err)
		return progress.PassRecord{}, true
	}
	s.current, s.currentRes = guarded, after
	s.publishPass(ctx, rec)

	span.SetAttributes(
		attribute.Float64("score.before", rec.BeforeScore),
		attribute.Float64("score.after", rec.AfterScore),
		attribute.Bool("reverted", rec.Reverted),
	)
	deps.Logger.Info(logModule, "Pass recorded", map[string]interface{}{
		"session_id":  s.id,
		"pass":        pass,
		"strategy":    strategy,
		"before":      rec.BeforeScore,
		"after":       rec.AfterScore,
		"applied":     len(in.Corrections),
		"failed":      len(in.FailedCorrections),
		"reverted":    rec.Reverted,
		"duration_ms": rec.DurationMs,
	})
	return rec, false
}

func (s *session) finish(ctx context.Context) *Result {
	deps := s.o.deps
	cfg := s.o.Config()
	s.enter(s.reason.State())

	final := s.current
	finalRes := s.currentRes
	if s.reason == ReasonCriticalError {
		if best, _, ok := s.tracker.Best(); ok {
			final = best
			finalRes = nil
		}
	}
	if finalRes == nil {
		if r, err := deps.Pipeline.Validate(detached(ctx), final, cfg, issue.DetectOptions{ExistingTitles: s.titles}); err == nil {
			finalRes = r
		}
	}

	finalScore := 0.0
	if finalRes != nil {
		finalScore = finalRes.ComplianceScore
	}
	sess, _ := s.tracker.End(string(s.reason), finalScore)
	s.enter(StateReported)
	report := s.tracker.Report()

	res := &Result{
		SessionID:       s.id,
		Document:        final,
		FinalValidation: finalRes,
		Passes:          s.tracker.Passes(),
		Summary: Summary{
			InitialScore:       sess.InitialScore,
			FinalScore:         finalScore,
			IterationsUsed:     sess.TotalPasses,
			ComplianceAchieved: finalRes != nil && finalScore >= cfg.TargetComplianceScore,
			TerminationReason:  s.reason,
			State:              s.reason.State(),
			Degraded:           len(report.DegradedPasses) > 0,
			SuccessRate:        report.CorrectionSuccessRate,
		},
		Report:   report,
		States:   s.states,
		Warnings: dedupe(s.warnings),
	}
	if s.err != nil {
		res.Error = s.err.Error()
	}

	sessionsTotal.WithLabelValues(string(s.reason)).Inc()
	passesPerSession.Observe(float64(sess.TotalPasses))

	evt := events.New(events.OptimizationCompleted, map[string]interface{}{
		"session_id":          s.id,
		"initial_score":       res.Summary.InitialScore,
		"final_score":         res.Summary.FinalScore,
		"total_passes":        res.Summary.IterationsUsed,
		"termination_reason":  string(s.reason),
		"compliance_achieved": res.Summary.ComplianceAchieved,
		"duration_ms":         sess.DurationMs,
		"document":            final,
	})
	if err := deps.Publisher.Publish(detached(ctx), evt); err != nil {
		deps.Logger.Warn(logModule, "Failed to publish completion event", map[string]interface{}{"session_id": s.id, "error": err.Error()})
	}

	deps.Logger.Info(logModule, "Optimization finished", map[string]interface{}{
		"session_id":  s.id,
		"reason":      string(s.reason),
		"initial":     res.Summary.InitialScore,
		"final":       res.Summary.FinalScore,
		"passes":      res.Summary.IterationsUsed,
		"duration_ms": sess.DurationMs,
	})
	return res
}

func (s *session) publishPass(ctx context.Context, rec progress.PassRecord) {
	evt := events.New(events.OptimizationPassRecorded, map[string]interface{}{
		"session_id":        s.id,
		"pass_number":       rec.PassNumber,
		"before_score":      rec.BeforeScore,
		"after_score":       rec.AfterScore,
		"score_improvement": rec.ScoreImprovement,
		"issues_resolved":   rec.IssuesResolved,
		"strategy":          rec.Strategy,
		"reverted":          rec.Reverted,
	})
	if err := s.o.deps.Publisher.Publish(ctx, evt); err != nil {
		s.o.deps.Logger.Warn(logModule, "Failed to publish pass event", map[string]interface{}{"session_id": s.id, "error": err.Error()})
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := []string{}
	for _, w := range in {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	return out
}
