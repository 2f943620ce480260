// Package corrector applies prioritized correction prompts through one or
// more text-correction capabilities, with failover between them, and keeps
// only corrections that move their targeted metric toward the target.
package corrector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/analyzer"
	"content-optimizer-be/pkg/seo/prompt"
	"content-optimizer-be/pkg/seo/recovery"
)

const logModule = "CORRECTOR"

var (
	ErrNoCapabilities     = errors.New("no correction capability configured")
	ErrProvidersExhausted = errors.New("all correction providers failed")
	// ErrCorrectionSkipped is returned by the chain's terminal level.
	ErrCorrectionSkipped = errors.New("fatal: correction skipped, every provider is disabled")
)

// ChainComponent names the corrector's fallback chain on the recovery
// handler.
const ChainComponent = "corrector"

// SkipAction is the corrector chain's terminal level.
const SkipAction = "skip_correction"

// Failure reasons recorded in failed corrections.
const (
	ReasonProviderFailure = "provider_failure"
	ReasonNotImproved     = "metric_not_improved"
	ReasonUnchanged       = "document_unchanged"
	ReasonCancelled       = "cancelled"
	ReasonSkipped         = "correction_skipped"
)

// Applied is a correction that was kept.
type Applied struct {
	IssueType seo.IssueType   `json:"issue_type"`
	Metric    analyzer.Metric `json:"metric"`
	Provider  string          `json:"provider"`
	Attempts  int             `json:"attempts"`
	Before    float64         `json:"before"`
	After     float64         `json:"after"`
}

// Failed is a correction that was attempted and discarded.
type Failed struct {
	IssueType      seo.IssueType            `json:"issue_type"`
	Reason         string                   `json:"reason"`
	Attempts       int                      `json:"attempts"`
	Error          string                   `json:"error,omitempty"`
	Classification *recovery.Classification `json:"classification,omitempty"`
}

// Outcome is the result of one correction batch.
type Outcome struct {
	Document          seo.Document `json:"document"`
	Applied           []Applied    `json:"applied"`
	FailedCorrections []Failed     `json:"failed_corrections"`
	SuccessRate       float64      `json:"success_rate"`
	Degraded          bool         `json:"degraded"`
}

// HistoryEntry is one attempted correction, kept for inspection.
type HistoryEntry struct {
	At        time.Time     `json:"at"`
	IssueType seo.IssueType `json:"issue_type"`
	Provider  string        `json:"provider"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Reason    string        `json:"reason,omitempty"`
}

type Corrector struct {
	capabilities []Capability
	recovery     *recovery.Handler
	logger       logger.ILogger
	historyLimit int

	mu      sync.Mutex
	history []HistoryEntry
}

// NewCorrector takes capabilities in failover priority order and
// registers their fallback chain on rh.
func NewCorrector(capabilities []Capability, rh *recovery.Handler, log logger.ILogger, historyLimit int) *Corrector {
	if historyLimit < 1 {
		historyLimit = 100
	}
	c := &Corrector{
		capabilities: capabilities,
		recovery:     rh,
		logger:       log,
		historyLimit: historyLimit,
	}
	rh.SetFallbackChain(c.Chain())
	return c
}

// Names returns the capability names in priority order.
func (c *Corrector) Names() []string {
	out := make([]string, len(c.capabilities))
	for i, cp := range c.capabilities {
		out[i] = cp.Name()
	}
	return out
}

// Chain is the corrector's fallback chain: one level per capability
// followed by skipping the correction.
func (c *Corrector) Chain() recovery.Chain {
	actions := append(c.Names(), SkipAction)
	return recovery.NewChain(ChainComponent, true, actions...)
}

// Apply runs prompts in order against doc. Each prompt walks the fallback
// chain for up to cfg.MaxRetryAttempts attempts; a prompt that fails or
// does not improve its metric is recorded and the batch continues. A
// provider failing critically is disabled for the rest of the batch.
func (c *Corrector) Apply(ctx context.Context, doc seo.Document, prompts []prompt.CorrectionPrompt, cfg seo.Config, existingTitles []string) (Outcome, error) {
	out := Outcome{Document: doc.Clone(), SuccessRate: 100}
	if len(prompts) == 0 {
		return out, nil
	}
	if len(c.capabilities) == 0 {
		return out, ErrNoCapabilities
	}

	rh := c.recovery.WithMaxAttempts(cfg.MaxRetryAttempts)
	chain := c.Chain()
	disabled := make(map[int]bool)
	var failures []error
	providerFailures := 0

	for _, p := range prompts {
		if ctx.Err() != nil {
			out.FailedCorrections = append(out.FailedCorrections, Failed{IssueType: p.IssueType, Reason: ReasonCancelled, Error: ctx.Err().Error()})
			failures = append(failures, ctx.Err())
			continue
		}

		metric := p.ExpectedChanges.Metric
		before, err := analyzer.Evaluate(metric, out.Document, cfg, existingTitles)
		if err != nil {
			return out, fmt.Errorf("measure %s: %w", metric, err)
		}

		var used string
		req := Request{IssueType: p.IssueType, Field: p.Field, Keyword: p.Keyword}
		corrected, attempts, err := recovery.Execute(ctx, rh, func(ctx context.Context, attempt int) (seo.Document, error) {
			idx, lvl := chain.Walk(attempt, func(i int) bool { return disabled[i] })
			used = lvl.Action
			if chain.Terminal(idx) {
				return out.Document, ErrCorrectionSkipped
			}
			req.Attempt = attempt
			d, err := safeCorrect(ctx, c.capabilities[idx], out.Document, p.PromptText, req)
			if err == nil {
				return d, nil
			}
			if ctx.Err() != nil {
				return d, err
			}
			if rh.Classify(err).Class == recovery.ClassCritical {
				disabled[idx] = true
				c.logger.Warn(logModule, "Disabling correction provider", map[string]interface{}{"provider": used, "error": err.Error()})
				return d, recovery.Failover(err)
			}
			return d, err
		})
		if err != nil {
			reason := ReasonProviderFailure
			if errors.Is(err, ErrCorrectionSkipped) {
				reason = ReasonSkipped
			}
			f := Failed{IssueType: p.IssueType, Reason: reason, Attempts: attempts, Error: err.Error()}
			var rf *recovery.Failure
			if errors.As(err, &rf) {
				cl := rf.Classification
				f.Classification = &cl
			}
			out.FailedCorrections = append(out.FailedCorrections, f)
			failures = append(failures, err)
			providerFailures++
			c.record(p.IssueType, used, attempts, false, reason)
			c.logger.Warn(logModule, "Correction failed", map[string]interface{}{"issue": string(p.IssueType), "attempts": attempts, "error": err.Error()})
			continue
		}

		if corrected.Equal(out.Document) {
			out.FailedCorrections = append(out.FailedCorrections, Failed{IssueType: p.IssueType, Reason: ReasonUnchanged, Attempts: attempts})
			failures = append(failures, errors.New(ReasonUnchanged))
			c.record(p.IssueType, used, attempts, false, ReasonUnchanged)
			continue
		}

		after, err := analyzer.Evaluate(metric, corrected, cfg, existingTitles)
		if err != nil {
			return out, fmt.Errorf("measure %s: %w", metric, err)
		}
		if !Improved(p, before.Value, after.Value) {
			out.FailedCorrections = append(out.FailedCorrections, Failed{IssueType: p.IssueType, Reason: ReasonNotImproved, Attempts: attempts})
			failures = append(failures, errors.New(ReasonNotImproved))
			c.record(p.IssueType, used, attempts, false, ReasonNotImproved)
			c.logger.Debug(logModule, "Correction discarded", map[string]interface{}{
				"issue": string(p.IssueType), "before": before.Value, "after": after.Value, "target": p.ExpectedChanges.TargetValue,
			})
			continue
		}

		out.Document = corrected
		out.Applied = append(out.Applied, Applied{
			IssueType: p.IssueType, Metric: metric, Provider: used, Attempts: attempts,
			Before: before.Value, After: after.Value,
		})
		c.record(p.IssueType, used, attempts, true, "")
	}

	d := recovery.ApplyGracefulDegradation(out.Applied, failures)
	out.SuccessRate = d.SuccessRate
	out.Degraded = d.Degraded

	if providerFailures == len(prompts) {
		return out, ErrProvidersExhausted
	}
	return out, nil
}

// safeCorrect turns a panicking capability into a critical error.
func safeCorrect(ctx context.Context, cp Capability, doc seo.Document, promptText string, req Request) (out seo.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = doc, &recovery.PanicError{Source: cp.Name(), Value: r}
		}
	}()
	return cp.Correct(ctx, doc, promptText, req)
}

// Improved reports whether after is strictly closer to the prompt's
// target than before. With a band the distance is to the nearest edge;
// otherwise it is measured in the prompt's direction.
func Improved(p prompt.CorrectionPrompt, before, after float64) bool {
	return distance(p, after) < distance(p, before)
}

func distance(p prompt.CorrectionPrompt, v float64) float64 {
	if b := p.ExpectedChanges.Band; b != nil {
		lo, hi := math.Min(b[0], b[1]), math.Max(b[0], b[1])
		switch {
		case v < lo:
			return lo - v
		case v > hi:
			return v - hi
		}
		return 0
	}
	t := p.ExpectedChanges.TargetValue
	if p.QuantitativeTarget.Action == prompt.ActionReduce {
		return math.Max(0, v-t)
	}
	return math.Max(0, t-v)
}

func (c *Corrector) record(t seo.IssueType, provider string, attempts int, ok bool, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, HistoryEntry{
		At: time.Now(), IssueType: t, Provider: provider, Attempts: attempts, Success: ok, Reason: reason,
	})
	if over := len(c.history) - c.historyLimit; over > 0 {
		c.history = append([]HistoryEntry(nil), c.history[over:]...)
	}
}

// History returns the retained correction history, oldest first.
func (c *Corrector) History() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]HistoryEntry(nil), c.history...)
}
