// Package optimizer runs the multi-pass convergence loop: baseline
// detection, then repeated snapshot, prompt, correct, structure check and
// re-validation until a termination condition fires.
package optimizer

import (
	"errors"
	"fmt"
	"sync"

	"content-optimizer-be/internal/pkg/logger"
	"content-optimizer-be/pkg/events"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/progress"
	"content-optimizer-be/pkg/seo/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const logModule = "OPTIMIZER"

var ErrInvalidDocument = errors.New("invalid document")

type State string

const (
	StateInit      State = "init"
	StateBaseline  State = "baseline"
	StateIterate   State = "iterate"
	StateConverged State = "converged"
	StateStagnated State = "stagnated"
	StateExhausted State = "exhausted"
	StateErrored   State = "errored"
	StateReported  State = "reported"
)

type TerminationReason string

const (
	ReasonInitialCompliance       TerminationReason = "initial_compliance"
	ReasonComplianceAchieved      TerminationReason = "compliance_achieved"
	ReasonMaxIterations           TerminationReason = "max_iterations_reached"
	ReasonNoImprovement           TerminationReason = "no_improvement"
	ReasonInsufficientImprovement TerminationReason = "insufficient_improvement"
	ReasonCriticalError           TerminationReason = "critical_error"
	ReasonTimeBudgetExceeded      TerminationReason = "time_budget_exceeded"
	ReasonNoActionableIssues      TerminationReason = "no_actionable_issues"
)

// State is the terminal state a reason leads to.
func (r TerminationReason) State() State {
	switch r {
	case ReasonInitialCompliance, ReasonComplianceAchieved:
		return StateConverged
	case ReasonMaxIterations, ReasonTimeBudgetExceeded:
		return StateExhausted
	case ReasonCriticalError:
		return StateErrored
	default:
		return StateStagnated
	}
}

// Deps are the collaborators of an optimizer. Pipeline is required; its
// generator and corrector perform the corrections.
type Deps struct {
	Pipeline  *validation.Pipeline
	Publisher events.Publisher
	Logger    logger.ILogger
	Tracer    trace.Tracer
}

// Optimizer is constructed once per host and is safe for concurrent
// sessions. Each Optimize call owns its snapshots and tracker.
type Optimizer struct {
	mu   sync.RWMutex
	cfg  seo.Config
	deps Deps
}

// New validates cfg and fails fast on invalid configuration.
func New(deps Deps, cfg seo.Config) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Pipeline == nil {
		return nil, errors.New("optimizer: validation pipeline is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("content-optimizer-be/optimizer")
	}
	return &Optimizer{cfg: cfg, deps: deps}, nil
}

// Config returns the active configuration.
func (o *Optimizer) Config() seo.Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg
}

// UpdateConfig merges p into the active configuration. Running sessions
// pick the new values up at their next pass boundary. An invalid result
// leaves the active configuration untouched.
func (o *Optimizer) UpdateConfig(p seo.ConfigPatch) (seo.Config, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	next := o.cfg.Merge(p)
	if err := next.Validate(); err != nil {
		return o.cfg, err
	}
	o.cfg = next
	o.deps.Logger.Info(logModule, "Configuration updated", map[string]interface{}{"config_hash": next.Hash()})
	return next, nil
}

// Options are per-session inputs.
type Options struct {
	SessionID      string
	ExistingTitles []string
}

// Summary is the short form of a session outcome. Degraded is set when
// any pass kept only part of its corrections.
type Summary struct {
	InitialScore       float64           `json:"initial_score"`
	FinalScore         float64           `json:"final_score"`
	IterationsUsed     int               `json:"iterations_used"`
	ComplianceAchieved bool              `json:"compliance_achieved"`
	TerminationReason  TerminationReason `json:"termination_reason"`
	State              State             `json:"state"`
	Degraded           bool              `json:"degraded"`
	SuccessRate        float64           `json:"correction_success_rate"`
}

// Result is produced on every termination path.
type Result struct {
	SessionID       string                `json:"session_id"`
	Document        seo.Document          `json:"document"`
	FinalValidation *seo.ValidationResult `json:"final_validation"`
	Passes          []progress.PassRecord `json:"passes"`
	Summary         Summary               `json:"summary"`
	Report          progress.Report       `json:"report"`
	States          []State               `json:"states"`
	Warnings        []string              `json:"warnings"`
	Error           string                `json:"error,omitempty"`
}

func validateDocument(doc seo.Document) error {
	if doc.Keyword() == "" {
		return fmt.Errorf("%w: focus keyword is required", ErrInvalidDocument)
	}
	if doc.Title == "" && doc.Body == "" && doc.MetaDescription == "" {
		return fmt.Errorf("%w: document is empty", ErrInvalidDocument)
	}
	return nil
}
