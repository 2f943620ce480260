// Package recovery classifies failures, maps them to recovery strategies
// and runs operations under bounded exponential backoff.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"

	"content-optimizer-be/pkg/llm"
)

type Class string

const (
	ClassCritical      Class = "critical"
	ClassRecoverable   Class = "recoverable"
	ClassDegraded      Class = "degraded"
	ClassInformational Class = "informational"
)

type ErrorType string

const (
	ErrorAIProvider        ErrorType = "ai_provider_failure"
	ErrorRateLimit         ErrorType = "rate_limit_exceeded"
	ErrorValidationTimeout ErrorType = "validation_timeout"
	ErrorNetwork           ErrorType = "network_error"
	ErrorCancelled         ErrorType = "cancelled"
	ErrorUnknown           ErrorType = "unknown"
)

type Strategy string

const (
	StrategyProviderFailover     Strategy = "provider_failover"
	StrategyExponentialBackoff   Strategy = "exponential_backoff"
	StrategySimplifiedValidation Strategy = "simplified_validation"
	StrategyRetryWithBackoff     Strategy = "retry_with_backoff"
	StrategyNone                 Strategy = "none"
)

// DefaultStrategies maps each error type to its recovery strategy.
func DefaultStrategies() map[ErrorType]Strategy {
	return map[ErrorType]Strategy{
		ErrorAIProvider:        StrategyProviderFailover,
		ErrorRateLimit:         StrategyExponentialBackoff,
		ErrorValidationTimeout: StrategySimplifiedValidation,
		ErrorNetwork:           StrategyRetryWithBackoff,
		ErrorUnknown:           StrategyRetryWithBackoff,
		ErrorCancelled:         StrategyNone,
	}
}

// Rule maps a message pattern to a classification. Rules are evaluated
// in order and the first match wins.
type Rule struct {
	Pattern *regexp.Regexp
	Class   Class
	Type    ErrorType
}

// DefaultRules is the message classification table.
func DefaultRules() []Rule {
	return []Rule{
		{regexp.MustCompile(`(?i)rate.?limit|too many requests|status 429`), ClassRecoverable, ErrorRateLimit},
		{regexp.MustCompile(`(?i)fatal|exception|panic|unauthori[sz]ed|forbidden|invalid api key|status 40[13]`), ClassCritical, ErrorAIProvider},
		{regexp.MustCompile(`(?i)validation.*(timeout|timed out)`), ClassRecoverable, ErrorValidationTimeout},
		{regexp.MustCompile(`(?i)timeout|timed out|deadline exceeded`), ClassRecoverable, ErrorNetwork},
		{regexp.MustCompile(`(?i)connection (refused|reset)|no such host|broken pipe|network|\beof\b`), ClassRecoverable, ErrorNetwork},
		{regexp.MustCompile(`(?i)partial|incomplete`), ClassDegraded, ErrorUnknown},
		{regexp.MustCompile(`(?i)provider|model|completion|status 5\d\d|overloaded|unavailable`), ClassRecoverable, ErrorAIProvider},
		{regexp.MustCompile(`(?i)deprecated|notice|^info\b`), ClassInformational, ErrorUnknown},
	}
}

// Classification is the handler's verdict on one failure.
type Classification struct {
	Class    Class     `json:"class"`
	Type     ErrorType `json:"type"`
	Strategy Strategy  `json:"strategy"`
	Message  string    `json:"message"`
}

// Retryable reports whether the failure may be retried.
func (c Classification) Retryable() bool {
	return c.Class == ClassRecoverable || c.Class == ClassDegraded
}

// Classify maps err to a classification. Typed errors are inspected
// before the message rule table.
func (h *Handler) Classify(err error) Classification {
	if err == nil {
		return Classification{Class: ClassInformational, Type: ErrorUnknown, Strategy: StrategyNone}
	}
	class, typ := h.classify(err)
	strategy, ok := h.strategies[typ]
	if !ok {
		strategy = StrategyRetryWithBackoff
	}
	return Classification{Class: class, Type: typ, Strategy: strategy, Message: err.Error()}
}

func (h *Handler) classify(err error) (Class, ErrorType) {
	var fe *failoverError
	if errors.As(err, &fe) {
		return ClassRecoverable, ErrorAIProvider
	}
	var pe *PanicError
	if errors.As(err, &pe) {
		return ClassCritical, ErrorAIProvider
	}

	switch {
	case errors.Is(err, context.Canceled):
		return ClassCritical, ErrorCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return ClassRecoverable, ErrorNetwork
	}

	var se *llm.StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusTooManyRequests:
			return ClassRecoverable, ErrorRateLimit
		case se.StatusCode == http.StatusUnauthorized, se.StatusCode == http.StatusForbidden:
			return ClassCritical, ErrorAIProvider
		default:
			return ClassRecoverable, ErrorAIProvider
		}
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return ClassRecoverable, ErrorNetwork
	}

	msg := err.Error()
	for _, r := range h.rules {
		if r.Pattern.MatchString(msg) {
			return r.Class, r.Type
		}
	}
	// Unknown failures default to recoverable; exhaustion escalates them.
	return ClassRecoverable, ErrorUnknown
}

// Strategy returns the recovery strategy for an error type.
func (h *Handler) Strategy(t ErrorType) Strategy {
	if s, ok := h.strategies[t]; ok {
		return s
	}
	return StrategyRetryWithBackoff
}

type failoverError struct {
	err error
}

func (e *failoverError) Error() string { return "failover: " + e.err.Error() }
func (e *failoverError) Unwrap() error { return e.err }

// Failover marks err as recoverable by switching to another provider,
// whatever its own classification would be.
func Failover(err error) error {
	if err == nil {
		return nil
	}
	return &failoverError{err: err}
}

// PanicError is a panic recovered from a collaborator. It always
// classifies as critical.
type PanicError struct {
	Source string
	Value  interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Source, e.Value)
}
