package recovery

import (
	"fmt"
	"math"
)

// Degradation is a partial outcome kept instead of failing the whole
// operation.
type Degradation[T any] struct {
	Results     []T     `json:"results"`
	Failures    []error `json:"-"`
	SuccessRate float64 `json:"success_rate"`
	Degraded    bool    `json:"degraded"`
	Failed      bool    `json:"failed"`
}

// ApplyGracefulDegradation keeps every successful result. SuccessRate is a
// percentage; an empty operation counts as fully successful.
func ApplyGracefulDegradation[T any](results []T, failures []error) Degradation[T] {
	d := Degradation[T]{Results: results, Failures: failures, SuccessRate: 100}
	total := len(results) + len(failures)
	if total > 0 {
		d.SuccessRate = math.Round(float64(len(results))/float64(total)*10000) / 100
	}
	d.Degraded = len(failures) > 0 && len(results) > 0
	d.Failed = len(failures) > 0 && len(results) == 0
	return d
}

// Fallback levels, walked in order.
const (
	LevelPrimary   = "primary"
	LevelFallback1 = "fallback_1"
	LevelFallback2 = "fallback_2"
	LevelFallback3 = "fallback_3"
)

type FallbackLevel struct {
	Level  string `json:"level"`
	Action string `json:"action"`
}

// Chain is a component's ordered fallback list. Graceful means that once
// the chain is exhausted the component degrades instead of failing.
type Chain struct {
	Component string          `json:"component"`
	Levels    []FallbackLevel `json:"levels"`
	Graceful  bool            `json:"graceful_degradation"`
}

// NewChain builds a chain from up to four actions.
func NewChain(component string, graceful bool, actions ...string) Chain {
	names := []string{LevelPrimary, LevelFallback1, LevelFallback2, LevelFallback3}
	c := Chain{Component: component, Graceful: graceful}
	for i, a := range actions {
		level := fmt.Sprintf("fallback_%d", i)
		if i < len(names) {
			level = names[i]
		}
		c.Levels = append(c.Levels, FallbackLevel{Level: level, Action: a})
	}
	return c
}

// At returns the level for a 1-based attempt, cycling through the chain.
func (c Chain) At(attempt int) FallbackLevel {
	if len(c.Levels) == 0 {
		return FallbackLevel{Level: LevelPrimary}
	}
	return c.Levels[(max(1, attempt)-1)%len(c.Levels)]
}

// Walk returns the index and level serving a 1-based attempt. Every level
// but the last rotates by attempt, skipping those excluded reports true
// for. The last level is terminal: it is returned once every earlier
// level is excluded.
func (c Chain) Walk(attempt int, excluded func(i int) bool) (int, FallbackLevel) {
	if len(c.Levels) == 0 {
		return -1, FallbackLevel{Level: LevelPrimary}
	}
	last := len(c.Levels) - 1
	open := make([]int, 0, last)
	for i := 0; i < last; i++ {
		if excluded == nil || !excluded(i) {
			open = append(open, i)
		}
	}
	if len(open) == 0 {
		return last, c.Levels[last]
	}
	i := open[(max(1, attempt)-1)%len(open)]
	return i, c.Levels[i]
}

// Terminal reports whether i is the chain's last level.
func (c Chain) Terminal(i int) bool {
	return i == len(c.Levels)-1
}

// DefaultChains holds the corrector chain used until a corrector
// registers one naming its own providers.
func DefaultChains() map[string]Chain {
	return map[string]Chain{
		"corrector": NewChain("corrector", true, "primary_provider", "secondary_provider", "tertiary_provider", "skip_correction"),
	}
}

// FallbackChain returns the chain registered for component. Unknown
// components get a single primary level with graceful degradation.
func (h *Handler) FallbackChain(component string) Chain {
	if c, ok := h.chains[component]; ok {
		return c
	}
	return NewChain(component, true, "primary")
}

// SetFallbackChain replaces the chain for its component. It is meant for
// wiring and must not race with FallbackChain.
func (h *Handler) SetFallbackChain(c Chain) {
	h.chains[c.Component] = c
}
