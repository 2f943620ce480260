package optimizer

import (
	"content-optimizer-be/pkg/seo/prompt"
)

// Correction strategies. A pass starts with the full batch; after a
// rolled back pass it sends only the top prompt, and after a pass without
// improvement only the prompts of the worst severity present.
const (
	StrategyFullBatch       = "full_batch"
	StrategyConservative    = "conservative"
	StrategySeverityFocused = "severity_focused"
)

type passOutcome struct {
	reverted bool
	improved bool
}

func nextStrategy(last *passOutcome) string {
	switch {
	case last == nil:
		return StrategyFullBatch
	case last.reverted:
		return StrategyConservative
	case !last.improved:
		return StrategySeverityFocused
	}
	return StrategyFullBatch
}

// selectPrompts trims a priority-ordered prompt list for the strategy.
func selectPrompts(strategy string, prompts []prompt.CorrectionPrompt) []prompt.CorrectionPrompt {
	if len(prompts) == 0 {
		return prompts
	}
	switch strategy {
	case StrategyConservative:
		return prompts[:1]
	case StrategySeverityFocused:
		top := prompts[0].Severity
		out := make([]prompt.CorrectionPrompt, 0, len(prompts))
		for _, p := range prompts {
			if p.Severity == top {
				out = append(out, p)
			}
		}
		return out
	}
	return prompts
}
