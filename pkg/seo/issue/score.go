package issue

import "content-optimizer-be/pkg/seo"

// Score computes the compliance score. Each evaluated check can cost at
// most 100/checks points; an issue costs its severity weight over the
// critical weight of that share. The result is clamped to [0,100].
func Score(issues []seo.Issue, checks int) float64 {
	if checks <= 0 {
		return 100
	}
	share := 100 / float64(checks)
	penalty := 0.0
	for _, is := range issues {
		penalty += is.Severity.Weight() / seo.SeverityCritical.Weight() * share
	}
	score := 100 - penalty
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return round2(score)
}
