package progress

import "sort"

// StrategyStats summarizes how well one correction strategy performed.
type StrategyStats struct {
	Strategy           string  `json:"strategy"`
	Passes             int     `json:"passes"`
	TotalImprovement   float64 `json:"total_improvement"`
	AverageImprovement float64 `json:"average_improvement"`
	SuccessRate        float64 `json:"success_rate"` // % of passes that improved
	Reverted           int     `json:"reverted"`
	IssuesResolved     int     `json:"issues_resolved"`
}

// StrategyEffectiveness aggregates every pass except the baseline by
// strategy, sorted by average improvement, best first.
func (t *Tracker) StrategyEffectiveness() []StrategyStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	by := make(map[string]*StrategyStats)
	improved := make(map[string]int)
	for _, p := range t.passes {
		if p.PassNumber == 0 {
			continue
		}
		s, ok := by[p.Strategy]
		if !ok {
			s = &StrategyStats{Strategy: p.Strategy}
			by[p.Strategy] = s
		}
		s.Passes++
		s.TotalImprovement += p.ScoreImprovement
		s.IssuesResolved += p.IssuesResolved
		if p.Reverted {
			s.Reverted++
		}
		if p.ScoreImprovement > 0 {
			improved[p.Strategy]++
		}
	}

	out := make([]StrategyStats, 0, len(by))
	for name, s := range by {
		s.TotalImprovement = round2(s.TotalImprovement)
		s.AverageImprovement = round2(s.TotalImprovement / float64(s.Passes))
		s.SuccessRate = round2(float64(improved[name]) / float64(s.Passes) * 100)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageImprovement != out[j].AverageImprovement {
			return out[i].AverageImprovement > out[j].AverageImprovement
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out
}

// Report is the tracker's comprehensive view of a session.
type Report struct {
	Session               Session         `json:"session"`
	Passes                []PassRecord    `json:"passes"`
	StrategyEffectiveness []StrategyStats `json:"strategy_effectiveness"`
	TotalImprovement      float64         `json:"total_improvement"`
	TotalIssuesResolved   int             `json:"total_issues_resolved"`
	RevertedPasses        []int           `json:"reverted_passes"`
	DegradedPasses        []int           `json:"degraded_passes"`
	CorrectionSuccessRate float64         `json:"correction_success_rate"`
	BestPass              int             `json:"best_pass"`
	BestScore             float64         `json:"best_score"`
}

func (t *Tracker) Report() Report {
	passes := t.Passes()
	r := Report{
		Session:               t.Session(),
		Passes:                passes,
		StrategyEffectiveness: t.StrategyEffectiveness(),
		RevertedPasses:        []int{},
		DegradedPasses:        []int{},
		CorrectionSuccessRate: 100,
	}
	rates, n := 0.0, 0
	for _, p := range passes {
		if p.PassNumber == 0 {
			continue
		}
		r.TotalIssuesResolved += p.IssuesResolved
		if p.Reverted {
			r.RevertedPasses = append(r.RevertedPasses, p.PassNumber)
		}
		if p.Degraded {
			r.DegradedPasses = append(r.DegradedPasses, p.PassNumber)
		}
		rates += p.SuccessRate
		n++
	}
	if n > 0 {
		r.CorrectionSuccessRate = round2(rates / float64(n))
	}
	if len(passes) > 0 {
		r.TotalImprovement = round2(passes[len(passes)-1].AfterScore - passes[0].BeforeScore)
	}
	if _, best, ok := t.Best(); ok {
		r.BestPass = best.PassNumber
		r.BestScore = best.AfterScore
	}
	return r
}
