package issue

import (
	"fmt"
	"math"
	"sort"

	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/analyzer"
)

// Severity thresholds on the relative distance from the violated bound.
const (
	criticalRatio = 0.5
	majorRatio    = 0.2
)

// SeverityFor grades a banded metric by how far value lies from bound.
func SeverityFor(value, bound float64) seo.Severity {
	ratio := 1.0
	if bound != 0 {
		ratio = math.Abs(value-bound) / math.Abs(bound)
	}
	switch {
	case ratio >= criticalRatio:
		return seo.SeverityCritical
	case ratio >= majorRatio:
		return seo.SeverityMajor
	default:
		return seo.SeverityMinor
	}
}

type builder struct {
	cfg      seo.Config
	doc      seo.Document
	in       *analyzer.Input
	measures map[analyzer.Metric]analyzer.Measurement
	existing bool
}

func (b *builder) m(metric analyzer.Metric) analyzer.Measurement {
	return b.measures[metric]
}

// build returns the issues in fixed detection order and the number of
// checks that were evaluated.
func (b *builder) build() ([]seo.Issue, int) {
	var out []seo.Issue
	checks := 0
	cfg := b.cfg
	kw := b.doc.Keyword()

	// keyword density
	checks++
	d := b.m(analyzer.MetricKeywordDensity)
	switch {
	case d.Value < cfg.MinKeywordDensity:
		locs := d.Locations
		if len(locs) == 0 {
			locs = d.Failing
		}
		out = append(out, seo.Issue{
			Type: seo.IssueKeywordDensityLow, Severity: SeverityFor(d.Value, cfg.MinKeywordDensity),
			CurrentValue: round2(d.Value), TargetValue: cfg.MinKeywordDensity, UpperBound: cfg.MaxKeywordDensity,
			Keyword: kw, Count: d.Count, Total: d.Total, Locations: locs,
			Message: fmt.Sprintf("Keyword %q density is %.2f%%, below the minimum of %.2f%%", kw, d.Value, cfg.MinKeywordDensity),
		})
	case d.Value > cfg.MaxKeywordDensity:
		out = append(out, seo.Issue{
			Type: seo.IssueKeywordDensityHigh, Severity: SeverityFor(d.Value, cfg.MaxKeywordDensity),
			CurrentValue: round2(d.Value), TargetValue: cfg.MaxKeywordDensity, UpperBound: cfg.MinKeywordDensity,
			Keyword: kw, Count: d.Count, Total: d.Total, Locations: d.Locations,
			Message: fmt.Sprintf("Keyword %q density is %.2f%%, above the maximum of %.2f%%", kw, d.Value, cfg.MaxKeywordDensity),
		})
	}

	// passive voice
	checks++
	p := b.m(analyzer.MetricPassiveVoice)
	if p.Value > cfg.MaxPassiveVoice {
		out = append(out, seo.Issue{
			Type: seo.IssuePassiveVoiceHigh, Severity: SeverityFor(p.Value, cfg.MaxPassiveVoice),
			CurrentValue: round2(p.Value), TargetValue: cfg.MaxPassiveVoice,
			Count: p.Count, Total: p.Total, Locations: p.Locations,
			Message: fmt.Sprintf("%d of %d sentences use passive voice (%.2f%%), maximum is %.2f%%", p.Count, p.Total, p.Value, cfg.MaxPassiveVoice),
		})
	}

	// sentence length
	checks++
	l := b.m(analyzer.MetricLongSentences)
	if l.Value > cfg.MaxLongSentences {
		out = append(out, seo.Issue{
			Type: seo.IssueLongSentences, Severity: SeverityFor(l.Value, cfg.MaxLongSentences),
			CurrentValue: round2(l.Value), TargetValue: cfg.MaxLongSentences,
			Count: l.Count, Total: l.Total, Locations: l.Locations,
			Message: fmt.Sprintf("%d of %d sentences exceed %d words (%.2f%%), maximum is %.2f%%", l.Count, l.Total, cfg.LongSentenceWords, l.Value, cfg.MaxLongSentences),
		})
	}

	// transition words
	checks++
	t := b.m(analyzer.MetricTransitionWords)
	if t.Total > 0 && t.Value < cfg.MinTransitionWords {
		out = append(out, seo.Issue{
			Type: seo.IssueTransitionWordsLow, Severity: SeverityFor(t.Value, cfg.MinTransitionWords),
			CurrentValue: round2(t.Value), TargetValue: cfg.MinTransitionWords,
			Count: t.Count, Total: t.Total, Locations: t.Failing,
			Message: fmt.Sprintf("Only %.2f%% of sentences use transition words, minimum is %.2f%%", t.Value, cfg.MinTransitionWords),
		})
	}

	// meta description length
	checks++
	ml := b.m(analyzer.MetricMetaLength)
	switch {
	case ml.Value < float64(cfg.MinMetaDescLength):
		out = append(out, seo.Issue{
			Type: seo.IssueMetaDescriptionShort, Severity: SeverityFor(ml.Value, float64(cfg.MinMetaDescLength)),
			CurrentValue: ml.Value, TargetValue: float64(cfg.MinMetaDescLength), UpperBound: float64(cfg.MaxMetaDescLength),
			Keyword: kw, Count: ml.Count, Total: ml.Total, Locations: ml.Locations,
			Message: fmt.Sprintf("Meta description is %d characters, minimum is %d", ml.Count, cfg.MinMetaDescLength),
		})
	case ml.Value > float64(cfg.MaxMetaDescLength):
		out = append(out, seo.Issue{
			Type: seo.IssueMetaDescriptionLong, Severity: SeverityFor(ml.Value, float64(cfg.MaxMetaDescLength)),
			CurrentValue: ml.Value, TargetValue: float64(cfg.MaxMetaDescLength), UpperBound: float64(cfg.MinMetaDescLength),
			Keyword: kw, Count: ml.Count, Total: ml.Total, Locations: ml.Locations,
			Message: fmt.Sprintf("Meta description is %d characters, maximum is %d", ml.Count, cfg.MaxMetaDescLength),
		})
	}

	// meta description keyword
	checks++
	mk := b.m(analyzer.MetricMetaKeyword)
	if mk.Value == 0 {
		out = append(out, seo.Issue{
			Type: seo.IssueMetaDescriptionNoKeyword, Severity: seo.SeverityMajor,
			CurrentValue: 0, TargetValue: 1, Keyword: kw, Total: 1, Locations: mk.Locations,
			Message: fmt.Sprintf("Meta description does not contain the keyword %q", kw),
		})
	}

	// title length
	checks++
	tl := b.m(analyzer.MetricTitleLength)
	if tl.Value > float64(cfg.MaxTitleLength) {
		out = append(out, seo.Issue{
			Type: seo.IssueTitleTooLong, Severity: SeverityFor(tl.Value, float64(cfg.MaxTitleLength)),
			CurrentValue: tl.Value, TargetValue: float64(cfg.MaxTitleLength),
			Keyword: kw, Count: tl.Count, Total: tl.Total, Locations: tl.Locations,
			Message: fmt.Sprintf("Title is %d characters, maximum is %d", tl.Count, cfg.MaxTitleLength),
		})
	}

	// title keyword
	checks++
	tk := b.m(analyzer.MetricTitleKeyword)
	if tk.Value == 0 {
		out = append(out, seo.Issue{
			Type: seo.IssueTitleNoKeyword, Severity: seo.SeverityMajor,
			CurrentValue: 0, TargetValue: 1, Keyword: kw, Total: 1, Locations: tk.Locations,
			Message: fmt.Sprintf("Title does not contain the keyword %q", kw),
		})
	}

	// title uniqueness, only meaningful when the host supplied titles
	if b.existing {
		checks++
		tu := b.m(analyzer.MetricTitleUnique)
		if tu.Value == 0 {
			out = append(out, seo.Issue{
				Type: seo.IssueTitleDuplicate, Severity: seo.SeverityMajor,
				CurrentValue: 0, TargetValue: 1, Keyword: kw, Count: tu.Count, Total: tu.Total, Locations: tu.Locations,
				Message: "Title duplicates an existing title",
			})
		}
	}

	// subheading keyword usage
	checks++
	sh := b.m(analyzer.MetricSubheadingKeyword)
	if sh.Total > 0 && sh.Value > cfg.MaxSubheadingKeywordUsage {
		out = append(out, seo.Issue{
			Type: seo.IssueSubheadingKeywordOveruse, Severity: SeverityFor(sh.Value, cfg.MaxSubheadingKeywordUsage),
			CurrentValue: round2(sh.Value), TargetValue: cfg.MaxSubheadingKeywordUsage,
			Keyword: kw, Count: sh.Count, Total: sh.Total, Locations: sh.Locations,
			Message: fmt.Sprintf("%d of %d subheadings contain %q (%.2f%%), maximum is %.2f%%", sh.Count, sh.Total, kw, sh.Value, cfg.MaxSubheadingKeywordUsage),
		})
	}

	// images
	ic := b.m(analyzer.MetricImageCount)
	if cfg.RequireImages {
		checks++
		if ic.Count == 0 {
			out = append(out, seo.Issue{
				Type: seo.IssueImagesMissing, Severity: seo.SeverityMajor,
				CurrentValue: 0, TargetValue: 1, Keyword: kw,
				Locations: []seo.Location{{Kind: seo.LocationField, Field: seo.FieldBody}},
				Message:   "Content has no images",
			})
		}
	}
	if cfg.RequireKeywordInAltText && ic.Count > 0 {
		checks++
		ia := b.m(analyzer.MetricImageAlt)
		if len(ia.Failing) > 0 {
			out = append(out, seo.Issue{
				Type: seo.IssueImageAltMissingKeyword, Severity: seo.SeverityMinor,
				CurrentValue: round2(ia.Value), TargetValue: 100,
				Keyword: kw, Count: len(ia.Failing), Total: ia.Total, Locations: ia.Failing,
				Message: fmt.Sprintf("%d of %d images lack the keyword %q in alt text", len(ia.Failing), ia.Total, kw),
			})
		}
	}

	for i := range out {
		out[i].Field = out[i].Type.Field()
	}
	return out, checks
}

func (b *builder) metrics() seo.Metrics {
	d := b.m(analyzer.MetricKeywordDensity)
	p := b.m(analyzer.MetricPassiveVoice)
	l := b.m(analyzer.MetricLongSentences)
	t := b.m(analyzer.MetricTransitionWords)
	sh := b.m(analyzer.MetricSubheadingKeyword)
	ia := b.m(analyzer.MetricImageAlt)
	return seo.Metrics{
		WordCount:                   d.Total,
		SentenceCount:               len(b.in.Sentences),
		KeywordOccurrences:          d.Count,
		KeywordDensity:              round2(d.Value),
		SecondaryDensity:            roundAll(d.Secondary),
		PassiveSentences:            p.Count,
		PassivePercentage:           round2(p.Value),
		LongSentences:               l.Count,
		LongSentencePercentage:      round2(l.Value),
		TransitionSentences:         t.Count,
		TransitionPercentage:        round2(t.Value),
		MetaDescriptionLength:       b.m(analyzer.MetricMetaLength).Count,
		MetaHasKeyword:              b.m(analyzer.MetricMetaKeyword).Value == 1,
		TitleLength:                 b.m(analyzer.MetricTitleLength).Count,
		TitleHasKeyword:             b.m(analyzer.MetricTitleKeyword).Value == 1,
		TitleUnique:                 b.m(analyzer.MetricTitleUnique).Value == 1,
		SubheadingCount:             sh.Total,
		SubheadingsWithKeyword:      sh.Count,
		SubheadingKeywordPercentage: round2(sh.Value),
		ImageCount:                  b.m(analyzer.MetricImageCount).Count,
		ImagesWithKeywordAlt:        ia.Count,
	}
}

func (b *builder) warnings(prior *seo.ValidationResult, issues []seo.Issue) []string {
	out := []string{}
	if len(b.in.Sentences) == 0 {
		out = append(out, "body contains no readable sentences")
	}
	for kw, density := range b.m(analyzer.MetricKeywordDensity).Secondary {
		if density == 0 {
			out = append(out, fmt.Sprintf("secondary keyword %q does not appear", kw))
		}
	}
	out = append(out, PersistentWarnings(prior, issues)...)
	sort.Strings(out)
	return out
}

// PersistentWarnings lists the issue types that were already present in
// prior.
func PersistentWarnings(prior *seo.ValidationResult, issues []seo.Issue) []string {
	if prior == nil {
		return nil
	}
	seen := make(map[seo.IssueType]bool, len(prior.Issues))
	for _, is := range prior.Issues {
		seen[is.Type] = true
	}
	var out []string
	for _, is := range issues {
		if seen[is.Type] {
			out = append(out, fmt.Sprintf("issue %s persisted from previous pass", is.Type))
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundAll(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = round2(v)
	}
	return out
}
