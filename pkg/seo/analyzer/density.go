package analyzer

import (
	"content-optimizer-be/pkg/seo"
)

const contextRadius = 40

// densityAnalyzer measures focus keyword density over title and body.
type densityAnalyzer struct{}

func (densityAnalyzer) Metric() Metric { return MetricKeywordDensity }

func (densityAnalyzer) Measure(in *Input) (Measurement, error) {
	kw := in.Doc.Keyword()
	if kw == "" {
		return Measurement{}, ErrNoKeyword
	}

	title := in.Doc.Title
	body := in.Outline.Text
	words := CountWords(title) + CountWords(body)

	var locs []seo.Location
	for _, m := range findPhrase(title, kw) {
		locs = append(locs, seo.Location{
			Kind:    seo.LocationOffset,
			Field:   seo.FieldTitle,
			Offset:  m.Offset,
			Text:    title[m.Offset:m.End],
			Context: title,
		})
	}
	for _, m := range findPhrase(body, kw) {
		locs = append(locs, seo.Location{
			Kind:    seo.LocationOffset,
			Field:   seo.FieldBody,
			Offset:  m.Offset,
			Text:    body[m.Offset:m.End],
			Context: surrounding(body, m.Offset, m.End, contextRadius),
		})
	}

	secondary := make(map[string]float64, len(in.Doc.SecondaryKeywords))
	for _, sk := range in.Doc.SecondaryKeywords {
		if sk == "" {
			continue
		}
		n := len(findPhrase(title, sk)) + len(findPhrase(body, sk))
		secondary[sk] = percentage(n, words)
	}

	// With no occurrences, the opening of the body is where a keyword
	// belongs; it is the insertion point for a low-density correction.
	var failing []seo.Location
	if len(locs) == 0 {
		failing = append(failing, insertionPoint(in))
	}

	return Measurement{
		Metric:    MetricKeywordDensity,
		Value:     percentage(len(locs), words),
		Count:     len(locs),
		Total:     words,
		Locations: locs,
		Failing:   failing,
		Secondary: secondary,
	}, nil
}

func insertionPoint(in *Input) seo.Location {
	if len(in.Sentences) > 0 {
		s := in.Sentences[0]
		return seo.Location{Kind: seo.LocationSentence, Field: seo.FieldBody, Offset: s.Offset, Index: 0, Text: s.Text}
	}
	return seo.Location{Kind: seo.LocationField, Field: seo.FieldBody, Text: in.Outline.Prose}
}
