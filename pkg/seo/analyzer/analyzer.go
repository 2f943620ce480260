// Package analyzer holds the independent metric calculators. Each
// analyzer reads a parsed document and returns one quantified
// Measurement; analyzers share no mutable state.
package analyzer

import (
	"errors"
	"fmt"

	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/markup"
)

var (
	ErrUnknownMetric = errors.New("unknown metric")
	ErrNoKeyword     = errors.New("focus keyword is required")
)

// Metric names a measured quantity.
type Metric string

const (
	MetricKeywordDensity    Metric = "keyword_density"
	MetricPassiveVoice      Metric = "passive_voice"
	MetricLongSentences     Metric = "long_sentences"
	MetricTransitionWords   Metric = "transition_words"
	MetricMetaLength        Metric = "meta_description_length"
	MetricMetaKeyword       Metric = "meta_description_keyword"
	MetricTitleLength       Metric = "title_length"
	MetricTitleKeyword      Metric = "title_keyword"
	MetricTitleUnique       Metric = "title_unique"
	MetricSubheadingKeyword Metric = "subheading_keyword"
	MetricImageCount        Metric = "image_count"
	MetricImageAlt          Metric = "image_alt_keyword"
)

// Input is everything an analyzer may read. It is shared read-only
// between analyzers of one detection run.
type Input struct {
	Doc            seo.Document
	Outline        *markup.Outline
	Sentences      []Sentence
	Config         seo.Config
	ExistingTitles []string
}

// NewInput parses doc once for all analyzers.
func NewInput(doc seo.Document, cfg seo.Config, existingTitles []string) (*Input, error) {
	outline, err := markup.Parse(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	return &Input{
		Doc:            doc,
		Outline:        outline,
		Sentences:      Sentences(outline.Prose),
		Config:         cfg,
		ExistingTitles: existingTitles,
	}, nil
}

// Measurement is the output of a single analyzer. Presence metrics use
// Value 1 for present and 0 for absent.
type Measurement struct {
	Metric    Metric
	Value     float64
	Count     int
	Total     int
	Locations []seo.Location
	// Failing lists the locations that violate the metric, where they
	// differ from Locations (e.g. sentences lacking transitions).
	Failing []seo.Location
	// Secondary holds secondary keyword densities for the density metric.
	Secondary map[string]float64
}

// Analyzer computes one Measurement.
type Analyzer interface {
	Metric() Metric
	Measure(in *Input) (Measurement, error)
}

var registry = []Analyzer{
	densityAnalyzer{},
	passiveAnalyzer{},
	longSentenceAnalyzer{},
	transitionAnalyzer{},
	metaLengthAnalyzer{},
	metaKeywordAnalyzer{},
	titleLengthAnalyzer{},
	titleKeywordAnalyzer{},
	titleUniqueAnalyzer{},
	subheadingAnalyzer{},
	imageCountAnalyzer{},
	imageAltAnalyzer{},
}

// All returns every analyzer in a fixed order.
func All() []Analyzer {
	return append([]Analyzer(nil), registry...)
}

// ForMetric returns the analyzer for m.
func ForMetric(m Metric) (Analyzer, error) {
	for _, a := range registry {
		if a.Metric() == m {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, m)
}

// MetricFor maps an issue type to the metric whose analyzer verifies
// its correction.
func MetricFor(t seo.IssueType) Metric {
	switch t {
	case seo.IssueKeywordDensityLow, seo.IssueKeywordDensityHigh:
		return MetricKeywordDensity
	case seo.IssuePassiveVoiceHigh:
		return MetricPassiveVoice
	case seo.IssueLongSentences:
		return MetricLongSentences
	case seo.IssueTransitionWordsLow:
		return MetricTransitionWords
	case seo.IssueMetaDescriptionShort, seo.IssueMetaDescriptionLong:
		return MetricMetaLength
	case seo.IssueMetaDescriptionNoKeyword:
		return MetricMetaKeyword
	case seo.IssueTitleTooLong:
		return MetricTitleLength
	case seo.IssueTitleNoKeyword:
		return MetricTitleKeyword
	case seo.IssueTitleDuplicate:
		return MetricTitleUnique
	case seo.IssueSubheadingKeywordOveruse:
		return MetricSubheadingKeyword
	case seo.IssueImagesMissing:
		return MetricImageCount
	case seo.IssueImageAltMissingKeyword:
		return MetricImageAlt
	}
	return ""
}

// Evaluate parses doc and runs the single analyzer for m.
func Evaluate(m Metric, doc seo.Document, cfg seo.Config, existingTitles []string) (Measurement, error) {
	a, err := ForMetric(m)
	if err != nil {
		return Measurement{}, err
	}
	in, err := NewInput(doc, cfg, existingTitles)
	if err != nil {
		return Measurement{}, err
	}
	return a.Measure(in)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
