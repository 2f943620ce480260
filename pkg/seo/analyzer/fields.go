package analyzer

import (
	"strings"
	"unicode/utf8"

	"content-optimizer-be/pkg/seo"
)

func fieldLocation(f seo.Field, text string) seo.Location {
	return seo.Location{Kind: seo.LocationField, Field: f, Text: text}
}

type metaLengthAnalyzer struct{}

func (metaLengthAnalyzer) Metric() Metric { return MetricMetaLength }

func (metaLengthAnalyzer) Measure(in *Input) (Measurement, error) {
	meta := strings.TrimSpace(in.Doc.MetaDescription)
	n := utf8.RuneCountInString(meta)
	return Measurement{
		Metric:    MetricMetaLength,
		Value:     float64(n),
		Count:     n,
		Total:     n,
		Locations: []seo.Location{fieldLocation(seo.FieldMetaDescription, meta)},
	}, nil
}

type metaKeywordAnalyzer struct{}

func (metaKeywordAnalyzer) Metric() Metric { return MetricMetaKeyword }

func (metaKeywordAnalyzer) Measure(in *Input) (Measurement, error) {
	kw := in.Doc.Keyword()
	if kw == "" {
		return Measurement{}, ErrNoKeyword
	}
	meta := strings.TrimSpace(in.Doc.MetaDescription)
	matches := findPhrase(meta, kw)
	return Measurement{
		Metric:    MetricMetaKeyword,
		Value:     boolValue(len(matches) > 0),
		Count:     len(matches),
		Total:     1,
		Locations: []seo.Location{fieldLocation(seo.FieldMetaDescription, meta)},
	}, nil
}

type titleLengthAnalyzer struct{}

func (titleLengthAnalyzer) Metric() Metric { return MetricTitleLength }

func (titleLengthAnalyzer) Measure(in *Input) (Measurement, error) {
	title := strings.TrimSpace(in.Doc.Title)
	n := utf8.RuneCountInString(title)
	return Measurement{
		Metric:    MetricTitleLength,
		Value:     float64(n),
		Count:     n,
		Total:     n,
		Locations: []seo.Location{fieldLocation(seo.FieldTitle, title)},
	}, nil
}

type titleKeywordAnalyzer struct{}

func (titleKeywordAnalyzer) Metric() Metric { return MetricTitleKeyword }

func (titleKeywordAnalyzer) Measure(in *Input) (Measurement, error) {
	kw := in.Doc.Keyword()
	if kw == "" {
		return Measurement{}, ErrNoKeyword
	}
	title := strings.TrimSpace(in.Doc.Title)
	matches := findPhrase(title, kw)
	return Measurement{
		Metric:    MetricTitleKeyword,
		Value:     boolValue(len(matches) > 0),
		Count:     len(matches),
		Total:     1,
		Locations: []seo.Location{fieldLocation(seo.FieldTitle, title)},
	}, nil
}

type titleUniqueAnalyzer struct{}

func (titleUniqueAnalyzer) Metric() Metric { return MetricTitleUnique }

func (titleUniqueAnalyzer) Measure(in *Input) (Measurement, error) {
	title := normalizeTitle(in.Doc.Title)
	var dupes []seo.Location
	for i, other := range in.ExistingTitles {
		if title != "" && normalizeTitle(other) == title {
			dupes = append(dupes, seo.Location{Kind: seo.LocationField, Field: seo.FieldTitle, Index: i, Text: other})
		}
	}
	return Measurement{
		Metric:    MetricTitleUnique,
		Value:     boolValue(len(dupes) == 0),
		Count:     len(dupes),
		Total:     len(in.ExistingTitles),
		Locations: dupes,
	}, nil
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

type subheadingAnalyzer struct{}

func (subheadingAnalyzer) Metric() Metric { return MetricSubheadingKeyword }

func (subheadingAnalyzer) Measure(in *Input) (Measurement, error) {
	kw := in.Doc.Keyword()
	if kw == "" {
		return Measurement{}, ErrNoKeyword
	}
	subs := in.Outline.Subheadings()
	var locs []seo.Location
	for i, h := range subs {
		if ContainsPhrase(h.Text, kw) {
			locs = append(locs, seo.Location{
				Kind:   seo.LocationHeading,
				Field:  seo.FieldHeadings,
				Offset: h.Offset,
				Index:  i,
				Text:   h.Text,
			})
		}
	}
	return Measurement{
		Metric:    MetricSubheadingKeyword,
		Value:     percentage(len(locs), len(subs)),
		Count:     len(locs),
		Total:     len(subs),
		Locations: locs,
	}, nil
}

type imageCountAnalyzer struct{}

func (imageCountAnalyzer) Metric() Metric { return MetricImageCount }

func (imageCountAnalyzer) Measure(in *Input) (Measurement, error) {
	n := len(in.Outline.Images)
	return Measurement{
		Metric: MetricImageCount,
		Value:  float64(n),
		Count:  n,
		Total:  n,
	}, nil
}

type imageAltAnalyzer struct{}

func (imageAltAnalyzer) Metric() Metric { return MetricImageAlt }

func (imageAltAnalyzer) Measure(in *Input) (Measurement, error) {
	kw := in.Doc.Keyword()
	if kw == "" {
		return Measurement{}, ErrNoKeyword
	}
	imgs := in.Outline.Images
	var with int
	var missing []seo.Location
	for i, img := range imgs {
		if ContainsPhrase(img.Alt, kw) {
			with++
			continue
		}
		missing = append(missing, seo.Location{
			Kind:    seo.LocationImage,
			Field:   seo.FieldImages,
			Offset:  img.Offset,
			Index:   i,
			Text:    img.Src,
			Context: img.Alt,
		})
	}
	value := 100.0
	if len(imgs) > 0 {
		value = percentage(with, len(imgs))
	}
	return Measurement{
		Metric:    MetricImageAlt,
		Value:     value,
		Count:     with,
		Total:     len(imgs),
		Locations: missing,
		Failing:   missing,
	}, nil
}
