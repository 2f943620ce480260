package analyzer_test

import (
	"testing"

	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/analyzer"
	"content-optimizer-be/pkg/seo/seotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassiveVoice(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected float64
		count    int
	}{
		{
			name:     "active only",
			body:     "<p>She wrote the letter.</p>",
			expected: 0,
		},
		{
			name:     "one of three passive",
			body:     "<p>The cake was baked by Anna. She wrote the letter. They built the house.</p>",
			expected: 33.33,
			count:    1,
		},
		{
			name:     "all passive",
			body:     "<p>The cake was baked by Anna.</p>",
			expected: 100,
			count:    1,
		},
		{
			name:     "adverb between be-form and participle",
			body:     "<p>The door was quickly closed.</p>",
			expected: 100,
			count:    1,
		},
		{
			name:     "irregular participle",
			body:     "<p>The letter was written yesterday.</p>",
			expected: 100,
			count:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := seo.Document{Body: tt.body, FocusKeyword: "cake"}
			m, err := analyzer.Evaluate(analyzer.MetricPassiveVoice, doc, seo.DefaultConfig(), nil)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, m.Value, 0.01)
			assert.Equal(t, tt.count, m.Count)
			assert.Len(t, m.Locations, tt.count)
		})
	}
}

func TestPassiveLocationPointsAtSentence(t *testing.T) {
	doc := seo.Document{Body: "<p>She wrote the letter. The cake was baked by Anna.</p>", FocusKeyword: "cake"}
	m, err := analyzer.Evaluate(analyzer.MetricPassiveVoice, doc, seo.DefaultConfig(), nil)
	require.NoError(t, err)
	require.Len(t, m.Locations, 1)
	assert.Equal(t, seo.LocationSentence, m.Locations[0].Kind)
	assert.Equal(t, 1, m.Locations[0].Index)
	assert.Equal(t, "The cake was baked by Anna.", m.Locations[0].Text)
}

func TestCompliantDocumentMeasurements(t *testing.T) {
	doc := seotest.Compliant()
	cfg := seo.DefaultConfig()

	tests := []struct {
		metric analyzer.Metric
		value  float64
		count  int
		total  int
	}{
		{analyzer.MetricKeywordDensity, 1.14, 1, 88},
		{analyzer.MetricPassiveVoice, 0, 0, 10},
		{analyzer.MetricLongSentences, 0, 0, 10},
		{analyzer.MetricTransitionWords, 60, 6, 10},
		{analyzer.MetricMetaLength, 135, 135, 0},
		{analyzer.MetricTitleLength, 29, 29, 0},
		{analyzer.MetricImageCount, 1, 1, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			m, err := analyzer.Evaluate(tt.metric, doc, cfg, nil)
			require.NoError(t, err)
			assert.InDelta(t, tt.value, m.Value, 0.01)
			assert.Equal(t, tt.count, m.Count)
			if tt.total > 0 {
				assert.Equal(t, tt.total, m.Total)
			}
		})
	}
}

func TestKeywordDensity(t *testing.T) {
	t.Run("counts title and body occurrences", func(t *testing.T) {
		doc := seo.Document{Title: "SEO SEO SEO SEO SEO Guide", Body: "<p>A short guide.</p>", FocusKeyword: "SEO"}
		m, err := analyzer.Evaluate(analyzer.MetricKeywordDensity, doc, seo.DefaultConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, 5, m.Count)
		assert.Equal(t, 9, m.Total)
		assert.InDelta(t, 55.56, m.Value, 0.01)
		for _, loc := range m.Locations {
			assert.Equal(t, seo.FieldTitle, loc.Field)
			assert.Equal(t, "SEO", loc.Text)
		}
	})

	t.Run("matches whole words case-insensitively", func(t *testing.T) {
		doc := seo.Document{Body: "<p>Espresso is strong. An espressos list is not a match.</p>", FocusKeyword: "espresso"}
		m, err := analyzer.Evaluate(analyzer.MetricKeywordDensity, doc, seo.DefaultConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, m.Count)
	})

	t.Run("absent keyword yields an insertion point", func(t *testing.T) {
		doc := seo.Document{Body: "<p>Nothing relevant here. Still nothing.</p>", FocusKeyword: "espresso"}
		m, err := analyzer.Evaluate(analyzer.MetricKeywordDensity, doc, seo.DefaultConfig(), nil)
		require.NoError(t, err)
		assert.Zero(t, m.Value)
		require.Len(t, m.Failing, 1)
		assert.Equal(t, seo.LocationSentence, m.Failing[0].Kind)
		assert.Equal(t, "Nothing relevant here.", m.Failing[0].Text)
	})

	t.Run("secondary keywords", func(t *testing.T) {
		doc := seotest.Compliant()
		doc.SecondaryKeywords = []string{"beans", "latte"}
		m, err := analyzer.Evaluate(analyzer.MetricKeywordDensity, doc, seo.DefaultConfig(), nil)
		require.NoError(t, err)
		assert.Greater(t, m.Secondary["beans"], 0.0)
		assert.Zero(t, m.Secondary["latte"])
	})

	t.Run("missing keyword fails", func(t *testing.T) {
		doc := seo.Document{Body: "<p>Text.</p>"}
		_, err := analyzer.Evaluate(analyzer.MetricKeywordDensity, doc, seo.DefaultConfig(), nil)
		assert.ErrorIs(t, err, analyzer.ErrNoKeyword)
	})
}

func TestLongSentences(t *testing.T) {
	long := "<p>This sentence keeps going on and on with many small words so that it easily passes the configured limit of twenty words today. Short one.</p>"
	m, err := analyzer.Evaluate(analyzer.MetricLongSentences, seo.Document{Body: long, FocusKeyword: "x"}, seo.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count)
	assert.Equal(t, 2, m.Total)
	assert.InDelta(t, 50, m.Value, 0.01)
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name     string
		prose    string
		expected []string
	}{
		{
			name:     "terminal punctuation",
			prose:    "One two. Three four! Five six?",
			expected: []string{"One two.", "Three four!", "Five six?"},
		},
		{
			name:     "line breaks split blocks",
			prose:    "First block\nSecond block.",
			expected: []string{"First block", "Second block."},
		},
		{
			name:     "empty",
			prose:    "   ",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for i, s := range analyzer.Sentences(tt.prose) {
				assert.Equal(t, i, s.Index)
				got = append(got, s.Text)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSentenceOffsets(t *testing.T) {
	tests := []struct {
		name  string
		prose string
	}{
		{"ascii", "One two. Three four."},
		{"multibyte", "Café crème. Déjà vu again."},
		{"invalid bytes", "Bad \xff\xfe byte. Next one here."},
		{"leading space", "  Spaced out.\n  Another line."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sentences := analyzer.Sentences(tt.prose)
			require.NotEmpty(t, sentences)
			for _, s := range sentences {
				require.LessOrEqual(t, s.Offset+len(s.Text), len(tt.prose))
				assert.Equal(t, s.Text, tt.prose[s.Offset:s.Offset+len(s.Text)])
			}
		})
	}
}

func TestContainsPhrase(t *testing.T) {
	assert.True(t, analyzer.ContainsPhrase("As a result, it works.", "as a result"))
	assert.True(t, analyzer.ContainsPhrase("Cold Brew Coffee", "cold brew"))
	assert.False(t, analyzer.ContainsPhrase("Sofa shopping", "so"))
}

func TestTitleUnique(t *testing.T) {
	doc := seotest.Compliant()
	m, err := analyzer.Evaluate(analyzer.MetricTitleUnique, doc, seo.DefaultConfig(), []string{"  espresso basics for BEGINNERS "})
	require.NoError(t, err)
	assert.Zero(t, m.Value)

	m, err = analyzer.Evaluate(analyzer.MetricTitleUnique, doc, seo.DefaultConfig(), []string{"Latte Art"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Value)
}

func TestForMetricUnknown(t *testing.T) {
	_, err := analyzer.ForMetric("nope")
	assert.ErrorIs(t, err, analyzer.ErrUnknownMetric)
}

func TestMetricForCoversEveryIssueType(t *testing.T) {
	types := []seo.IssueType{
		seo.IssueKeywordDensityLow, seo.IssueKeywordDensityHigh, seo.IssuePassiveVoiceHigh,
		seo.IssueLongSentences, seo.IssueTransitionWordsLow, seo.IssueMetaDescriptionShort,
		seo.IssueMetaDescriptionLong, seo.IssueMetaDescriptionNoKeyword, seo.IssueTitleTooLong,
		seo.IssueTitleNoKeyword, seo.IssueTitleDuplicate, seo.IssueSubheadingKeywordOveruse,
		seo.IssueImagesMissing, seo.IssueImageAltMissingKeyword,
	}
	for _, it := range types {
		_, err := analyzer.ForMetric(analyzer.MetricFor(it))
		assert.NoError(t, err, it)
	}
}
