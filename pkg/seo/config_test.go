package seo_test

import (
	"testing"

	"content-optimizer-be/pkg/seo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, seo.DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *seo.Config)
	}{
		{"zero iterations", func(c *seo.Config) { c.MaxIterations = 0 }},
		{"target above 100", func(c *seo.Config) { c.TargetComplianceScore = 101 }},
		{"inverted meta band", func(c *seo.Config) { c.MaxMetaDescLength = c.MinMetaDescLength - 1 }},
		{"inverted density band", func(c *seo.Config) { c.MaxKeywordDensity = c.MinKeywordDensity }},
		{"negative passive limit", func(c *seo.Config) { c.MaxPassiveVoice = -1 }},
		{"zero retries", func(c *seo.Config) { c.MaxRetryAttempts = 0 }},
		{"tiny snapshot limit", func(c *seo.Config) { c.SnapshotLimit = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := seo.DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), seo.ErrInvalidConfig)
		})
	}
}

func TestConfigHash(t *testing.T) {
	base := seo.DefaultConfig()

	loop := base
	loop.MaxIterations = 9
	loop.AutoCorrection = false
	assert.Equal(t, base.Hash(), loop.Hash(), "loop options do not affect detection")

	metric := base
	metric.MaxTitleLength = 70
	assert.NotEqual(t, base.Hash(), metric.Hash())
}

func TestConfigMerge(t *testing.T) {
	iterations := 8
	auto := false
	merged := seo.DefaultConfig().Merge(seo.ConfigPatch{MaxIterations: &iterations, AutoCorrection: &auto})

	assert.Equal(t, 8, merged.MaxIterations)
	assert.False(t, merged.AutoCorrection)
	assert.Equal(t, seo.DefaultConfig().MinMetaDescLength, merged.MinMetaDescLength)
}

func TestDocumentCloneAndEqual(t *testing.T) {
	d := seo.Document{Title: "T", FocusKeyword: "k", SecondaryKeywords: []string{"a"}}
	c := d.Clone()
	require.True(t, c.Equal(d))

	c.SecondaryKeywords[0] = "b"
	assert.Equal(t, "a", d.SecondaryKeywords[0])
	assert.False(t, c.Equal(d))
	assert.Equal(t, "k", seo.Document{FocusKeyword: "  k "}.Keyword())
}

func TestIssueTypeField(t *testing.T) {
	assert.Equal(t, seo.FieldMetaDescription, seo.IssueMetaDescriptionNoKeyword.Field())
	assert.Equal(t, seo.FieldTitle, seo.IssueTitleDuplicate.Field())
	assert.Equal(t, seo.FieldHeadings, seo.IssueSubheadingKeywordOveruse.Field())
	assert.Equal(t, seo.FieldImages, seo.IssueImagesMissing.Field())
	assert.Equal(t, seo.FieldBody, seo.IssuePassiveVoiceHigh.Field())
}
