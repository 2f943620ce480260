package seo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidConfig = errors.New("invalid optimizer config")

var validate = validator.New()

// Config is the flat option set consumed by the optimizer and every
// component below it. Percentages are expressed in 0..100.
type Config struct {
	MaxIterations           int     `json:"max_iterations" validate:"gte=1"`
	TargetComplianceScore   float64 `json:"target_compliance_score" validate:"gt=0,lte=100"`
	EnableEarlyTermination  bool    `json:"enable_early_termination"`
	StagnationThreshold     int     `json:"stagnation_threshold" validate:"gte=1"`
	MinImprovementThreshold float64 `json:"min_improvement_threshold" validate:"gte=0"`
	AutoCorrection          bool    `json:"auto_correction"`
	MaxRetryAttempts        int     `json:"max_retry_attempts" validate:"gte=1"`

	MinMetaDescLength         int     `json:"min_meta_desc_length" validate:"gte=1"`
	MaxMetaDescLength         int     `json:"max_meta_desc_length" validate:"gtefield=MinMetaDescLength"`
	MinKeywordDensity         float64 `json:"min_keyword_density" validate:"gte=0"`
	MaxKeywordDensity         float64 `json:"max_keyword_density" validate:"gtfield=MinKeywordDensity,lte=100"`
	MaxPassiveVoice           float64 `json:"max_passive_voice" validate:"gte=0,lte=100"`
	MaxLongSentences          float64 `json:"max_long_sentences" validate:"gte=0,lte=100"`
	LongSentenceWords         int     `json:"long_sentence_words" validate:"gte=1"`
	MinTransitionWords        float64 `json:"min_transition_words" validate:"gte=0,lte=100"`
	MaxTitleLength            int     `json:"max_title_length" validate:"gte=1"`
	MaxSubheadingKeywordUsage float64 `json:"max_subheading_keyword_usage" validate:"gte=0,lte=100"`
	RequireImages             bool    `json:"require_images"`
	RequireKeywordInAltText   bool    `json:"require_keyword_in_alt_text"`

	// Structure preservation and session budgets.
	SnapshotLimit      int           `json:"snapshot_limit" validate:"gte=2"`
	ParagraphTolerance float64       `json:"paragraph_tolerance" validate:"gte=0,lte=1"`
	PassTimeout        time.Duration `json:"pass_timeout" validate:"gte=0"`
	SessionTimeout     time.Duration `json:"session_timeout" validate:"gte=0"`
}

// DefaultConfig returns the stock option set.
func DefaultConfig() Config {
	return Config{
		MaxIterations:           5,
		TargetComplianceScore:   90,
		EnableEarlyTermination:  true,
		StagnationThreshold:     2,
		MinImprovementThreshold: 1,
		AutoCorrection:          true,
		MaxRetryAttempts:        3,

		MinMetaDescLength:         120,
		MaxMetaDescLength:         156,
		MinKeywordDensity:         0.5,
		MaxKeywordDensity:         2.5,
		MaxPassiveVoice:           10,
		MaxLongSentences:          25,
		LongSentenceWords:         20,
		MinTransitionWords:        30,
		MaxTitleLength:            60,
		MaxSubheadingKeywordUsage: 75,
		RequireImages:             true,
		RequireKeywordInAltText:   true,

		SnapshotLimit:      10,
		ParagraphTolerance: 0.2,
	}
}

// Validate rejects invalid configuration. Values are never clamped.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// metricConfig is the subset of Config that influences detection.
type metricConfig struct {
	MinMetaDescLength         int
	MaxMetaDescLength         int
	MinKeywordDensity         float64
	MaxKeywordDensity         float64
	MaxPassiveVoice           float64
	MaxLongSentences          float64
	LongSentenceWords         int
	MinTransitionWords        float64
	MaxTitleLength            int
	MaxSubheadingKeywordUsage float64
	RequireImages             bool
	RequireKeywordInAltText   bool
}

// Hash is a stable digest of the detection-relevant options. Loop
// options such as MaxIterations do not change it.
func (c Config) Hash() string {
	b, _ := json.Marshal(metricConfig{
		MinMetaDescLength:         c.MinMetaDescLength,
		MaxMetaDescLength:         c.MaxMetaDescLength,
		MinKeywordDensity:         c.MinKeywordDensity,
		MaxKeywordDensity:         c.MaxKeywordDensity,
		MaxPassiveVoice:           c.MaxPassiveVoice,
		MaxLongSentences:          c.MaxLongSentences,
		LongSentenceWords:         c.LongSentenceWords,
		MinTransitionWords:        c.MinTransitionWords,
		MaxTitleLength:            c.MaxTitleLength,
		MaxSubheadingKeywordUsage: c.MaxSubheadingKeywordUsage,
		RequireImages:             c.RequireImages,
		RequireKeywordInAltText:   c.RequireKeywordInAltText,
	})
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

// ConfigPatch carries a partial runtime update. Nil fields are left
// unchanged by Merge.
type ConfigPatch struct {
	MaxIterations             *int           `json:"max_iterations,omitempty"`
	TargetComplianceScore     *float64       `json:"target_compliance_score,omitempty"`
	EnableEarlyTermination    *bool          `json:"enable_early_termination,omitempty"`
	StagnationThreshold       *int           `json:"stagnation_threshold,omitempty"`
	MinImprovementThreshold   *float64       `json:"min_improvement_threshold,omitempty"`
	AutoCorrection            *bool          `json:"auto_correction,omitempty"`
	MaxRetryAttempts          *int           `json:"max_retry_attempts,omitempty"`
	MinMetaDescLength         *int           `json:"min_meta_desc_length,omitempty"`
	MaxMetaDescLength         *int           `json:"max_meta_desc_length,omitempty"`
	MinKeywordDensity         *float64       `json:"min_keyword_density,omitempty"`
	MaxKeywordDensity         *float64       `json:"max_keyword_density,omitempty"`
	MaxPassiveVoice           *float64       `json:"max_passive_voice,omitempty"`
	MaxLongSentences          *float64       `json:"max_long_sentences,omitempty"`
	LongSentenceWords         *int           `json:"long_sentence_words,omitempty"`
	MinTransitionWords        *float64       `json:"min_transition_words,omitempty"`
	MaxTitleLength            *int           `json:"max_title_length,omitempty"`
	MaxSubheadingKeywordUsage *float64       `json:"max_subheading_keyword_usage,omitempty"`
	RequireImages             *bool          `json:"require_images,omitempty"`
	RequireKeywordInAltText   *bool          `json:"require_keyword_in_alt_text,omitempty"`
	SnapshotLimit             *int           `json:"snapshot_limit,omitempty"`
	ParagraphTolerance        *float64       `json:"paragraph_tolerance,omitempty"`
	PassTimeout               *time.Duration `json:"pass_timeout,omitempty"`
	SessionTimeout            *time.Duration `json:"session_timeout,omitempty"`
}

// Merge applies p on top of c and returns the result. The result is
// not validated.
func (c Config) Merge(p ConfigPatch) Config {
	setInt(&c.MaxIterations, p.MaxIterations)
	setFloat(&c.TargetComplianceScore, p.TargetComplianceScore)
	setBool(&c.EnableEarlyTermination, p.EnableEarlyTermination)
	setInt(&c.StagnationThreshold, p.StagnationThreshold)
	setFloat(&c.MinImprovementThreshold, p.MinImprovementThreshold)
	setBool(&c.AutoCorrection, p.AutoCorrection)
	setInt(&c.MaxRetryAttempts, p.MaxRetryAttempts)
	setInt(&c.MinMetaDescLength, p.MinMetaDescLength)
	setInt(&c.MaxMetaDescLength, p.MaxMetaDescLength)
	setFloat(&c.MinKeywordDensity, p.MinKeywordDensity)
	setFloat(&c.MaxKeywordDensity, p.MaxKeywordDensity)
	setFloat(&c.MaxPassiveVoice, p.MaxPassiveVoice)
	setFloat(&c.MaxLongSentences, p.MaxLongSentences)
	setInt(&c.LongSentenceWords, p.LongSentenceWords)
	setFloat(&c.MinTransitionWords, p.MinTransitionWords)
	setInt(&c.MaxTitleLength, p.MaxTitleLength)
	setFloat(&c.MaxSubheadingKeywordUsage, p.MaxSubheadingKeywordUsage)
	setBool(&c.RequireImages, p.RequireImages)
	setBool(&c.RequireKeywordInAltText, p.RequireKeywordInAltText)
	setInt(&c.SnapshotLimit, p.SnapshotLimit)
	setFloat(&c.ParagraphTolerance, p.ParagraphTolerance)
	if p.PassTimeout != nil {
		c.PassTimeout = *p.PassTimeout
	}
	if p.SessionTimeout != nil {
		c.SessionTimeout = *p.SessionTimeout
	}
	return c
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
