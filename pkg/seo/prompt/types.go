package prompt

import (
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/analyzer"
)

// Action is the direction a correction must move a metric.
type Action string

const (
	ActionIncrease Action = "increase"
	ActionReduce   Action = "reduce"
)

// QuantitativeTarget says how far, and in what unit count, a metric has
// to move.
type QuantitativeTarget struct {
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Difference float64 `json:"difference"`
	Count      int     `json:"count"`
	Unit       string  `json:"unit"`
	Action     Action  `json:"action"`
}

// ExpectedChanges names the metric the corrector re-measures to verify
// the correction.
type ExpectedChanges struct {
	Metric       analyzer.Metric `json:"metric"`
	CurrentValue float64         `json:"current_value"`
	TargetValue  float64         `json:"target_value"`
	// Band, when set, is the acceptable [low, high] range of the metric.
	Band *[2]float64 `json:"band,omitempty"`
}

// CorrectionPrompt is a self-contained instruction derived from exactly
// one issue.
type CorrectionPrompt struct {
	IssueType          seo.IssueType      `json:"issue_type"`
	Severity           seo.Severity       `json:"severity"`
	Field              seo.Field          `json:"field"`
	Keyword            string             `json:"keyword,omitempty"`
	PromptText         string             `json:"prompt_text"`
	QuantitativeTarget QuantitativeTarget `json:"quantitative_target"`
	TargetLocations    []seo.Location     `json:"target_locations"`
	ExpectedChanges    ExpectedChanges    `json:"expected_changes"`
	Priority           int                `json:"priority"`
}
