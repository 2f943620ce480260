package dto

import (
	"fmt"

	"content-optimizer-be/pkg/lexical"
	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/corrector"
	"content-optimizer-be/pkg/seo/prompt"
	"content-optimizer-be/pkg/seo/validation"
)

type DocumentRequest struct {
	Title             string   `json:"title"`
	Body              string   `json:"body"`
	MetaDescription   string   `json:"meta_description"`
	FocusKeyword      string   `json:"focus_keyword" validate:"required"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	// BodyFormat is "html" or "lexical". Empty detects editor state.
	BodyFormat string `json:"body_format" validate:"omitempty,oneof=html lexical"`
}

const BodyFormatLexical = "lexical"

// ToDocument builds the optimizer document, rendering editor state
// bodies to HTML.
func (r DocumentRequest) ToDocument() (seo.Document, error) {
	body := r.Body
	if r.BodyFormat == BodyFormatLexical || (r.BodyFormat == "" && lexical.IsEditorState(body)) {
		rendered, err := lexical.Render(body)
		if err != nil {
			return seo.Document{}, fmt.Errorf("render body: %w", err)
		}
		body = rendered
	}
	return seo.Document{
		Title:             r.Title,
		Body:              body,
		MetaDescription:   r.MetaDescription,
		FocusKeyword:      r.FocusKeyword,
		SecondaryKeywords: r.SecondaryKeywords,
	}, nil
}

type OptimizeRequest struct {
	Document       DocumentRequest `json:"document" validate:"required"`
	ExistingTitles []string        `json:"existing_titles"`
	SessionId      string          `json:"session_id" validate:"omitempty,max=128"`
}

// OptimizeRequestedMessage is the payload of an OPTIMIZATION_REQUESTED
// event consumed from the bus.
type OptimizeRequestedMessage struct {
	SessionId      string          `json:"session_id"`
	Document       DocumentRequest `json:"document"`
	ExistingTitles []string        `json:"existing_titles"`
}

type OptimizeAcceptedResponse struct {
	SessionId string `json:"session_id"`
	Status    string `json:"status"`
}

type ValidateRequest struct {
	Document       DocumentRequest `json:"document" validate:"required"`
	ExistingTitles []string        `json:"existing_titles"`
	AutoCorrect    bool            `json:"auto_correct"`
}

type ValidateResponse struct {
	Validation *seo.ValidationResult        `json:"validation"`
	Correction *validation.CorrectionReport `json:"correction,omitempty"`
}

type OverrideRequest struct {
	Field          string `json:"field" validate:"required"`
	Reason         string `json:"reason" validate:"required"`
	SkipValidation bool   `json:"skip_validation"`
}

type DeleteOverrideRequest struct {
	Field  string `json:"field" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

type OverridesResponse struct {
	Overrides []prompt.OverrideEntry `json:"overrides"`
}

type CacheStatsResponse struct {
	Cache         validation.Stats `json:"cache"`
	DetectorRuns  int64            `json:"detector_runs"`
	StoredReports int              `json:"stored_reports"`
}

type ConfigResponse struct {
	Config seo.Config `json:"config"`
	Hash   string     `json:"hash"`
}

type CorrectionHistoryResponse struct {
	Providers []string                 `json:"providers"`
	Entries   []corrector.HistoryEntry `json:"entries"`
}
