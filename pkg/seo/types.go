package seo

import "strings"

// Document is the unit of optimization. Each pass produces a new value;
// use Clone before mutating a document that is referenced elsewhere.
type Document struct {
	Title             string   `json:"title"`
	Body              string   `json:"body"` // HTML
	MetaDescription   string   `json:"meta_description"`
	FocusKeyword      string   `json:"focus_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords,omitempty"`
}

// Clone returns a deep copy that shares no slices with d.
func (d Document) Clone() Document {
	out := d
	if d.SecondaryKeywords != nil {
		out.SecondaryKeywords = append([]string(nil), d.SecondaryKeywords...)
	}
	return out
}

// Equal reports whether two documents carry identical content.
func (d Document) Equal(other Document) bool {
	if d.Title != other.Title || d.Body != other.Body ||
		d.MetaDescription != other.MetaDescription || d.FocusKeyword != other.FocusKeyword {
		return false
	}
	if len(d.SecondaryKeywords) != len(other.SecondaryKeywords) {
		return false
	}
	for i := range d.SecondaryKeywords {
		if d.SecondaryKeywords[i] != other.SecondaryKeywords[i] {
			return false
		}
	}
	return true
}

// Keyword returns the trimmed focus keyword.
func (d Document) Keyword() string {
	return strings.TrimSpace(d.FocusKeyword)
}

// Field identifies the part of a document an issue or override refers to.
type Field string

const (
	FieldTitle           Field = "title"
	FieldBody            Field = "body"
	FieldMetaDescription Field = "meta_description"
	FieldHeadings        Field = "headings"
	FieldImages          Field = "images"
)

// Severity ranks how far a metric deviates from its configured band.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityMajor    Severity = "major"
	SeverityMinor    Severity = "minor"
)

// Weight is the penalty weight used by the compliance score.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	default:
		return 1
	}
}

// Rank orders severities, higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityMajor:
		return 2
	case SeverityMinor:
		return 1
	}
	return 0
}

// IssueType names a single kind of metric violation.
type IssueType string

const (
	IssueKeywordDensityLow        IssueType = "keyword_density_low"
	IssueKeywordDensityHigh       IssueType = "keyword_density_high"
	IssuePassiveVoiceHigh         IssueType = "passive_voice_high"
	IssueLongSentences            IssueType = "long_sentences"
	IssueTransitionWordsLow       IssueType = "transition_words_low"
	IssueMetaDescriptionShort     IssueType = "meta_description_short"
	IssueMetaDescriptionLong      IssueType = "meta_description_long"
	IssueMetaDescriptionNoKeyword IssueType = "meta_description_missing_keyword"
	IssueTitleTooLong             IssueType = "title_too_long"
	IssueTitleNoKeyword           IssueType = "title_missing_keyword"
	IssueTitleDuplicate           IssueType = "title_not_unique"
	IssueSubheadingKeywordOveruse IssueType = "subheading_keyword_overuse"
	IssueImagesMissing            IssueType = "images_missing"
	IssueImageAltMissingKeyword   IssueType = "image_alt_missing_keyword"
)

// Field returns the document field an issue type is about.
func (t IssueType) Field() Field {
	switch t {
	case IssueMetaDescriptionShort, IssueMetaDescriptionLong, IssueMetaDescriptionNoKeyword:
		return FieldMetaDescription
	case IssueTitleTooLong, IssueTitleNoKeyword, IssueTitleDuplicate:
		return FieldTitle
	case IssueSubheadingKeywordOveruse:
		return FieldHeadings
	case IssueImagesMissing, IssueImageAltMissingKeyword:
		return FieldImages
	default:
		return FieldBody
	}
}

// RequiresLocations reports whether the correction for this issue type
// needs positional targeting. Detecting such an issue without locations
// is a detector defect.
func (t IssueType) RequiresLocations() bool {
	switch t {
	case IssueKeywordDensityLow, IssueKeywordDensityHigh,
		IssuePassiveVoiceHigh, IssueLongSentences,
		IssueMetaDescriptionShort, IssueMetaDescriptionLong,
		IssueTitleTooLong, IssueSubheadingKeywordOveruse,
		IssueImageAltMissingKeyword:
		return true
	}
	return false
}

// LocationKind tags which fields of a Location are meaningful.
type LocationKind string

const (
	LocationOffset   LocationKind = "offset"   // Offset into Field text
	LocationSentence LocationKind = "sentence" // Index into the sentence list
	LocationHeading  LocationKind = "heading"  // Index into the subheading list
	LocationImage    LocationKind = "image"    // Index into the image list
	LocationField    LocationKind = "field"    // The whole field
)

// Location is positional evidence for an issue.
type Location struct {
	Kind    LocationKind `json:"kind"`
	Field   Field        `json:"field"`
	Offset  int          `json:"offset"`
	Index   int          `json:"index"`
	Text    string       `json:"text"`
	Context string       `json:"context,omitempty"`
}

// Issue is a single detected violation. Issues are immutable once
// produced by the detector.
type Issue struct {
	Type         IssueType `json:"type"`
	Severity     Severity  `json:"severity"`
	Field        Field     `json:"field"`
	CurrentValue float64   `json:"current_value"`
	TargetValue  float64   `json:"target_value"`
	// UpperBound is the other edge of the band when the metric is banded
	// (meta length, density). Zero when the metric only has one bound.
	UpperBound float64    `json:"upper_bound,omitempty"`
	Keyword    string     `json:"keyword,omitempty"`
	Count      int        `json:"count"` // occurrences, offending sentences, headings, images
	Total      int        `json:"total"` // words, sentences, headings, images
	Locations  []Location `json:"locations"`
	Message    string     `json:"message"`
	Priority   int        `json:"priority"`
	Weight     float64    `json:"weight"`
}

// Metrics is the full measurement set of one detection run.
type Metrics struct {
	WordCount                   int                `json:"word_count"`
	SentenceCount               int                `json:"sentence_count"`
	KeywordOccurrences          int                `json:"keyword_occurrences"`
	KeywordDensity              float64            `json:"keyword_density"`
	SecondaryDensity            map[string]float64 `json:"secondary_density,omitempty"`
	PassiveSentences            int                `json:"passive_sentences"`
	PassivePercentage           float64            `json:"passive_percentage"`
	LongSentences               int                `json:"long_sentences"`
	LongSentencePercentage      float64            `json:"long_sentence_percentage"`
	TransitionSentences         int                `json:"transition_sentences"`
	TransitionPercentage        float64            `json:"transition_percentage"`
	MetaDescriptionLength       int                `json:"meta_description_length"`
	MetaHasKeyword              bool               `json:"meta_has_keyword"`
	TitleLength                 int                `json:"title_length"`
	TitleHasKeyword             bool               `json:"title_has_keyword"`
	TitleUnique                 bool               `json:"title_unique"`
	SubheadingCount             int                `json:"subheading_count"`
	SubheadingsWithKeyword      int                `json:"subheadings_with_keyword"`
	SubheadingKeywordPercentage float64            `json:"subheading_keyword_percentage"`
	ImageCount                  int                `json:"image_count"`
	ImagesWithKeywordAlt        int                `json:"images_with_keyword_alt"`
}

// ValidationResult is the detector output for one document snapshot.
type ValidationResult struct {
	ComplianceScore float64  `json:"compliance_score"`
	TotalIssues     int      `json:"total_issues"`
	CriticalIssues  int      `json:"critical_issues"`
	MajorIssues     int      `json:"major_issues"`
	MinorIssues     int      `json:"minor_issues"`
	Issues          []Issue  `json:"issues"`
	Metrics         Metrics  `json:"metrics"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	CorrectionsMade []string `json:"corrections_made"`
}

// IssueTypes returns the issue types in detection order.
func (r *ValidationResult) IssueTypes() []IssueType {
	if r == nil {
		return nil
	}
	out := make([]IssueType, 0, len(r.Issues))
	for _, is := range r.Issues {
		out = append(out, is.Type)
	}
	return out
}

// Clone returns a deep copy so cached results are never aliased.
func (r *ValidationResult) Clone() *ValidationResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Issues = make([]Issue, len(r.Issues))
	for i, is := range r.Issues {
		is.Locations = append([]Location(nil), is.Locations...)
		out.Issues[i] = is
	}
	if r.Metrics.SecondaryDensity != nil {
		out.Metrics.SecondaryDensity = make(map[string]float64, len(r.Metrics.SecondaryDensity))
		for k, v := range r.Metrics.SecondaryDensity {
			out.Metrics.SecondaryDensity[k] = v
		}
	}
	out.Errors = append([]string(nil), r.Errors...)
	out.Warnings = append([]string(nil), r.Warnings...)
	out.CorrectionsMade = append([]string(nil), r.CorrectionsMade...)
	return &out
}
