// Package structure guards document layout across corrections: it
// fingerprints element counts, keeps a bounded snapshot history and rolls
// back corrections that break structure.
package structure

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/markup"
)

// Fingerprint counts structural elements; it ignores prose.
type Fingerprint struct {
	Paragraphs int    `json:"paragraphs"`
	Headings   [6]int `json:"headings"` // index 0 = h1
	Images     int    `json:"images"`
	ListItems  int    `json:"list_items"`
	Links      int    `json:"links"`
	TextLength int    `json:"text_length"`
}

// TotalHeadings sums all heading levels.
func (f Fingerprint) TotalHeadings() int {
	n := 0
	for _, c := range f.Headings {
		n += c
	}
	return n
}

// Take fingerprints the body of doc.
func Take(doc seo.Document) (Fingerprint, error) {
	o, err := markup.Parse(doc.Body)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("fingerprint: %w", err)
	}
	return Fingerprint{
		Paragraphs: o.Paragraphs,
		Headings:   o.HeadingCounts(),
		Images:     len(o.Images),
		ListItems:  o.ListItems,
		Links:      o.Links,
		TextLength: utf8.RuneCountInString(o.Text),
	}, nil
}

// Checksum is a content digest over every document field.
func Checksum(doc seo.Document) string {
	h := sha256.New()
	for _, part := range []string{doc.Title, doc.Body, doc.MetaDescription, doc.FocusKeyword, strings.Join(doc.SecondaryKeywords, ",")} {
		fmt.Fprintf(h, "%d:%s|", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DetectCorruption reports whether doc no longer matches the checksum it
// claims to carry.
func DetectCorruption(doc seo.Document, checksum string) bool {
	return Checksum(doc) != checksum
}

// ViolationLevel separates rollback-worthy violations from warnings.
type ViolationLevel string

const (
	ViolationMajor ViolationLevel = "major"
	ViolationMinor ViolationLevel = "minor"
)

type Violation struct {
	Level   ViolationLevel `json:"level"`
	Element string         `json:"element"`
	Before  float64        `json:"before"`
	After   float64        `json:"after"`
	Message string         `json:"message"`
}

// Report is the outcome of comparing two documents.
type Report struct {
	Before     Fingerprint `json:"before"`
	After      Fingerprint `json:"after"`
	Violations []Violation `json:"violations"`
}

// HasMajor reports whether the change must be rolled back.
func (r Report) HasMajor() bool {
	for _, v := range r.Violations {
		if v.Level == ViolationMajor {
			return true
		}
	}
	return false
}

// Minor returns only the warning-level violations.
func (r Report) Minor() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Level == ViolationMinor {
			out = append(out, v)
		}
	}
	return out
}

// Thresholds for minor violations.
const (
	MaxLengthChange    = 0.30
	MinTitleSimilarity = 0.70
)

// Compare classifies the structural difference between before and after.
func Compare(before, after Fingerprint, beforeTitle, afterTitle string, paragraphTolerance float64) Report {
	r := Report{Before: before, After: after}
	add := func(level ViolationLevel, element string, b, a float64, msg string) {
		r.Violations = append(r.Violations, Violation{Level: level, Element: element, Before: b, After: a, Message: msg})
	}

	for i := range before.Headings {
		if before.Headings[i] != after.Headings[i] {
			el := fmt.Sprintf("h%d", i+1)
			add(ViolationMajor, el, float64(before.Headings[i]), float64(after.Headings[i]),
				fmt.Sprintf("%s count changed from %d to %d", el, before.Headings[i], after.Headings[i]))
		}
	}
	if after.Images < before.Images {
		add(ViolationMajor, "img", float64(before.Images), float64(after.Images),
			fmt.Sprintf("image count decreased from %d to %d", before.Images, after.Images))
	}
	if after.ListItems < before.ListItems {
		add(ViolationMajor, "li", float64(before.ListItems), float64(after.ListItems),
			fmt.Sprintf("list item count decreased from %d to %d", before.ListItems, after.ListItems))
	}
	if before.Paragraphs > 0 {
		change := math.Abs(float64(after.Paragraphs-before.Paragraphs)) / float64(before.Paragraphs)
		if change > paragraphTolerance {
			add(ViolationMajor, "p", float64(before.Paragraphs), float64(after.Paragraphs),
				fmt.Sprintf("paragraph count changed by %.0f%% (%d to %d)", change*100, before.Paragraphs, after.Paragraphs))
		}
	}

	if before.TextLength > 0 {
		change := math.Abs(float64(after.TextLength-before.TextLength)) / float64(before.TextLength)
		if change > MaxLengthChange {
			add(ViolationMinor, "text", float64(before.TextLength), float64(after.TextLength),
				fmt.Sprintf("text length changed by %.0f%%", change*100))
		}
	}
	if sim := Similarity(beforeTitle, afterTitle); sim < MinTitleSimilarity {
		add(ViolationMinor, "title", 1, sim, fmt.Sprintf("title similarity %.0f%% is below %.0f%%", sim*100, MinTitleSimilarity*100))
	}
	return r
}

// Similarity is 1 minus the normalized Levenshtein distance between the
// lowercased strings.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(strings.TrimSpace(a)))
	rb := []rune(strings.ToLower(strings.TrimSpace(b)))
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
