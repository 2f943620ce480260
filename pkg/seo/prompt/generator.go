// Package prompt converts detected issues into targeted, quantified
// correction instructions ordered by priority.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"content-optimizer-be/pkg/seo"
)

const maxExamples = 5

// Generator builds correction prompts. Its output depends only on its
// input and the override registry.
type Generator struct {
	overrides *OverrideRegistry
}

func NewGenerator(overrides *OverrideRegistry) *Generator {
	if overrides == nil {
		overrides = NewOverrideRegistry()
	}
	return &Generator{overrides: overrides}
}

// Overrides exposes the registry consulted by Generate.
func (g *Generator) Overrides() *OverrideRegistry {
	return g.overrides
}

// Generate returns at most one prompt per issue, highest priority first,
// and the issues that manual overrides excluded.
func (g *Generator) Generate(issues []seo.Issue, doc seo.Document) ([]CorrectionPrompt, []seo.Issue) {
	prompts := make([]CorrectionPrompt, 0, len(issues))
	var skipped []seo.Issue
	for _, is := range issues {
		if skip, _ := g.overrides.Skips(is); skip {
			skipped = append(skipped, is)
			continue
		}
		prompts = append(prompts, g.Prompt(is, doc))
	}
	// Stable: equal priorities keep detection order.
	sort.SliceStable(prompts, func(i, j int) bool {
		return prompts[i].Priority > prompts[j].Priority
	})
	return prompts, skipped
}

// Prompt builds the prompt for a single issue.
func (g *Generator) Prompt(is seo.Issue, doc seo.Document) CorrectionPrompt {
	qt := Target(is)
	return CorrectionPrompt{
		IssueType:          is.Type,
		Severity:           is.Severity,
		Field:              is.Field,
		Keyword:            is.Keyword,
		PromptText:         buildText(is, qt, doc),
		QuantitativeTarget: qt,
		TargetLocations:    append([]seo.Location(nil), is.Locations...),
		ExpectedChanges:    expected(is, qt),
		Priority:           is.Priority,
	}
}

func buildText(is seo.Issue, qt QuantitativeTarget, doc seo.Document) string {
	var b strings.Builder

	b.WriteString("<issue>\n")
	b.WriteString(is.Message)
	b.WriteString("\n</issue>\n\n")

	b.WriteString("<instruction>\n")
	b.WriteString(instruction(is, qt, doc))
	b.WriteString("\n</instruction>\n")

	if ex := examples(is); ex != "" {
		b.WriteString("\n<offending_text>\n")
		b.WriteString(ex)
		b.WriteString("</offending_text>\n")
	}

	b.WriteString("\n<constraints>\n")
	b.WriteString("- Change only what the instruction requires.\n")
	b.WriteString("- Keep every heading, image, list and paragraph element in place.\n")
	if kw := doc.Keyword(); kw != "" {
		fmt.Fprintf(&b, "- Keep the focus keyword %q spelled exactly as given.\n", kw)
	}
	b.WriteString("</constraints>")
	return b.String()
}

func instruction(is seo.Issue, qt QuantitativeTarget, doc seo.Document) string {
	kw := is.Keyword
	switch is.Type {
	case seo.IssueKeywordDensityLow:
		return fmt.Sprintf("Add the keyword %q about %d more time(s) to the body so its density rises from %.2f%% to about %.2f%% (band %.2f%%-%.2f%%). Work it into existing sentences naturally.",
			kw, qt.Count, qt.Current, qt.Target, is.TargetValue, is.UpperBound)
	case seo.IssueKeywordDensityHigh:
		return fmt.Sprintf("Remove or replace %d occurrence(s) of the keyword %q with synonyms or pronouns so its density falls from %.2f%% to about %.2f%% (band %.2f%%-%.2f%%).",
			qt.Count, kw, qt.Current, qt.Target, is.UpperBound, is.TargetValue)
	case seo.IssuePassiveVoiceHigh:
		return fmt.Sprintf("Rewrite %d of the passive sentences below in active voice so passive voice drops from %.2f%% to at most %.2f%%.",
			qt.Count, qt.Current, qt.Target)
	case seo.IssueLongSentences:
		return fmt.Sprintf("Split %d of the sentences below into shorter sentences so that long sentences drop from %.2f%% to at most %.2f%%.",
			qt.Count, qt.Current, qt.Target)
	case seo.IssueTransitionWordsLow:
		return fmt.Sprintf("Start %d more sentences with a transition word (however, therefore, for example, in addition) so usage rises from %.2f%% to at least %.2f%%.",
			qt.Count, qt.Current, qt.Target)
	case seo.IssueMetaDescriptionShort:
		return fmt.Sprintf("Rewrite the meta description %q so it is between %d and %d characters (currently %d), adding about %d words, and includes the keyword %q.",
			doc.MetaDescription, int(is.TargetValue), int(is.UpperBound), int(is.CurrentValue), qt.Count, kw)
	case seo.IssueMetaDescriptionLong:
		return fmt.Sprintf("Shorten the meta description %q to between %d and %d characters (currently %d), removing about %d words, and keep the keyword %q.",
			doc.MetaDescription, int(is.UpperBound), int(is.TargetValue), int(is.CurrentValue), qt.Count, kw)
	case seo.IssueMetaDescriptionNoKeyword:
		return fmt.Sprintf("Rewrite the meta description %q to include the keyword %q without changing its length by more than a few characters.",
			doc.MetaDescription, kw)
	case seo.IssueTitleTooLong:
		return fmt.Sprintf("Shorten the title %q to at most %d characters (currently %d), removing about %d words, and keep the keyword %q.",
			doc.Title, int(is.TargetValue), int(is.CurrentValue), qt.Count, kw)
	case seo.IssueTitleNoKeyword:
		return fmt.Sprintf("Rewrite the title %q to include the keyword %q.", doc.Title, kw)
	case seo.IssueTitleDuplicate:
		return fmt.Sprintf("Rewrite the title %q so it is distinct from existing titles while keeping the keyword %q.", doc.Title, kw)
	case seo.IssueSubheadingKeywordOveruse:
		return fmt.Sprintf("Reword %d of the subheadings below so they no longer contain %q; keyword usage in subheadings must drop from %.2f%% to at most %.2f%%.",
			qt.Count, kw, qt.Current, qt.Target)
	case seo.IssueImagesMissing:
		return fmt.Sprintf("Add one relevant <img> element to the body with alt text that contains the keyword %q.", kw)
	case seo.IssueImageAltMissingKeyword:
		return fmt.Sprintf("Update the alt attribute of the %d image(s) below to describe the image and include the keyword %q.", qt.Count, kw)
	}
	return is.Message
}

func examples(is seo.Issue) string {
	var b strings.Builder
	n := 0
	for _, loc := range is.Locations {
		if n == maxExamples {
			break
		}
		switch loc.Kind {
		case seo.LocationSentence:
			fmt.Fprintf(&b, "- sentence %d: %q\n", loc.Index+1, loc.Text)
		case seo.LocationHeading:
			fmt.Fprintf(&b, "- subheading %d: %q\n", loc.Index+1, loc.Text)
		case seo.LocationImage:
			fmt.Fprintf(&b, "- image %d (src %q): alt %q\n", loc.Index+1, loc.Text, loc.Context)
		case seo.LocationOffset:
			fmt.Fprintf(&b, "- %s at %d: %q\n", loc.Field, loc.Offset, loc.Context)
		default:
			continue
		}
		n++
	}
	return b.String()
}
