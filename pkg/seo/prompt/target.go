package prompt

import (
	"math"

	"content-optimizer-be/pkg/seo"
	"content-optimizer-be/pkg/seo/analyzer"
)

// AverageWordChars converts a character delta into words: five letters
// plus one space.
const AverageWordChars = 6

// Target computes the quantitative target for an issue. Density aims at
// the middle of the band so one correction lands inside it rather than
// on its edge.
func Target(is seo.Issue) QuantitativeTarget {
	qt := QuantitativeTarget{
		Current: is.CurrentValue,
		Target:  is.TargetValue,
	}

	switch is.Type {
	case seo.IssueKeywordDensityLow:
		mid := bandMid(is.TargetValue, is.UpperBound)
		qt.Target = mid
		qt.Action = ActionIncrease
		qt.Unit = "keyword occurrences"
		kwWords := float64(max(1, analyzer.CountWords(is.Keyword)))
		need := mid*float64(is.Total)/100 - float64(is.Count)
		denom := 1 - mid*kwWords/100
		if denom <= 0 {
			denom = 1
		}
		qt.Count = atLeastOne(math.Ceil(need / denom))

	case seo.IssueKeywordDensityHigh:
		mid := bandMid(is.UpperBound, is.TargetValue)
		qt.Target = mid
		qt.Action = ActionReduce
		qt.Unit = "keyword occurrences"
		keep := int(math.Floor(mid * float64(is.Total) / 100))
		qt.Count = max(1, is.Count-keep)

	case seo.IssueMetaDescriptionShort:
		qt.Action = ActionIncrease
		qt.Unit = "words"
		qt.Count = atLeastOne(math.Ceil((is.TargetValue - is.CurrentValue) / AverageWordChars))

	case seo.IssueMetaDescriptionLong, seo.IssueTitleTooLong:
		qt.Action = ActionReduce
		qt.Unit = "words"
		qt.Count = atLeastOne(math.Ceil((is.CurrentValue - is.TargetValue) / AverageWordChars))

	case seo.IssuePassiveVoiceHigh, seo.IssueLongSentences:
		qt.Action = ActionReduce
		qt.Unit = "sentences"
		allowed := int(math.Floor(is.TargetValue * float64(is.Total) / 100))
		qt.Count = max(1, is.Count-allowed)

	case seo.IssueTransitionWordsLow:
		qt.Action = ActionIncrease
		qt.Unit = "sentences"
		needed := int(math.Ceil(is.TargetValue * float64(is.Total) / 100))
		qt.Count = max(1, needed-is.Count)

	case seo.IssueSubheadingKeywordOveruse:
		qt.Action = ActionReduce
		qt.Unit = "subheadings"
		allowed := int(math.Floor(is.TargetValue * float64(is.Total) / 100))
		qt.Count = max(1, is.Count-allowed)

	case seo.IssueImageAltMissingKeyword:
		qt.Action = ActionIncrease
		qt.Unit = "images"
		qt.Count = max(1, is.Count)

	case seo.IssueImagesMissing:
		qt.Action = ActionIncrease
		qt.Unit = "images"
		qt.Count = 1

	default: // presence: keyword in title/meta, unique title
		qt.Action = ActionIncrease
		qt.Unit = "occurrences"
		qt.Count = 1
	}

	qt.Difference = round2(math.Abs(qt.Current - qt.Target))
	return qt
}

// expected describes what the corrector must observe after the fix.
func expected(is seo.Issue, qt QuantitativeTarget) ExpectedChanges {
	ec := ExpectedChanges{
		Metric:       analyzer.MetricFor(is.Type),
		CurrentValue: is.CurrentValue,
		TargetValue:  qt.Target,
	}
	switch is.Type {
	case seo.IssueKeywordDensityLow:
		ec.Band = &[2]float64{is.TargetValue, is.UpperBound}
	case seo.IssueKeywordDensityHigh:
		ec.Band = &[2]float64{is.UpperBound, is.TargetValue}
	case seo.IssueMetaDescriptionShort:
		ec.Band = &[2]float64{is.TargetValue, is.UpperBound}
	case seo.IssueMetaDescriptionLong:
		ec.Band = &[2]float64{is.UpperBound, is.TargetValue}
	}
	return ec
}

func bandMid(low, high float64) float64 {
	if high <= low {
		return low
	}
	return round2((low + high) / 2)
}

func atLeastOne(v float64) int {
	if v < 1 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	return int(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
