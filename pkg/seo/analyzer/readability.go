package analyzer

import (
	"strings"

	"content-optimizer-be/pkg/seo"
)

var beForms = map[string]bool{
	"am": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true,
	"isn't": true, "aren't": true, "wasn't": true, "weren't": true,
}

var irregularParticiples = map[string]bool{
	"arisen": true, "awoken": true, "beaten": true, "become": true, "begun": true,
	"bent": true, "bitten": true, "blown": true, "broken": true, "brought": true,
	"built": true, "bought": true, "caught": true, "chosen": true, "dealt": true,
	"done": true, "drawn": true, "driven": true, "eaten": true, "fallen": true,
	"felt": true, "fought": true, "found": true, "forgiven": true, "forgotten": true,
	"frozen": true, "given": true, "gone": true, "grown": true, "heard": true,
	"held": true, "hidden": true, "hit": true, "hurt": true, "kept": true,
	"known": true, "laid": true, "led": true, "left": true, "lent": true,
	"lost": true, "made": true, "meant": true, "met": true, "paid": true,
	"put": true, "read": true, "ridden": true, "rung": true, "run": true,
	"said": true, "seen": true, "sent": true, "set": true, "shaken": true,
	"shown": true, "shut": true, "sold": true, "sought": true, "spent": true,
	"spoken": true, "spun": true, "stolen": true, "struck": true, "sung": true,
	"sunk": true, "swept": true, "taken": true, "taught": true, "thought": true,
	"thrown": true, "told": true, "torn": true, "understood": true, "won": true,
	"worn": true, "woven": true, "written": true,
}

// isPassive reports whether a sentence contains a be-form followed by a
// past participle, allowing one -ly adverb in between.
func isPassive(sentence string) bool {
	words := Words(sentence)
	for i, w := range words {
		if !beForms[w.Lower] {
			continue
		}
		j := i + 1
		if j < len(words) && strings.HasSuffix(words[j].Lower, "ly") && !isParticiple(words[j].Lower) {
			j++
		}
		if j < len(words) && isParticiple(words[j].Lower) {
			return true
		}
	}
	return false
}

func isParticiple(w string) bool {
	if irregularParticiples[w] {
		return true
	}
	return len(w) > 3 && strings.HasSuffix(w, "ed")
}

func sentenceLocation(s Sentence) seo.Location {
	return seo.Location{
		Kind:   seo.LocationSentence,
		Field:  seo.FieldBody,
		Offset: s.Offset,
		Index:  s.Index,
		Text:   s.Text,
	}
}

type passiveAnalyzer struct{}

func (passiveAnalyzer) Metric() Metric { return MetricPassiveVoice }

func (passiveAnalyzer) Measure(in *Input) (Measurement, error) {
	var locs []seo.Location
	for _, s := range in.Sentences {
		if isPassive(s.Text) {
			locs = append(locs, sentenceLocation(s))
		}
	}
	return Measurement{
		Metric:    MetricPassiveVoice,
		Value:     percentage(len(locs), len(in.Sentences)),
		Count:     len(locs),
		Total:     len(in.Sentences),
		Locations: locs,
	}, nil
}

type longSentenceAnalyzer struct{}

func (longSentenceAnalyzer) Metric() Metric { return MetricLongSentences }

func (longSentenceAnalyzer) Measure(in *Input) (Measurement, error) {
	limit := in.Config.LongSentenceWords
	var locs []seo.Location
	for _, s := range in.Sentences {
		if s.Words > limit {
			locs = append(locs, sentenceLocation(s))
		}
	}
	return Measurement{
		Metric:    MetricLongSentences,
		Value:     percentage(len(locs), len(in.Sentences)),
		Count:     len(locs),
		Total:     len(in.Sentences),
		Locations: locs,
	}, nil
}

var transitionPhrases = []string{
	"accordingly", "additionally", "afterward", "also", "although", "as a result",
	"because", "besides", "but", "consequently", "conversely", "finally",
	"first", "for example", "for instance", "furthermore", "hence", "however",
	"in addition", "in conclusion", "in contrast", "in fact", "in other words",
	"in summary", "indeed", "instead", "likewise", "meanwhile", "moreover",
	"nevertheless", "next", "nonetheless", "on the other hand", "otherwise",
	"second", "similarly", "since", "so", "specifically", "still", "then",
	"therefore", "thus", "to summarize", "ultimately", "whereas",
}

func hasTransition(sentence string) bool {
	for _, p := range transitionPhrases {
		if ContainsPhrase(sentence, p) {
			return true
		}
	}
	return false
}

type transitionAnalyzer struct{}

func (transitionAnalyzer) Metric() Metric { return MetricTransitionWords }

func (transitionAnalyzer) Measure(in *Input) (Measurement, error) {
	var with, without []seo.Location
	for _, s := range in.Sentences {
		if hasTransition(s.Text) {
			with = append(with, sentenceLocation(s))
		} else {
			without = append(without, sentenceLocation(s))
		}
	}
	return Measurement{
		Metric:    MetricTransitionWords,
		Value:     percentage(len(with), len(in.Sentences)),
		Count:     len(with),
		Total:     len(in.Sentences),
		Locations: with,
		Failing:   without,
	}, nil
}
