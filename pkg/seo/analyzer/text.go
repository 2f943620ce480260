package analyzer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’-][\p{L}\p{N}]+)*`)

// Word is a token with its byte offset in the source text.
type Word struct {
	Text   string
	Lower  string
	Offset int
}

// Words tokenizes text into words.
func Words(text string) []Word {
	idx := wordPattern.FindAllStringIndex(text, -1)
	out := make([]Word, 0, len(idx))
	for _, m := range idx {
		w := text[m[0]:m[1]]
		out = append(out, Word{Text: w, Lower: strings.ToLower(w), Offset: m[0]})
	}
	return out
}

// CountWords returns the number of words in text.
func CountWords(text string) int {
	return len(wordPattern.FindAllStringIndex(text, -1))
}

// Sentence is a sentence of prose with its offset in the prose text.
type Sentence struct {
	Index  int
	Text   string
	Offset int
	Words  int
}

// Sentences splits prose on terminal punctuation followed by whitespace
// and on line breaks (block boundaries).
func Sentences(prose string) []Sentence {
	var out []Sentence
	start := 0

	flush := func(end int) {
		raw := prose[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" && CountWords(trimmed) > 0 {
			lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
			out = append(out, Sentence{
				Index:  len(out),
				Text:   trimmed,
				Offset: start + lead,
				Words:  CountWords(trimmed),
			})
		}
		start = end
	}

	for i, r := range prose {
		switch r {
		case '\n':
			flush(i)
		case '.', '!', '?':
			next, _ := utf8.DecodeRuneInString(prose[i+1:])
			if i+1 == len(prose) || unicode.IsSpace(next) {
				flush(i + 1)
			}
		}
	}
	flush(len(prose))
	return out
}

// phraseMatch is one occurrence of a phrase in a word list.
type phraseMatch struct {
	Offset int
	End    int
}

// findPhrase returns every occurrence of phrase in text, matching whole
// words case-insensitively.
func findPhrase(text, phrase string) []phraseMatch {
	needle := Words(phrase)
	if len(needle) == 0 {
		return nil
	}
	hay := Words(text)
	var out []phraseMatch
	for i := 0; i+len(needle) <= len(hay); i++ {
		ok := true
		for j := range needle {
			if hay[i+j].Lower != needle[j].Lower {
				ok = false
				break
			}
		}
		if ok {
			last := hay[i+len(needle)-1]
			out = append(out, phraseMatch{Offset: hay[i].Offset, End: last.Offset + len(last.Text)})
			i += len(needle) - 1
		}
	}
	return out
}

// ContainsPhrase reports whether phrase occurs in text as whole words.
func ContainsPhrase(text, phrase string) bool {
	return len(findPhrase(text, phrase)) > 0
}

// surrounding returns up to radius bytes of context on each side of
// [start,end), trimmed to rune boundaries.
func surrounding(text string, start, end, radius int) string {
	from := start - radius
	if from < 0 {
		from = 0
	}
	to := end + radius
	if to > len(text) {
		to = len(text)
	}
	for from > 0 && !isRuneStart(text[from]) {
		from--
	}
	for to < len(text) && !isRuneStart(text[to]) {
		to++
	}
	return strings.TrimSpace(strings.ReplaceAll(text[from:to], "\n", " "))
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
