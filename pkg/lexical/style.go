package lexical

import (
	"strings"

	"golang.org/x/net/html"
)

// StyleMap is a parsed inline CSS declaration list.
type StyleMap map[string]string

// ParseStyle parses "color: #F97316; background-color: #BFDBFE;".
func ParseStyle(styleStr string) StyleMap {
	styles := make(StyleMap)
	for _, part := range strings.Split(styleStr, ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k != "" && v != "" {
			styles[k] = v
		}
	}
	return styles
}

// kept lists the declarations carried into the rendered body.
var kept = []string{"color", "background-color", "text-transform"}

// SpanOpen returns an opening span carrying the kept declarations, or ""
// when none are set.
func (s StyleMap) SpanOpen() string {
	var relevant []string
	for _, k := range kept {
		if v, ok := s[k]; ok {
			relevant = append(relevant, k+": "+v)
		}
	}
	if len(relevant) == 0 {
		return ""
	}
	return `<span style="` + html.EscapeString(strings.Join(relevant, "; ")) + `">`
}
