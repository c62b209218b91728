package render

import (
	"regexp"
	"strings"
)

// Segment is a run of text that either matched a search term or did not.
type Segment struct {
	Text  string `json:"text"`
	Match bool   `json:"match,omitempty"`
}

// Highlight splits text into segments marking every case-insensitive
// occurrence of any term. Terms are matched literally.
func Highlight(text string, terms []string) []Segment {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			quoted = append(quoted, regexp.QuoteMeta(t))
		}
	}
	if len(quoted) == 0 || text == "" {
		return []Segment{{Text: text}}
	}
	re := regexp.MustCompile("(?i)(" + strings.Join(quoted, "|") + ")")

	var out []Segment
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: text[last:loc[0]]})
		}
		out = append(out, Segment{Text: text[loc[0]:loc[1]], Match: true})
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}
