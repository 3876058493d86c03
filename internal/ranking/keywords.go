package ranking

import (
	"strings"
	"unicode"
)

const minKeywordLen = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"your": {}, "all": {}, "any": {}, "can": {}, "had": {}, "has": {}, "have": {},
	"her": {}, "his": {}, "was": {}, "one": {}, "our": {}, "out": {}, "its": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "they": {}, "been": {},
	"will": {}, "what": {}, "when": {}, "how": {}, "why": {}, "who": {}, "into": {},
	"than": {}, "then": {}, "them": {}, "about": {}, "just": {},
}

// Keywords lowercases text, splits it on runs of non-alphanumeric
// characters and drops short tokens and stop words. Each keyword appears
// once, in first-seen order.
func Keywords(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var out []string
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
