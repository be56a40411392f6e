package domain

import (
	"strings"
	"unicode"
)

// searchStopWords never narrow a memory search.
var searchStopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "what": {}, "which": {}, "card": {}, "cards": {},
	"did": {}, "use": {}, "used": {}, "last": {}, "time": {}, "my": {}, "was": {},
	"you": {}, "with": {}, "how": {}, "much": {}, "about": {}, "should": {},
}

// SearchTerms splits a free-text query into lower-case terms of at least
// three characters, dropping stop words and duplicates.
func SearchTerms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	var terms []string
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := searchStopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// Mentions reports whether the record's merchant, category or card contains
// any of terms. Empty terms match every record.
func (r RecommendationRecord) Mentions(terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(r.Merchant + " " + r.Category + " " + r.RecommendedCard)
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}
