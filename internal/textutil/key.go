package textutil

import (
	"regexp"
	"strings"
)

// tokenSplitPattern matches non-alphanumeric character sequences for tokenization.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeKey reduces text to a lowercase alphanumeric key for duplicate
// detection. Returns "" when no alphanumeric characters remain.
func NormalizeKey(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	return tokenSplitPattern.ReplaceAllString(lowered, "")
}

// Tokenize splits text into lowercase tokens, filtering short tokens.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	raw := tokenSplitPattern.Split(lowered, -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		token = strings.TrimSpace(token)
		if len(token) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}
