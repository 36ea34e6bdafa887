package extract

import (
	"regexp"
	"strings"
)

var (
	spaceRunPattern   = regexp.MustCompile(` {2,}`)
	newlineRunPattern = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans raw extracted text before pattern matching. It converts
// CRLF/CR line endings to LF, replaces tabs with single spaces, strips null
// bytes and zero-width spaces, turns form feeds into paragraph breaks, and
// collapses runs of spaces and blank lines. Empty input yields empty output.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "​", "")
	text = strings.ReplaceAll(text, "\f", "\n\n")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	text = newlineRunPattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
