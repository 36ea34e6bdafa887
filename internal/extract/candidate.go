package extract

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Priority buckets a candidate by urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var allPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ParsePriority converts a string into a known Priority.
func ParsePriority(value string) (Priority, bool) {
	normalized := Priority(strings.ToLower(strings.TrimSpace(value)))
	for _, p := range allPriorities {
		if p == normalized {
			return p, true
		}
	}
	return "", false
}

// MaxTitleLength bounds candidate titles; longer titles are truncated.
const MaxTitleLength = 200

// MaxDescriptionLength bounds accumulated continuation text.
const MaxDescriptionLength = 1000

// Candidate is a structured action item inferred from unstructured text,
// prior to user confirmation.
type Candidate struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Confidence  int        `json:"confidence"`
	LineNumber  int        `json:"line_number"`
	SourceText  string     `json:"source_text,omitempty"`
	Assignee    string     `json:"assignee,omitempty"`
}

// HasDueDate reports whether a parsed due date is attached.
func (c Candidate) HasDueDate() bool {
	return c.DueDate != nil && !c.DueDate.IsZero()
}

// clampTitle trims and truncates a title to the allowed length. Truncation
// backs up to a rune boundary so a multi-byte character is never split.
func clampTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) > MaxTitleLength {
		cut := MaxTitleLength
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = strings.TrimSpace(title[:cut])
	}
	return title
}
