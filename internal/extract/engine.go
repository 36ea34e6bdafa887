package extract

import (
	"regexp"
	"strings"
	"time"
)

// subItemPrefixPattern strips "a)"-style sub-item markers from continuations.
var subItemPrefixPattern = regexp.MustCompile(`^[a-z]\)\s*`)

// Engine is the deterministic, pattern-based extractor. It has no failure
// path: malformed input yields an empty candidate list, never an error.
type Engine struct{}

// NewEngine constructs the heuristic extraction engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Extract turns a blob of unstructured text into an ordered list of task
// candidates. The ref time anchors relative due-date phrases ("today",
// "tomorrow") and year-less month-day literals. The pipeline is pure and
// CPU-bound: normalize, classify line by line, infer attributes and
// confidence per candidate, then filter and deduplicate.
func (e *Engine) Extract(text string, ref time.Time) []Candidate {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}

	lines := strings.Split(normalized, "\n")
	candidates := make([]Candidate, 0, len(lines)/2)
	var current *Candidate

	flush := func() {
		if current != nil {
			candidates = append(candidates, *current)
			current = nil
		}
	}

	for i, line := range lines {
		classification := ClassifyLine(line, current != nil)
		switch classification.Kind {
		case KindBlank, KindIgnored:
			flush()
		case KindContinuation:
			appendContinuation(current, line)
		case KindNewTask:
			flush()
			trimmed := strings.TrimSpace(line)
			cand := Candidate{
				Title:      clampTitle(classification.Title),
				Priority:   ExtractPriority(trimmed),
				Confidence: Score(classification.Pattern, trimmed),
				LineNumber: i + 1,
				SourceText: trimmed,
			}
			if due, ok := ExtractDueDate(trimmed, ref); ok {
				cand.DueDate = &due
			}
			current = &cand
		}
	}
	flush()

	return Finalize(candidates)
}

func appendContinuation(current *Candidate, line string) {
	if current == nil {
		return
	}
	detail := strings.TrimSpace(line)
	detail = strings.TrimLeft(detail, "-•* ")
	detail = subItemPrefixPattern.ReplaceAllString(detail, "")
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return
	}
	if current.Description == "" {
		current.Description = detail
	} else if len(current.Description)+len(detail)+1 <= MaxDescriptionLength {
		current.Description += "\n" + detail
	}
	if len(current.Description) > MaxDescriptionLength {
		current.Description = current.Description[:MaxDescriptionLength]
	}
	current.SourceText += "\n" + strings.TrimRight(line, " ")
}
