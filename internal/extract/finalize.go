package extract

import (
	"regexp"
	"sort"
	"strings"

	"taskmill/internal/textutil"
)

var (
	headerTitlePattern  = regexp.MustCompile(`(?i)^(?:Notes|Agenda|Meeting(?:\s+Notes)?|Project\s+Status|Update|Report|Summary|Deadlines|Action\s+Items|Upcoming)\s*:?$`)
	weekdayStartPattern = regexp.MustCompile(`(?i)^(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\b`)
	timeStartPattern    = regexp.MustCompile(`^\d{1,2}:\d{2}\b`)
)

// Finalize filters non-task candidates, collapses duplicates, and restores
// document order. Candidates that fail basic invariants (empty titles,
// header shapes, bare date/time labels) are dropped silently rather than
// failing the run. When two candidates share a normalized title key, the
// higher-confidence one survives; ties keep the first encountered.
func Finalize(candidates []Candidate) []Candidate {
	byKey := make(map[string]int, len(candidates))
	kept := make([]Candidate, 0, len(candidates))

	for _, cand := range candidates {
		cand.Title = clampTitle(cand.Title)
		cand.Confidence = ClampConfidence(cand.Confidence)
		if !keepTitle(cand.Title) {
			continue
		}

		key := textutil.NormalizeKey(cand.Title)
		if key == "" {
			continue
		}
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(kept)
			kept = append(kept, cand)
			continue
		}
		if cand.Confidence > kept[idx].Confidence {
			kept[idx] = cand
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].LineNumber < kept[j].LineNumber
	})
	return kept
}

func keepTitle(title string) bool {
	if len(strings.TrimSpace(title)) < 5 {
		return false
	}
	if headerTitlePattern.MatchString(title) {
		return false
	}
	if weekdayStartPattern.MatchString(title) || timeStartPattern.MatchString(title) {
		return false
	}
	return true
}
