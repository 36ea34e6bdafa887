package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// PatternType identifies which line pattern produced a candidate. The scorer
// uses it to assign a base confidence.
type PatternType string

const (
	PatternNumbered    PatternType = "numbered"
	PatternMarker      PatternType = "explicit-marker"
	PatternActionVerb  PatternType = "action-verb"
	PatternBullet      PatternType = "bullet"
	PatternDeadline    PatternType = "deadline"
	PatternPriorityTag PatternType = "priority-tag"
	PatternModal       PatternType = "modal"
	PatternDateSuffix  PatternType = "date-suffix"
	PatternFallback    PatternType = "fallback"
	PatternTable       PatternType = "table"
)

// LineKind partitions line classifications.
type LineKind string

const (
	KindBlank        LineKind = "blank"
	KindIgnored      LineKind = "ignored"
	KindContinuation LineKind = "continuation"
	KindNewTask      LineKind = "new-task"
)

// LineClassification is the result of classifying a single line.
type LineClassification struct {
	Kind    LineKind
	Pattern PatternType
	Title   string
}

const monthAlternates = `January|February|March|April|May|June|July|August|September|October|November|December`

// linePattern pairs a compiled expression with the pattern type it produces
// and a title extractor over the regex captures.
type linePattern struct {
	pattern *regexp.Regexp
	kind    PatternType
	title   func(line string, groups []string) string
}

func titleFromGroup(index int) func(string, []string) string {
	return func(_ string, groups []string) string {
		if index < len(groups) {
			return groups[index]
		}
		return ""
	}
}

func titleWholeLine(line string, _ []string) string {
	return line
}

// linePatterns is tested in order and the first match wins. Specific shapes
// (explicit markers, numbered lists) must come before the generic imperative
// verb match, which would otherwise fragment narrative text.
var linePatterns = []linePattern{
	{
		pattern: regexp.MustCompile(`^(\d{1,3})[.)]\s+(.+)$`),
		kind:    PatternNumbered,
		title:   titleFromGroup(2),
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:TODO|TASK|ACTION|URGENT|ASAP)\s*:\s*(.+)$`),
		kind:    PatternMarker,
		title:   titleFromGroup(1),
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:Complete|Review|Update|Schedule|Send|Create|Follow\s+up|Prepare|Submit|Fix|Implement|Check|Confirm|Contact|Document|Analyze)\b\s*\S.*$`),
		kind:    PatternActionVerb,
		title:   titleWholeLine,
	},
	{
		pattern: regexp.MustCompile(`^[-•*]\s+(.+)$`),
		kind:    PatternBullet,
		title:   titleFromGroup(1),
	},
	{
		pattern: regexp.MustCompile(`(?i)^(.+?)\s*[-–]\s*Due\s*:\s*(.+)$`),
		kind:    PatternDeadline,
		title:   titleFromGroup(1),
	},
	{
		pattern: regexp.MustCompile(`(?i)^(.+?)\s*[-–]\s*Priority\s*:\s*(High|Medium|Low|Urgent)\b.*$`),
		kind:    PatternPriorityTag,
		title:   titleFromGroup(1),
	},
	{
		pattern: regexp.MustCompile(`(?i)^(?:Need\s+to|Must|Should|Have\s+to|Has\s+to)\s+\S.*$`),
		kind:    PatternModal,
		title:   titleWholeLine,
	},
	{
		pattern: regexp.MustCompile(`(?i)^(.+?)\s*[-–]\s*(?:` + monthAlternates + `)\s+\d{1,2}(?:,\s*\d{4})?$`),
		kind:    PatternDateSuffix,
		title:   titleFromGroup(1),
	},
}

var (
	sectionHeaderPattern = regexp.MustCompile(`(?i)^(?:Notes|Agenda|Meeting(?:\s+Notes)?|Summary)\s*:?\s*$`)
	continuationPattern  = regexp.MustCompile(`^(?:\s+[-•*]\s+\S|\s*[a-z]\)\s+\S)`)
	actionVerbToken      = regexp.MustCompile(`(?i)\b(?:complete|review|update|schedule|send|create|follow|prepare|submit|fix|implement|check|confirm|contact|document|analyze)\b`)
	taskNounToken        = regexp.MustCompile(`(?i)\b(?:task|todo|action|deliverable|requirement|need|must)\b`)
	temporalToken        = regexp.MustCompile(`(?i)\b(?:by|before|due|deadline|until)\b`)
)

// ClassifyLine decides whether a line starts a new task candidate, continues
// the previous one, or is not task-like. The open flag reports whether a
// candidate is currently accumulating: continuation cues are only meaningful
// then, and the fallback heuristic only applies when no candidate is open.
// Continuation detection deliberately wins over pattern matching so indented
// sub-bullets attach to their parent instead of fragmenting into new tasks.
func ClassifyLine(line string, open bool) LineClassification {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return LineClassification{Kind: KindBlank}
	}

	if sectionHeaderPattern.MatchString(trimmed) {
		return LineClassification{Kind: KindIgnored}
	}

	if continuationPattern.MatchString(line) {
		if open {
			return LineClassification{Kind: KindContinuation}
		}
		return LineClassification{Kind: KindIgnored}
	}

	for _, lp := range linePatterns {
		groups := lp.pattern.FindStringSubmatch(trimmed)
		if groups == nil {
			continue
		}
		title := strings.TrimSpace(lp.title(trimmed, groups))
		if title == "" {
			continue
		}
		return LineClassification{Kind: KindNewTask, Pattern: lp.kind, Title: title}
	}

	if !open && looksLikeTask(trimmed) {
		return LineClassification{Kind: KindNewTask, Pattern: PatternFallback, Title: trimmed}
	}

	return LineClassification{Kind: KindIgnored}
}

// looksLikeTask is the secondary heuristic for lines matching no explicit
// pattern. A line qualifies only when at least two independent task signals
// are present and the length is plausible for a one-line action item.
func looksLikeTask(line string) bool {
	if len(line) < 10 || len(line) > 300 {
		return false
	}

	signals := 0
	runes := []rune(line)
	if len(runes) > 0 && unicode.IsUpper(runes[0]) {
		signals++
	}
	if actionVerbToken.MatchString(line) {
		signals++
	}
	if taskNounToken.MatchString(line) {
		signals++
	}
	if temporalToken.MatchString(line) {
		signals++
	}
	return signals >= 2
}
