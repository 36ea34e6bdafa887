package extract

import "regexp"

// baseScores is the fixed confidence table per pattern type.
var baseScores = map[PatternType]int{
	PatternMarker:      95,
	PatternNumbered:    90,
	PatternDeadline:    90,
	PatternTable:       90,
	PatternActionVerb:  85,
	PatternDateSuffix:  85,
	PatternPriorityTag: 85,
	PatternModal:       80,
	PatternBullet:      75,
	PatternFallback:    60,
}

var (
	urgencyTokenPattern  = regexp.MustCompile(`(?i)\b(?:urgent|asap|critical)\b`)
	yearTokenPattern     = regexp.MustCompile(`\b\d{4}\b`)
	priorityLevelPattern = regexp.MustCompile(`(?i)\b(?:urgent|high|medium|low)\s+priority\b`)
)

// Score assigns a confidence in [0,100] from the matched pattern type plus
// secondary signals in the source text. Pure: identical inputs always
// produce identical scores.
func Score(pattern PatternType, text string) int {
	score, ok := baseScores[pattern]
	if !ok {
		score = baseScores[PatternFallback]
	}

	if urgencyTokenPattern.MatchString(text) {
		score += 5
	}
	if yearTokenPattern.MatchString(text) {
		score += 5
	}
	if priorityLevelPattern.MatchString(text) {
		score += 5
	}

	return ClampConfidence(score)
}

// ClampConfidence bounds a confidence value to [0,100].
func ClampConfidence(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
