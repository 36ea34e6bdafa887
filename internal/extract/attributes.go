package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// priorityBucket pairs a priority level with the keywords that select it.
// Buckets are scanned in order and the first hit wins.
type priorityBucket struct {
	level    Priority
	keywords []string
}

var priorityBuckets = []priorityBucket{
	{PriorityUrgent, []string{"urgent", "asap", "immediately", "critical", "today", "end of day", "eod"}},
	{PriorityHigh, []string{"high", "important", "priority", "by tomorrow", "soon", "before"}},
	{PriorityMedium, []string{"medium", "normal", "standard", "next week"}},
	{PriorityLow, []string{"low", "minor", "when possible", "eventually"}},
}

// ExtractPriority infers a priority from keyword hits in the text, defaulting
// to medium when nothing matches.
func ExtractPriority(text string) Priority {
	lowered := strings.ToLower(text)
	for _, bucket := range priorityBuckets {
		for _, keyword := range bucket.keywords {
			if strings.Contains(lowered, keyword) {
				return bucket.level
			}
		}
	}
	return PriorityMedium
}

var monthsByName = map[string]time.Month{
	"january":   time.January,
	"february":  time.February,
	"march":     time.March,
	"april":     time.April,
	"may":       time.May,
	"june":      time.June,
	"july":      time.July,
	"august":    time.August,
	"september": time.September,
	"october":   time.October,
	"november":  time.November,
	"december":  time.December,
}

var (
	triggeredDatePattern = regexp.MustCompile(`(?i)\b(?:by|before|due|deadline|until)\b[\s:]*(` + monthAlternates + `)\s+(\d{1,2})(?:,?\s*(\d{4}))?`)
	bareDatePattern      = regexp.MustCompile(`(?i)\b(` + monthAlternates + `)\s+(\d{1,2})(?:,?\s*(\d{4}))?`)
)

// ExtractDueDate parses a due date phrase from the text relative to ref.
// Relative terms resolve against ref; explicit month-day phrases without a
// year use ref's year and roll forward one year when the result would land
// in the past (deadlines are assumed to be upcoming, not historical).
// The returned time is a calendar date at midnight UTC.
func ExtractDueDate(text string, ref time.Time) (time.Time, bool) {
	lowered := strings.ToLower(text)
	refDate := dateOnly(ref)

	if strings.Contains(lowered, "today") || strings.Contains(lowered, "end of day") {
		return refDate, true
	}
	if strings.Contains(lowered, "tomorrow") {
		return refDate.AddDate(0, 0, 1), true
	}

	if due, ok := parseMonthDay(triggeredDatePattern.FindStringSubmatch(text), refDate); ok {
		return due, true
	}
	if due, ok := parseMonthDay(bareDatePattern.FindStringSubmatch(text), refDate); ok {
		return due, true
	}

	return time.Time{}, false
}

func parseMonthDay(groups []string, ref time.Time) (time.Time, bool) {
	if len(groups) < 3 {
		return time.Time{}, false
	}

	month, ok := monthsByName[strings.ToLower(groups[1])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(groups[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	yearProvided := len(groups) > 3 && groups[3] != ""
	year := ref.Year()
	if yearProvided {
		year, err = strconv.Atoi(groups[3])
		if err != nil {
			return time.Time{}, false
		}
	}

	due, valid := calendarDate(year, month, day)
	if !valid {
		return time.Time{}, false
	}
	if !yearProvided && due.Before(ref) {
		due, valid = calendarDate(year+1, month, day)
		if !valid {
			return time.Time{}, false
		}
	}
	return due, true
}

// calendarDate builds a date and rejects impossible day-of-month combinations
// that time.Date would otherwise normalize (February 31 and the like).
func calendarDate(year int, month time.Month, day int) (time.Time, bool) {
	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Month() != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
