package config

import "strings"

// Mode selects which extractor handles a document. Invalid modes are
// rejected at config load, not silently defaulted at dispatch time.
type Mode string

const (
	// ModeSimpleOnly always runs the heuristic engine.
	ModeSimpleOnly Mode = "simple-only"
	// ModeOpenAIFirst tries the AI extractor and falls back to the
	// heuristic engine when it fails. This is the default.
	ModeOpenAIFirst Mode = "openai-first"
	// ModeOpenAIOnly runs the AI extractor and surfaces its failure.
	ModeOpenAIOnly Mode = "openai-only"
)

var allModes = []Mode{ModeSimpleOnly, ModeOpenAIFirst, ModeOpenAIOnly}

// AllModes returns the ordered list of recognized parser modes.
func AllModes() []Mode {
	cp := make([]Mode, len(allModes))
	copy(cp, allModes)
	return cp
}

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	normalized := Mode(strings.ToLower(strings.TrimSpace(value)))
	for _, mode := range allModes {
		if mode == normalized {
			return mode, true
		}
	}
	return "", false
}
