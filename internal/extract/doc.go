// Package extract implements the heuristic document-to-task extraction
// engine: line-level pattern classification, priority and due-date
// inference, confidence scoring, and duplicate-aware finalization.
//
// The engine is deterministic and pure. Given the same text and reference
// date it always produces the same ordered candidate list, and it never
// fails: unparseable input degrades to an empty result. Pattern matching is
// an ordered first-match-wins list so that specific shapes (explicit
// TODO/ACTION markers, numbered lists) beat the generic imperative-verb
// match.
package extract
