// Package workflow drives documents through the extraction lifecycle.
//
// The Manager polls the queue for pending documents, claims each one with an
// atomic status transition, and runs the extraction stage while a heartbeat
// goroutine keeps the claim fresh. Dispatch between the heuristic engine and
// the AI extractor follows the configured parser mode: simple-only always
// runs the engine, openai-first tries the AI extractor and falls back to the
// engine on failure, and openai-only surfaces AI failures as document
// failures. Stale claims left behind by a crashed process are reclaimed on
// each poll cycle.
package workflow
