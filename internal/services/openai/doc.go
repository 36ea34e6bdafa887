// Package openai wraps an OpenAI-compatible chat-completions API for task
// extraction.
//
// The client retries transient failures with exponential backoff, honors
// Retry-After headers, requests JSON-mode responses at temperature zero, and
// tolerates the schema quirks different providers exhibit (delta payloads,
// tool-call arguments, code-fenced JSON). ExtractTasks converts the model's
// JSON into extract.Candidate values and runs them through the same
// finalization pass as the simple parser.
package openai
