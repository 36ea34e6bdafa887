// Package textutil provides text normalization utilities shared by the
// extraction pipeline.
//
// The primary use cases are:
//   - Building case- and punctuation-insensitive keys for duplicate detection
//   - Tokenizing free text into comparable lowercase terms
//
// Key normalization lowercases text and strips every non-alphanumeric
// character, so "Review the contract!" and "review the contract" collapse to
// the same key.
package textutil
