// Package services holds cross-cutting helpers shared by the extraction
// pipeline: sentinel error markers with wrapping, and context annotations
// (document ID, stage, correlation ID) that the logging package turns into
// structured fields.
package services
