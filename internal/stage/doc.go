// Package stage defines the handler contract the workflow manager uses to
// drive document processing, plus the health record stages report from
// their readiness checks.
package stage
