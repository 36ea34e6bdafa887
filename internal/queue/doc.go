// Package queue persists extraction jobs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema migrations, stats queries,
// heartbeat tracking, stuck-job recovery, and the pending -> processing ->
// completed/failed transitions the workflow manager relies on. Documents carry
// their extraction results as JSON alongside summary columns so the CLI can
// render listings without decoding every payload.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes ship as new files under migrations/.
package queue
