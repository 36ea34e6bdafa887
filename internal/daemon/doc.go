// Package daemon coordinates the long-running taskmill process.
//
// It wires configuration, queue storage, and the workflow manager into a
// single lifecycle with flock-based locking to prevent multiple instances.
//
// Keep orchestration logic here: individual extraction steps live in their
// respective packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
