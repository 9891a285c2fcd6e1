// Package daemon coordinates the long-running pantryd process.
//
// It wires configuration, the hydration dispatcher, the record lifecycle
// manager, and the HTTP API into a single lifecycle with flock-based locking
// to prevent multiple instances. On start it returns jobs left in-flight by
// a previous crash to pending so they are redelivered.
//
// Keep orchestration logic here: hydration handlers live in
// internal/hydration and record semantics in internal/lifecycle, while the
// daemon focuses on startup, shutdown, and request routing.
package daemon
