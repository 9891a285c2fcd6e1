// Package api defines wire-format types and converters for the HTTP API
// layer. It translates internal queue and dispatcher models into
// transport-friendly DTOs so the CLI and other consumers do not couple to
// internal types.
//
// # Key Types
//
// QueueEntry: transport representation of a queued hydration job with its
// decoded job tag and payload.
//
// WorkflowStatus: dispatcher running state, per-state totals, queue counts,
// handler health, and the last handled job.
//
// DaemonStatus: aggregated runtime information for pantryd.
//
// # Converters
//
// FromQueueEntry: queue.Entry -> QueueEntry. The body is passed through as
// json.RawMessage when it is valid JSON.
//
// FromStatusSummary: workflow.StatusSummary -> WorkflowStatus.
//
// # Design Notes
//
// Operator DTOs use camelCase JSON tags. Pantry records are served in their
// stored snake_case shape by the daemon and are not redefined here.
// Timestamps use RFC3339 with milliseconds.
package api
