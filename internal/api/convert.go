package api

import (
	"encoding/json"
	"slices"

	"pantrypal/internal/queue"
	"pantrypal/internal/workflow"
)

// FromQueueEntry converts a queue row to its API representation.
func FromQueueEntry(entry *queue.Entry) QueueEntry {
	if entry == nil {
		return QueueEntry{}
	}
	dto := QueueEntry{
		ID:           entry.ID,
		Queue:        entry.Queue,
		JobType:      entry.JobType,
		Status:       string(entry.Status),
		Attempts:     entry.Attempts,
		ErrorMessage: entry.ErrorMessage,
	}
	if !entry.CreatedAt.IsZero() {
		dto.CreatedAt = entry.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !entry.UpdatedAt.IsZero() {
		dto.UpdatedAt = entry.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	if entry.LastHeartbeat != nil {
		dto.LastHeartbeat = entry.LastHeartbeat.UTC().Format(dateTimeFormat)
	}
	if raw := []byte(entry.Body); json.Valid(raw) {
		dto.Body = json.RawMessage(raw)
	}
	return dto
}

// FromQueueEntries converts a slice of queue rows.
func FromQueueEntries(entries []*queue.Entry) []QueueEntry {
	out := make([]QueueEntry, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		out = append(out, FromQueueEntry(entry))
	}
	return out
}

// MergeQueueStats returns counts for every known status, including zeros.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := map[string]int{
		string(queue.StatusPending):    0,
		string(queue.StatusProcessing): 0,
		string(queue.StatusCompleted):  0,
		string(queue.StatusFailed):     0,
	}
	for status, count := range stats {
		out[string(status)] += count
	}
	return out
}

// FromOutcome converts a dispatcher outcome.
func FromOutcome(out *workflow.Outcome) *JobOutcome {
	if out == nil {
		return nil
	}
	_, recordID := out.Job.Target()
	dto := &JobOutcome{
		DeliveryID: out.Delivery.ID,
		JobType:    string(out.Job.Type),
		OwnerID:    out.Job.Payload.UserID,
		RecordID:   recordID,
		State:      string(out.State),
		Skipped:    out.Skipped,
		DurationMS: out.Duration.Milliseconds(),
	}
	if out.Err != nil {
		dto.Error = out.Err.Error()
	}
	return dto
}

// FromStatusSummary converts dispatcher diagnostics to the API shape.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	status := WorkflowStatus{
		Running:    summary.Running,
		Queue:      summary.Queue,
		Totals:     make(map[string]int64, len(summary.Totals)),
		QueueStats: MergeQueueStats(summary.QueueStats),
		LastError:  summary.LastError,
		LastJob:    FromOutcome(summary.LastJob),
	}
	for state, n := range summary.Totals {
		status.Totals[string(state)] = n
	}

	jobTypes := make([]string, 0, len(summary.HandlerHealth))
	for jobType := range summary.HandlerHealth {
		jobTypes = append(jobTypes, jobType)
	}
	slices.Sort(jobTypes)
	status.HandlerHealth = make([]HandlerHealth, 0, len(jobTypes))
	for _, jobType := range jobTypes {
		health := summary.HandlerHealth[jobType]
		status.HandlerHealth = append(status.HandlerHealth, HandlerHealth{
			JobType: jobType,
			Name:    health.Name,
			Ready:   health.Ready,
			Detail:  health.Detail,
		})
	}
	return status
}
