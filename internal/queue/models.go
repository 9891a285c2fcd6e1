package queue

import (
	"strconv"
	"time"

	"pantrypal/internal/jobs"
)

// Status represents the lifecycle state of a queued hydration job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus converts user input into a Status value.
func ParseStatus(raw string) (Status, bool) {
	switch s := Status(raw); s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return s, true
	default:
		return "", false
	}
}

// Entry is a queued job row.
type Entry struct {
	ID            int64
	Queue         string
	Body          string
	JobType       string
	Status        Status
	Attempts      int
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}

// Delivery converts a claimed entry into the transport-neutral form.
func (e Entry) Delivery() jobs.Delivery {
	return jobs.Delivery{
		ID:      strconv.FormatInt(e.ID, 10),
		Queue:   e.Queue,
		Body:    []byte(e.Body),
		Attempt: e.Attempts,
	}
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

// HealthSummary describes aggregated queue counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Completed  int
}
