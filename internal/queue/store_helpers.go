package queue

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pantrypal/internal/jobs"
)

const entryColumns = "id, queue, body, job_type, status, attempts, error_message, created_at, updated_at, last_heartbeat"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		entry            Entry
		jobType          sql.NullString
		statusStr        string
		errorMessage     sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Queue,
		&entry.Body,
		&jobType,
		&statusStr,
		&entry.Attempts,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}
	entry.JobType = jobType.String
	entry.Status = Status(statusStr)
	entry.ErrorMessage = errorMessage.String

	if created, err := parseTimeString(createdRaw.String); err == nil {
		entry.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		entry.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			entry.LastHeartbeat = &heartbeat
		}
	}
	return &entry, nil
}

// jobTypeOf extracts the tag for listing. Undecodable bodies are stored
// with no type; the dispatcher reports them when claimed.
func jobTypeOf(body []byte) any {
	job, err := jobs.Decode(body)
	if err != nil {
		return nil
	}
	return string(job.Type)
}

func deliveryID(d jobs.Delivery) (int64, error) {
	id, err := strconv.ParseInt(d.ID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid delivery id %q: %w", d.ID, err)
	}
	return id, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nowString() string {
	return formatTime(time.Now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
