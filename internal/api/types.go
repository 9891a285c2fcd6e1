package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// QueueEntry describes a queued hydration job in a transport-friendly format.
type QueueEntry struct {
	ID            int64           `json:"id"`
	Queue         string          `json:"queue"`
	JobType       string          `json:"jobType"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	CreatedAt     string          `json:"createdAt,omitempty"`
	UpdatedAt     string          `json:"updatedAt,omitempty"`
	LastHeartbeat string          `json:"lastHeartbeat,omitempty"`
	Body          json.RawMessage `json:"body,omitempty"`
}

// JobOutcome describes the last job the dispatcher handled.
type JobOutcome struct {
	DeliveryID string `json:"deliveryId"`
	JobType    string `json:"jobType"`
	OwnerID    string `json:"ownerId,omitempty"`
	RecordID   string `json:"recordId,omitempty"`
	State      string `json:"state"`
	Skipped    bool   `json:"skipped"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// WorkflowStatus summarizes dispatcher execution state.
type WorkflowStatus struct {
	Running       bool             `json:"running"`
	Queue         string           `json:"queue"`
	Totals        map[string]int64 `json:"totals"`
	QueueStats    map[string]int   `json:"queueStats"`
	LastError     string           `json:"lastError,omitempty"`
	LastJob       *JobOutcome      `json:"lastJob,omitempty"`
	HandlerHealth []HandlerHealth  `json:"handlerHealth"`
}

// HandlerHealth mirrors readiness reporting for hydration handlers.
type HandlerHealth struct {
	JobType string `json:"jobType"`
	Name    string `json:"name"`
	Ready   bool   `json:"ready"`
	Detail  string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running        bool           `json:"running"`
	PID            int            `json:"pid"`
	QueueBackend   string         `json:"queueBackend"`
	QueueDBPath    string         `json:"queueDbPath,omitempty"`
	DocumentDBPath string         `json:"documentDbPath"`
	LockFilePath   string         `json:"lockFilePath"`
	ImagesEnabled  bool           `json:"imagesEnabled"`
	Workflow       WorkflowStatus `json:"workflow"`
}

// QueueListResponse wraps a collection of queue entries.
type QueueListResponse struct {
	Items []QueueEntry `json:"items"`
}

// QueueEntryResponse wraps a single queue entry.
type QueueEntryResponse struct {
	Item QueueEntry `json:"item"`
}

// QueueRetryRequest selects failed entries to retry. Empty retries all.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueMutationResponse reports how many entries an operator action touched.
type QueueMutationResponse struct {
	Updated int64 `json:"updated"`
}

// HydrateResponse reports how many jobs a manual re-hydration enqueued.
type HydrateResponse struct {
	Enqueued int `json:"enqueued"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
