package daemon

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"pantrypal/internal/api"
	"pantrypal/internal/queue"
)

func (s *apiServer) queueReady(w http.ResponseWriter) bool {
	if s.queueSvc == nil {
		s.writeError(w, http.StatusNotImplemented, "queue inspection requires the sqlite backend")
		return false
	}
	return true
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if !s.queueReady(w) {
		return
	}
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown status "+strconv.Quote(trimmed))
			return
		}
		statuses = append(statuses, status)
	}

	items, err := s.queueSvc.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if items == nil {
		items = []api.QueueEntry{}
	}
	s.writeJSON(w, http.StatusOK, api.QueueListResponse{Items: items})
}

func (s *apiServer) handleQueueEntry(w http.ResponseWriter, r *http.Request) {
	if !s.queueReady(w) {
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue entry id")
		return
	}
	entry, err := s.queueSvc.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		s.writeError(w, http.StatusNotFound, "queue entry not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueEntryResponse{Item: *entry})
}

func (s *apiServer) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	if !s.queueReady(w) {
		return
	}
	var req api.QueueRetryRequest
	// An empty body retries every failed job.
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.writeServiceError(w, r, err)
		return
	}
	n, _, err := s.queueSvc.Retry(r.Context(), req.IDs...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueMutationResponse{Updated: n})
}

func (s *apiServer) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	if !s.queueReady(w) {
		return
	}
	n, _, err := s.queueSvc.ClearCompleted(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.QueueMutationResponse{Updated: n})
}
