package queueaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pantrypal/internal/api"
	"pantrypal/internal/queue"
)

const defaultHTTPTimeout = 10 * time.Second

type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("daemon returned %d", e.code)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.code, e.message)
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string, client *http.Client) *apiClient {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		http:    client,
	}
}

// BaseURL turns a bind address such as ":8000" or "0.0.0.0:8000" into a
// loopback URL the CLI can dial.
func BaseURL(bind string) string {
	bind = strings.TrimSpace(bind)
	if strings.HasPrefix(bind, "http://") || strings.HasPrefix(bind, "https://") {
		return strings.TrimRight(bind, "/")
	}
	host, port, found := strings.Cut(bind, ":")
	if !found {
		return "http://" + bind
	}
	switch host {
	case "", "0.0.0.0", "[::]", "::":
		host = "127.0.0.1"
	}
	return "http://" + host + ":" + port
}

func (c *apiClient) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

func (c *apiClient) Stats(ctx context.Context) (map[string]int, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}
	return status.Workflow.QueueStats, nil
}

func (c *apiClient) List(ctx context.Context, statuses []string) ([]api.QueueEntry, error) {
	if _, err := parseStatuses(statuses); err != nil {
		return nil, err
	}
	query := url.Values{}
	for _, status := range statuses {
		if trimmed := strings.TrimSpace(status); trimmed != "" {
			query.Add("status", trimmed)
		}
	}
	path := "/api/queue"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var resp api.QueueListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *apiClient) Describe(ctx context.Context, id int64) (*api.QueueEntry, error) {
	var resp api.QueueEntryResponse
	err := c.do(ctx, http.MethodGet, "/api/queue/"+strconv.FormatInt(id, 10), nil, &resp)
	var statusErr *statusError
	if errors.As(err, &statusErr) && statusErr.code == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp.Item, nil
}

func (c *apiClient) Retry(ctx context.Context, ids []int64) (int64, error) {
	var resp api.QueueMutationResponse
	err := c.do(ctx, http.MethodPost, "/api/queue/retry", api.QueueRetryRequest{IDs: ids}, &resp)
	return resp.Updated, err
}

func (c *apiClient) ClearCompleted(ctx context.Context) (int64, error) {
	var resp api.QueueMutationResponse
	err := c.do(ctx, http.MethodPost, "/api/queue/clear-completed", nil, &resp)
	return resp.Updated, err
}

func (c *apiClient) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		_ = json.Unmarshal(payload, &apiErr)
		return &statusError{code: resp.StatusCode, message: apiErr.Error}
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseStatuses(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", trimmed)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// FetchStatus reads the daemon status from the operator API.
func FetchStatus(ctx context.Context, baseURL, token string) (api.DaemonStatus, error) {
	return newAPIClient(baseURL, token, nil).Status(ctx)
}
