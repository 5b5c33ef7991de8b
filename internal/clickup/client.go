// Package clickup is a minimal ClickUp v2 REST client covering what the
// pipeline needs: list tasks, create task, update task, post comment.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/gutworks/gutautomate/internal/task"
)

const defaultBaseURL = "https://api.clickup.com/api/v2"

// ClickUp allows 100 requests per minute on the free plan.
const defaultRequestsPerMinute = 100

// Config holds client configuration.
type Config struct {
	// Token is the personal API token (pk_...). Required.
	Token string

	// BaseURL overrides the API endpoint. Tests point this at a local
	// server. Default: the public v2 API.
	BaseURL string

	// RequestsPerMinute caps the request rate. Default: 100.
	RequestsPerMinute int

	// HTTPClient overrides the transport. Default: 30s timeout client.
	HTTPClient *http.Client
}

// Client talks to the ClickUp API. All calls honor the context and are
// rate-limited; transport and API errors propagate to the caller
// uninterpreted, wrapped with request context.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// APIError is a non-2xx response from ClickUp.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clickup API error: status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a ClickUp client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("clickup token is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = defaultRequestsPerMinute
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    baseURL,
		token:      cfg.Token,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm/10+1),
	}, nil
}

// ListTasks fetches all open tasks in a list, following pagination. This
// is the one snapshot fetch per destination list per run — callers must
// not re-fetch per candidate.
func (c *Client) ListTasks(ctx context.Context, listID string) ([]*task.Task, error) {
	var all []*task.Task
	for page := 0; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))

		var resp listTasksResponse
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/list/%s/task?%s", listID, q.Encode()), nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list tasks for list %s: %w", listID, err)
		}
		for i := range resp.Tasks {
			all = append(all, resp.Tasks[i].toTask())
		}
		if resp.LastPage || len(resp.Tasks) == 0 {
			break
		}
	}
	return all, nil
}

// CreateTask creates a task in the given list and returns it with its
// assigned ID and URL.
func (c *Client) CreateTask(ctx context.Context, listID string, t *task.Task) (*task.Task, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	body := createTaskRequest{
		Name:        t.Name,
		Description: t.Description,
		Assignees:   t.Assignees,
	}
	if t.DueDate != nil {
		body.DueDate = t.DueDate.UnixMilli()
	}

	var created apiTask
	if err := c.do(ctx, http.MethodPost, "/list/"+listID+"/task", body, &created); err != nil {
		return nil, fmt.Errorf("failed to create task %q: %w", t.Name, err)
	}
	out := created.toTask()
	if out.ListID == "" {
		out.ListID = listID
	}
	return out, nil
}

// TaskUpdate carries the fields an update may change. Nil fields are left
// untouched.
type TaskUpdate struct {
	Description *string
	DueDate     *time.Time
	Assignees   *AssigneeUpdate
}

// AssigneeUpdate patches the assignee set. The API takes deltas, not the
// full list, so callers diff the old and new sets themselves.
type AssigneeUpdate struct {
	Add    []string `json:"add,omitempty"`
	Remove []string `json:"rem,omitempty"`
}

func (a *AssigneeUpdate) empty() bool {
	return len(a.Add) == 0 && len(a.Remove) == 0
}

// UpdateTask applies the non-nil fields of upd to an existing task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, upd TaskUpdate) error {
	body := map[string]any{}
	if upd.Description != nil {
		body["description"] = *upd.Description
	}
	if upd.DueDate != nil {
		body["due_date"] = upd.DueDate.UnixMilli()
	}
	if upd.Assignees != nil && !upd.Assignees.empty() {
		body["assignees"] = upd.Assignees
	}
	if len(body) == 0 {
		return nil
	}
	if err := c.do(ctx, http.MethodPut, "/task/"+taskID, body, nil); err != nil {
		return fmt.Errorf("failed to update task %s: %w", taskID, err)
	}
	return nil
}

// AddComment posts a comment on a task.
func (c *Client) AddComment(ctx context.Context, taskID, text string) error {
	body := map[string]string{"comment_text": text}
	if err := c.do(ctx, http.MethodPost, "/task/"+taskID+"/comment", body, nil); err != nil {
		return fmt.Errorf("failed to comment on task %s: %w", taskID, err)
	}
	return nil
}

// do performs one rate-limited API request, decoding the JSON response
// into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Body: truncate(string(data), 200)}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
