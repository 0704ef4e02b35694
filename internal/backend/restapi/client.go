// Package restapi implements the service.Service interface over the task REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"taskmgr/internal/config"
	"taskmgr/internal/logging"
	"taskmgr/internal/service"
)

const (
	// APITimeout is the default timeout for API calls.
	APITimeout = 5 * time.Second

	// RequestIDHeader carries a per-request UUID.
	RequestIDHeader = "X-Request-ID"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 1 << 20
)

// ErrTimeout is the cause of a NetworkError when the call exceeded its timeout.
var ErrTimeout = errors.New("request timed out")

// ErrMissingID is returned when the server answers with a task lacking an id.
var ErrMissingID = errors.New("server returned a task without an id")

// Client implements service.Service using the task REST API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client from configuration. When a bearer token is
// configured or stored, requests are authenticated with it.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	baseURL, err := cfg.BaseURL()
	if err != nil {
		return nil, err
	}

	token, err := cfg.BearerToken()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	if token != nil {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}

	opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)
	return NewWithHTTPClient(baseURL, httpClient, opts...), nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		timeout: APITimeout,
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListTasks returns all tasks in server order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, "list tasks", http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}

	result := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.Persisted() {
			return nil, fmt.Errorf("list tasks: %w", ErrMissingID)
		}
		t.Normalize()
		result = append(result, t)
	}
	return result, nil
}

// GetTask returns a task by ID.
func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, "get task", http.MethodGet, taskPath(id), nil, &task); err != nil {
		return service.Task{}, err
	}
	return checkTask("get task", task)
}

// CreateTask submits a draft and returns the persisted task.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", draft, &task); err != nil {
		return service.Task{}, err
	}
	return checkTask("create task", task)
}

// UpdateTask replaces a task with draft.
func (c *Client) UpdateTask(ctx context.Context, id int64, draft service.Draft) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, "update task", http.MethodPut, taskPath(id), draft, &task); err != nil {
		return service.Task{}, err
	}
	return checkTask("update task", task)
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, "delete task", http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

func checkTask(op string, t service.Task) (service.Task, error) {
	if !t.Persisted() {
		return service.Task{}, fmt.Errorf("%s: %w", op, ErrMissingID)
	}
	t.Normalize()
	return t, nil
}

// do sends one request. A nil out discards any response body.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			"method", method, "path", path, "request_id", reqID,
			"duration", time.Since(start), "error", err)
		return &service.NetworkError{Op: op, Err: wrapTransportError(err)}
	}
	defer resp.Body.Close()

	c.log.Debug("request completed",
		"method", method, "path", path, "request_id", reqID,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp)
	}

	// 204 carries no value whatever the body says
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// remoteError converts a non-2xx response into a RemoteError. A body that is
// not valid JSON becomes an empty object.
func remoteError(resp *http.Response) error {
	var data any
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || json.Unmarshal(raw, &data) != nil || data == nil {
		data = map[string]any{}
	}
	return service.NewRemoteError(resp.StatusCode, reasonPhrase(resp), data)
}

// reasonPhrase extracts "Not Found" from a status line like "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, code))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

// wrapTransportError gives timeouts a user-friendly cause.
func wrapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
