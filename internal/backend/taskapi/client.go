// Package taskapi implements service.Service against the task REST API.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskctl/internal/config"
	"taskctl/internal/service"
	"taskctl/internal/session"
)

const (
	// APITimeout is the default timeout for API calls.
	APITimeout = config.DefaultTimeout

	// RequestIDHeader carries a per-call UUID for log correlation.
	RequestIDHeader = "X-Request-ID"

	tasksPath    = "/tasks"
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
)

// Client implements service.Service and service.Authenticator.
// The session is read on every call; a token, when present, is sent as
// "Authorization: Bearer <token>".
type Client struct {
	baseURL string
	http    *http.Client
	sess    session.Provider
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a client for the configured API URL.
func New(cfg *config.Config, sess session.Provider, logger *slog.Logger) *Client {
	c := NewWithHTTPClient(cfg.APIURL, http.DefaultClient, sess)
	if cfg.Timeout > 0 {
		c.timeout = cfg.Timeout
	}
	if logger != nil {
		c.logger = logger
	}
	return c
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
// sess may be nil, in which case requests are sent without credentials.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, sess session.Provider) *Client {
	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		sess:    sess,
		timeout: APITimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// ListAll returns every task.
func (c *Client) ListAll(ctx context.Context) ([]service.Task, error) {
	return c.list(ctx, "list tasks", nil)
}

// ListByStatus returns tasks with the given status.
func (c *Client) ListByStatus(ctx context.Context, status service.Status) ([]service.Task, error) {
	return c.list(ctx, "list tasks by status", url.Values{"status": {string(status)}})
}

// ListByPriority returns tasks with the given priority.
func (c *Client) ListByPriority(ctx context.Context, priority service.Priority) ([]service.Task, error) {
	return c.list(ctx, "list tasks by priority", url.Values{"priority": {string(priority)}})
}

// Search returns tasks whose title contains text.
func (c *Client) Search(ctx context.Context, text string) ([]service.Task, error) {
	return c.list(ctx, "search tasks", url.Values{"search": {text}})
}

func (c *Client) list(ctx context.Context, op string, query url.Values) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, op, http.MethodGet, tasksPath, query, nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// Get returns one task.
func (c *Client) Get(ctx context.Context, id service.TaskID) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, "get task", http.MethodGet, taskPath(id), nil, nil, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Create stores a new task.
func (c *Client) Create(ctx context.Context, d service.Draft) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, "create task", http.MethodPost, tasksPath, nil, d, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Update replaces the editable fields of a task.
func (c *Client) Update(ctx context.Context, id service.TaskID, d service.Draft) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, "update task", http.MethodPut, taskPath(id), nil, d, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// Delete removes a task. The response body is ignored.
func (c *Client) Delete(ctx context.Context, id service.TaskID) error {
	return c.do(ctx, "delete task", http.MethodDelete, taskPath(id), nil, nil, nil)
}

// Login exchanges a username and password for a token.
func (c *Client) Login(ctx context.Context, username, password string) (service.Credentials, error) {
	body := map[string]string{"username": username, "password": password}
	var creds service.Credentials
	if err := c.do(ctx, "login", http.MethodPost, loginPath, nil, body, &creds); err != nil {
		return service.Credentials{}, err
	}
	return checkCredentials("login", creds)
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, email, password string) (service.Credentials, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var creds service.Credentials
	if err := c.do(ctx, "register", http.MethodPost, registerPath, nil, body, &creds); err != nil {
		return service.Credentials{}, err
	}
	return checkCredentials("register", creds)
}

func checkCredentials(op string, creds service.Credentials) (service.Credentials, error) {
	if creds.Token == "" {
		return service.Credentials{}, &service.RemoteError{Op: op, Err: fmt.Errorf("malformed response: missing token")}
	}
	return creds, nil
}

func taskPath(id service.TaskID) string {
	return tasksPath + "/" + url.PathEscape(string(id))
}

// httpClient returns the base client, wrapped with a bearer-token transport
// when the session carries a token.
func (c *Client) httpClient(ctx context.Context) *http.Client {
	if c.sess == nil {
		return c.http
	}
	token := c.sess.Current().Token
	if token == "" {
		return c.http
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
}

// do performs one request/response exchange. Every failure is returned as a
// *service.RemoteError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &service.RemoteError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return &service.RemoteError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient(ctx).Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "method", method, "path", path, "request_id", requestID, "err", err)
		return &service.RemoteError{Op: op, Err: wrapTransportError(err)}
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(start),
	)

	if err := googleapi.CheckResponse(resp); err != nil {
		return &service.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &service.RemoteError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}

// wrapTransportError shortens timeouts to a readable message.
func wrapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}
