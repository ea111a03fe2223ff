// Package taskapi implements the service.Service interface against the Task
// Magic REST API.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskmagic/internal/config"
	"taskmagic/internal/service"
	"taskmagic/internal/session"
)

// RequestIDHeader carries a per-request UUID for correlating server logs.
const RequestIDHeader = "X-Request-ID"

// Client implements service.Service over HTTP/JSON.
type Client struct {
	baseURL string
	// anon is used for login; authed attaches the bearer token and is nil
	// without a session.
	anon    *http.Client
	authed  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a client for cfg.APIURL. sess may be nil, in which case only
// Login is usable.
func New(ctx context.Context, cfg *config.Config, sess *session.Session) (*Client, error) {
	return NewWithHTTPClient(ctx, cfg, sess, http.DefaultClient)
}

// NewWithHTTPClient is New with an explicit base HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, cfg *config.Config, sess *session.Session, base *http.Client) (*Client, error) {
	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return nil, fmt.Errorf("invalid api_url %q: %w", cfg.APIURL, err)
	}
	c := &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		anon:    base,
		timeout: cfg.Timeout,
		logger:  cfg.Log(),
	}
	if c.timeout <= 0 {
		c.timeout = config.DefaultTimeout
	}
	if sess != nil {
		// oauth2.NewClient wraps the client found under oauth2.HTTPClient.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		c.authed = oauth2.NewClient(ctx, sess.TokenSource())
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
// The only failure signal the API gives is a missing token, so the status
// code is not inspected.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.send(ctx, c.anon, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Debug("login response not decodable", zap.Int("status", resp.StatusCode), zap.Error(err))
		return "", service.ErrLoginFailed
	}
	if strings.TrimSpace(body.Token) == "" {
		c.logger.Debug("login response without token", zap.Int("status", resp.StatusCode))
		return "", service.ErrLoginFailed
	}
	return body.Token, nil
}

// ListTasks returns every task in server order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, t service.NewTask) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", t, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateTasks asks the server to create tasks from prompt.
func (c *Client) GenerateTasks(ctx context.Context, prompt string) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/ai", generateRequest{Prompt: prompt}, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

type statusRequest struct {
	Status service.Status `json:"status"`
}

// UpdateStatus sends only the new status and returns the full task.
func (c *Client) UpdateStatus(ctx context.Context, id string, status service.Status) (service.Task, error) {
	var task service.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), statusRequest{Status: status}, &task); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task. Any 2xx status is success; the body is ignored.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

// do performs an authenticated call and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.authed == nil {
		return service.ErrNotLoggedIn
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.send(ctx, c.authed, method, path, in)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return classify(err)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from %s %s: %w", method, path, err)
	}
	return nil
}

// send builds and issues one request under the caller's deadline.
// Transport failures come back wrapped in service.ErrTransient.
func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", reqID),
			zap.Error(err))
		return nil, wrapTransport(err)
	}
	c.logger.Debug("api request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))
	return resp, nil
}

// wrapTransport classifies errors returned by http.Client.Do.
func wrapTransport(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out", service.ErrTransient)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", service.ErrTransient, err)
}

// classify maps a non-2xx response onto the service error classes.
func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	msg := strings.TrimSpace(gerr.Message)
	if msg == "" {
		msg = strings.TrimSpace(gerr.Body)
	}
	if msg == "" {
		msg = http.StatusText(gerr.Code)
	}

	switch {
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return service.ErrUnauthorized
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: server returned %d: %s", service.ErrNotFound, gerr.Code, msg)
	case gerr.Code == http.StatusBadRequest || gerr.Code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", service.ErrValidation, msg)
	case gerr.Code == http.StatusTooManyRequests || gerr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: server returned %d: %s", service.ErrTransient, gerr.Code, msg)
	default:
		return fmt.Errorf("server returned %d: %s", gerr.Code, msg)
	}
}
