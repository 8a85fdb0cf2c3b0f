package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/okian/alsip/internal/domain/goal"
	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/streak"
	"github.com/okian/alsip/internal/domain/types"
)

const idempotencyHeader = "Idempotency-Key"

// StatusError is returned for a non-2xx response.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client calls the learning tracker HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL using h, or a client with the
// default transport when h is nil.
func NewClient(baseURL string, h *http.Client) *Client {
	if h == nil {
		h = &http.Client{}
	}
	return &Client{baseURL: baseURL, http: h}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "", nil)
}

// CreateGoal creates a goal and returns its summary.
func (c *Client) CreateGoal(ctx context.Context, in types.NewGoal) (goal.Summary, error) {
	var out goal.Summary
	err := c.do(ctx, http.MethodPost, "/v1/goals", in, "", &out)
	return out, err
}

// AddSkill adds a named skill to a goal.
func (c *Client) AddSkill(ctx context.Context, goalID, name string) (model.Skill, error) {
	var out model.Skill
	err := c.do(ctx, http.MethodPost, "/v1/goals/"+url.PathEscape(goalID)+"/skills", map[string]string{"name": name}, "", &out)
	return out, err
}

// CompleteSession posts a session under the given idempotency key.
func (c *Client) CompleteSession(ctx context.Context, key string, in types.Session) (types.SessionResult, error) {
	var out types.SessionResult
	err := c.do(ctx, http.MethodPost, "/v1/sessions", in, key, &out)
	return out, err
}

// Streak observes owner's streak on date.
func (c *Client) Streak(ctx context.Context, owner string, date model.Date) (streak.Status, error) {
	var out streak.Status
	path := "/v1/users/" + url.PathEscape(owner) + "/streak?date=" + url.QueryEscape(date.String())
	err := c.do(ctx, http.MethodGet, path, nil, "", &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, key string, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
