// Package ai talks to an OpenAI-compatible chat completion endpoint to
// suggest skills for a goal.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/alsip/internal/domain/model"
	"github.com/okian/alsip/internal/domain/suggest"
	"github.com/okian/alsip/pkg/logger"
	"github.com/okian/alsip/pkg/metrics"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
	// MaxResponseBytes bounds how much of a completion response is read.
	MaxResponseBytes = 1 << 20
)

const systemPrompt = `You suggest learnable skills for a learning goal.
Respond with JSON only: {"skills": [{"name": string, "importance": "critical"|"important"|"nice_to_have", "future_proof": boolean, "reason": string}]}.`

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the API base URL, without a trailing slash.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithModel sets the chat model.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Client implements suggest.Suggester over chat completions.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
	http    *http.Client
	log     logger.Logger
}

var _ suggest.Suggester = (*Client)(nil)

// NewClient creates a client for apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   defaultModel,
		timeout: defaultTimeout,
		http:    &http.Client{},
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []message      `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest asks the model for skills. Transport failures, non-200 answers
// and unreadable envelopes wrap model.ErrSuggestion; content that is not a
// suggestion list returns suggest.ErrMalformed.
func (c *Client) Suggest(ctx context.Context, title, category string) ([]model.Suggestion, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSuggestionLatency(float64(time.Since(start).Milliseconds()))
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Goal: %s\nCategory: %s", title, category)},
		},
		Temperature:    0.4,
		ResponseFormat: responseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", model.ErrSuggestion, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", model.ErrSuggestion, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timeout after %v", model.ErrSuggestion, c.timeout)
		}
		return nil, fmt.Errorf("%w: request: %v", model.ErrSuggestion, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", model.ErrSuggestion, err)
	}
	if len(raw) > MaxResponseBytes {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", model.ErrSuggestion, MaxResponseBytes)
	}
	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: status %d: %s", model.ErrSuggestion, resp.StatusCode, raw)
	}

	var envelope chatResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decode envelope: %v", model.ErrSuggestion, err)
	}
	if len(envelope.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", model.ErrSuggestion)
	}

	out, err := ParseSuggestions(envelope.Choices[0].Message.Content)
	if err != nil {
		c.log.Warn(ctx, "unparseable suggestion content", logger.String("model", c.model), logger.Error(err))
		return nil, err
	}
	c.log.Debug(ctx, "suggestions received", logger.Int("count", len(out)))
	return out, nil
}

type rawSuggestion struct {
	Name        string `json:"name"`
	Importance  string `json:"importance"`
	FutureProof *bool  `json:"future_proof"`
	// Some models answer in camel case.
	FutureProofCamel *bool  `json:"futureProof"`
	Reason           string `json:"reason"`
}

// ParseSuggestions reads model output that is either a JSON array or an
// object with a "skills" array, optionally inside a markdown code fence.
// Entries with an unknown importance make the whole answer malformed.
func ParseSuggestions(content string) ([]model.Suggestion, error) {
	content = stripFence(content)

	var list []rawSuggestion
	if err := json.Unmarshal([]byte(content), &list); err != nil {
		var wrapped struct {
			Skills []rawSuggestion `json:"skills"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", suggest.ErrMalformed, err)
		}
		list = wrapped.Skills
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty list", suggest.ErrMalformed)
	}

	out := make([]model.Suggestion, 0, len(list))
	for i, r := range list {
		imp, ok := model.ParseImportance(r.Importance)
		if !ok || strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("%w: entry %d", suggest.ErrMalformed, i)
		}
		fp := r.FutureProof
		if fp == nil {
			fp = r.FutureProofCamel
		}
		out = append(out, model.Suggestion{
			Name:        strings.TrimSpace(r.Name),
			Importance:  imp,
			FutureProof: fp != nil && *fp,
			Reason:      strings.TrimSpace(r.Reason),
		})
	}
	return out, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
