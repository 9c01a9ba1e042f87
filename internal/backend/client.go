// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jeranaias/sqlchat-tui/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches client errors by type, so errors.Is(err, ErrNotRunning) holds
// for any connection failure regardless of cause.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeCancelled
	ErrTypeStatus
	ErrTypeInvalidResponse
)

// String returns a short name for the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotRunning:
		return "not_running"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeCancelled:
		return "cancelled"
	case ErrTypeStatus:
		return "status"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Sentinel errors for easy checking.
var (
	ErrNotRunning      = &ClientError{Type: ErrTypeNotRunning, Message: "backend is not reachable"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCancelled       = &ClientError{Type: ErrTypeCancelled, Message: "request cancelled"}
	ErrBadStatus       = &ClientError{Type: ErrTypeStatus, Message: "network response was not ok"}
	ErrInvalidResponse = &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid response"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

const (
	DefaultBaseURL    = "http://127.0.0.1:5000"
	DefaultQueryPath  = "/api/query"
	DefaultResultPath = "/api/result"
)

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the service base URL (default: http://127.0.0.1:5000)
	BaseURL string

	// QueryPath is the submission endpoint (default: /api/query)
	QueryPath string

	// ResultPath is the result endpoint (default: /api/result)
	ResultPath string

	// Timeout per request. Zero means no timeout beyond the caller's context.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64

	// Logger receives request diagnostics. Nil disables logging.
	Logger *zerolog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:    DefaultBaseURL,
		QueryPath:  DefaultQueryPath,
		ResultPath: DefaultResultPath,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the SQL generation service over HTTP.
//
// The Client is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.QueryPath == "" {
		config.QueryPath = DefaultQueryPath
	}
	if config.ResultPath == "" {
		config.ResultPath = DefaultResultPath
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: zerolog.Nop(),
	}
	if config.Logger != nil {
		c.logger = config.Logger.With().Str("component", "backend").Logger()
	}
	if config.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	return c
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// QueryURL returns the full submission endpoint URL.
func (c *Client) QueryURL() string {
	return c.config.BaseURL + c.config.QueryPath
}

// ResultURL returns the full result endpoint URL.
func (c *Client) ResultURL() string {
	return c.config.BaseURL + c.config.ResultPath
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SubmitQuery posts query to the submission endpoint. Any 2xx response is
// success; its JSON body is only logged.
func (c *Client) SubmitQuery(ctx context.Context, query string) error {
	body, err := json.Marshal(QueryRequest{Query: query})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.QueryURL(), bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeNotRunning, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}
	if len(bytes.TrimSpace(data)) > 0 {
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
		}
		c.logger.Debug().Interface("response", decoded).Msg("query accepted")
	}
	return nil
}

// FetchResult reads the service's latest answer. The answer is returned as
// sent; escape sequences are not interpreted.
func (c *Client) FetchResult(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResultURL(), nil)
	if err != nil {
		return "", &ClientError{Type: ErrTypeNotRunning, Message: "failed to create request", Cause: err}
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result resultResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}

	// null decodes into a string without error, so it is rejected by hand.
	var answer string
	raw := bytes.TrimSpace(result.Response)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || json.Unmarshal(raw, &answer) != nil {
		return "", &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: fmt.Sprintf("response field is not a string: %s", util.TruncateRunes(string(result.Response), 64)),
		}
	}

	c.logger.Debug().Int("bytes", len(answer)).Msg("result fetched")
	return answer, nil
}

// Ping probes the result endpoint and reports latency and the current answer.
func (c *Client) Ping(ctx context.Context) (*PingResult, error) {
	start := time.Now()
	answer, err := c.FetchResult(ctx)
	if err != nil {
		return nil, err
	}
	return &PingResult{
		URL:     c.ResultURL(),
		Latency: time.Since(start),
		Answer:  answer,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// do throttles, sends the request, and maps failures onto ClientError.
// A non-2xx response is closed and reported as ErrTypeStatus.
func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, classifyTransportError(ctx, err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("request failed")
		return nil, classifyTransportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &ClientError{
			Type:       ErrTypeStatus,
			Message:    "unexpected status from backend: " + resp.Status,
			StatusCode: resp.StatusCode,
		}
	}
	return resp, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: ctxErr}
		}
		return &ClientError{Type: ErrTypeCancelled, Message: ErrCancelled.Message, Cause: ctxErr}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
}
