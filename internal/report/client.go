// Package report delivers best-effort progress telemetry to the hosting
// service. Delivery never blocks or delays overlay and navigation logic;
// only a well-formed JSON response carrying a redirect influences the next
// navigation decision.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/google/uuid"

	"github.com/blockyard/stagekit/internal/domain"
)

// Report is one outbound progress notification.
type Report struct {
	App     string
	ID      uuid.UUID // run-scoped pseudo-random token
	Level   int
	Result  domain.Outcome
	Program string
}

// Response is the endpoint's reply. Redirect, when present, overrides the
// next-level URL.
type Response struct {
	Redirect string `json:"redirect"`
}

// Client posts reports to the progress endpoint with retry and a circuit
// breaker so a flapping endpoint cannot pile up work.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    circuitbreaker.CircuitBreaker[*Response]
	retrier    retry.Retry[*Response]
	logger     *slog.Logger
}

// NewClient creates a report client for the given endpoint.
func NewClient(endpoint string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}

	c.breaker = circuitbreaker.New[*Response](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("report circuit breaker state change",
				"from", from.String(),
				"to", to.String())
		},
	})

	c.retrier = retry.New[*Response](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
	})

	return c
}

// Send posts a report synchronously and returns the parsed response. Most
// callers want SendAsync; Send exists for tests and for callers that manage
// their own goroutines.
func (c *Client) Send(ctx context.Context, rep Report) (*Response, error) {
	return c.breaker.Execute(ctx, func(ctx context.Context) (*Response, error) {
		return c.retrier.Do(ctx, func(ctx context.Context) (*Response, error) {
			return c.post(ctx, rep)
		})
	})
}

// SendAsync posts a report without blocking the caller. Failures are logged
// and absorbed; telemetry is best-effort by contract. onRedirect fires only
// for a well-formed 2xx JSON response carrying a non-empty redirect.
func (c *Client) SendAsync(ctx context.Context, rep Report, onRedirect func(string)) {
	go func() {
		resp, err := c.Send(ctx, rep)
		if err != nil {
			c.logger.Debug("progress report failed", "level", rep.Level, "error", err)
			return
		}
		if resp.Redirect != "" && onRedirect != nil {
			onRedirect(resp.Redirect)
		}
	}()
}

func (c *Client) post(ctx context.Context, rep Report) (*Response, error) {
	form := url.Values{}
	form.Set("app", rep.App)
	form.Set("id", rep.ID.String())
	form.Set("level", strconv.Itoa(rep.Level))
	form.Set("result", strconv.Itoa(int(rep.Result)))
	form.Set("program", url.QueryEscape(rep.Program))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post report: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("report endpoint returned status %d", httpResp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("read report response: %w", err)
	}

	var resp Response
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			// A malformed body only costs us the redirect hint.
			c.logger.Debug("report response not parseable", "error", err)
			return &Response{}, nil
		}
	}
	return &resp, nil
}
