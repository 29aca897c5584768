package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"halcyon-ai/promptgate/pkg/config"
)

// Client is the pooled HTTP client for the inference backend.
//
// One transport is created at startup and shared by the buffered,
// streaming, and probe tiers; Close releases its idle connections at
// shutdown. The client is safe for concurrent use.
type Client struct {
	cfg       config.UpstreamConfig
	transport *http.Transport

	// buffered and streaming share the transport but carry the timeout
	// of their tier.
	buffered  *http.Client
	streaming *http.Client
	probe     *http.Client
}

// NewClient creates a backend client with a pooled transport.
func NewClient(cfg config.UpstreamConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		cfg:       cfg,
		transport: transport,
		buffered: &http.Client{
			Transport: transport,
			Timeout:   cfg.CompletionTimeout,
		},
		streaming: &http.Client{
			Transport: transport,
			Timeout:   cfg.StreamTimeout,
		},
		// Probe timeouts come from the caller's context.
		probe: &http.Client{
			Transport: transport,
		},
	}
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// completionURL returns the full backend chat-completion endpoint.
func (c *Client) completionURL() string {
	return c.cfg.BaseURL + c.cfg.CompletionPath
}

// Complete sends a buffered completion request and returns the backend's
// JSON body verbatim.
//
// Transient failures (connection errors, 5xx) are retried up to
// MaxRetries times with exponential backoff; the default is zero
// retries. Fails with *UnreachableError, *UpstreamError, *TimeoutError,
// or *MalformedError.
func (c *Client) Complete(ctx context.Context, payload *ChatPayload) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			slog.Debug("retrying completion request",
				"attempt", attempt,
				"max_retries", c.cfg.MaxRetries,
				"backoff", backoff,
			)

			select {
			case <-ctx.Done():
				return nil, c.classify(ctx.Err(), c.cfg.CompletionTimeout)
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionURL(), bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.buffered.Do(req)
		if err != nil {
			lastErr = c.classify(err, c.cfg.CompletionTimeout)

			// Only connection-level failures are retryable.
			var unreachable *UnreachableError
			if errors.As(lastErr, &unreachable) {
				slog.Warn("completion request failed, backend unreachable",
					"attempt", attempt+1,
					"error", err,
				)
				continue
			}
			return nil, lastErr
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = c.classify(readErr, c.cfg.CompletionTimeout)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if !json.Valid(respBody) {
				return nil, &MalformedError{Cause: fmt.Errorf("response is not valid JSON")}
			}
			return json.RawMessage(respBody), nil
		}

		lastErr = &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}

		if resp.StatusCode < 500 {
			return nil, lastErr
		}

		slog.Warn("completion request returned error status",
			"status", resp.StatusCode,
			"attempt", attempt+1,
		)
	}

	return nil, lastErr
}

// Probe issues a lightweight GET against the given backend path.
// The caller bounds it with a context timeout. A response with status
// below 500 counts as success.
func (c *Client) Probe(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating probe request: %w", err)
	}

	resp, err := c.probe.Do(req)
	if err != nil {
		return c.classify(err, 0)
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return &UpstreamError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Close releases the transport's idle connections. In-flight requests
// are unaffected.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	slog.Debug("upstream client closed")
	return nil
}

// classify maps a transport-level error to the client's error taxonomy.
func (c *Client) classify(err error, timeout time.Duration) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		if timeout == 0 {
			return &UnreachableError{Cause: err}
		}
		return &TimeoutError{Timeout: timeout}
	}

	return &UnreachableError{Cause: err}
}
