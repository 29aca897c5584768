package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
)

// maxStreamLineSize bounds a single SSE event line (1MB).
const maxStreamLineSize = 1 << 20

// streamReader reads Server-Sent Events from the backend's streaming
// response body, yielding each data payload verbatim.
type streamReader struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func newStreamReader(body io.ReadCloser) *streamReader {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLineSize)

	return &streamReader{
		body:    body,
		scanner: scanner,
	}
}

// Read returns the next SSE data payload.
// Returns nil, io.EOF when the stream ends cleanly (connection closed or
// the backend sent the [DONE] marker). Returns nil, error on failure.
func (s *streamReader) Read(ctx context.Context) ([]byte, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, &StreamError{
					Message: "reading backend stream",
					Cause:   err,
				}
			}
			return nil, io.EOF
		}

		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		// Skip comments, event types, and other non-data lines.
		data, ok := bytes.CutPrefix(line, []byte("data: "))
		if !ok {
			continue
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			return nil, io.EOF
		}

		// Copy out of the scanner's buffer before the next Scan.
		payload := make([]byte, len(data))
		copy(payload, data)
		return payload, nil
	}
}

// Close closes the underlying response body.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}

// Stream sends a streaming completion request and returns a channel of
// chunks in backend arrival order.
//
// The channel is closed on clean end of stream. A mid-stream failure
// delivers exactly one terminal chunk with Err set before the close, so
// truncation is never silent. The stream is single consumption; cancel
// ctx to abort it and release the backend connection.
func (c *Client) Stream(ctx context.Context, payload *ChatPayload) (<-chan StreamChunk, error) {
	payload.Stream = true

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streaming.Do(req)
	if err != nil {
		return nil, c.classify(err, c.cfg.StreamTimeout)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       string(errBody),
		}
	}

	reader := newStreamReader(resp.Body)
	chunks := make(chan StreamChunk, 100)

	go func() {
		defer close(chunks)
		defer reader.Close()

		for {
			data, err := reader.Read(ctx)
			if err != nil {
				if err == io.EOF {
					return
				}
				if ctx.Err() == context.Canceled {
					// Consumer cancelled; nobody is listening.
					return
				}

				slog.Debug("backend stream terminated", "error", err)

				terminal := err
				var netErr net.Error
				if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
					terminal = &TimeoutError{Timeout: c.cfg.StreamTimeout}
				}

				// Terminal error chunk; consumer may still disconnect first.
				select {
				case chunks <- StreamChunk{Err: terminal}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case chunks <- StreamChunk{Data: data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return chunks, nil
}
