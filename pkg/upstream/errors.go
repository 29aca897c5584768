package upstream

import (
	"fmt"
	"time"
)

// UnreachableError indicates a connection-level failure reaching the
// backend: DNS resolution, connection refused, or reset.
type UnreachableError struct {
	// Cause is the underlying network error.
	Cause error
}

// Error implements the error interface.
func (e *UnreachableError) Error() string {
	return fmt.Sprintf("backend unreachable: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *UnreachableError) Unwrap() error {
	return e.Cause
}

// UpstreamError indicates the backend responded with a non-success
// status code. Body carries the backend's error detail.
type UpstreamError struct {
	// StatusCode is the backend's HTTP status code.
	StatusCode int

	// Body is the backend's error response body.
	Body string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// TimeoutError indicates a request exceeded its timeout tier.
type TimeoutError struct {
	// Timeout is the configured timeout that was exceeded.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend request timed out after %s", e.Timeout)
}

// MalformedError indicates the backend returned an unparseable response.
type MalformedError struct {
	// Cause describes the parse failure.
	Cause error
}

// Error implements the error interface.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed backend response: %v", e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *MalformedError) Unwrap() error {
	return e.Cause
}

// StreamError indicates a failure while reading a streaming response.
// It is delivered as the terminal chunk of the stream.
type StreamError struct {
	// Message describes where the stream failed.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stream error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("stream error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}
