package audit

import (
	"context"
	"fmt"
	"time"
)

// Record is a single audit entry describing one completion request.
type Record struct {
	// ID is a unique identifier assigned by the recorder.
	ID string `json:"id"`

	// RequestID correlates the record with request logs.
	RequestID string `json:"request_id"`

	// Timestamp is when the request started.
	Timestamp time.Time `json:"timestamp"`

	// Model is the model name from the request body.
	Model string `json:"model"`

	// Prompt is the template name applied to the request, empty when none.
	Prompt string `json:"prompt,omitempty"`

	// Mode is "buffered" or "stream".
	Mode string `json:"mode"`

	// Status is "success" or "error".
	Status string `json:"status"`

	// StatusCode is the HTTP status returned to the client.
	StatusCode int `json:"status_code"`

	// ErrorKind classifies the failure when Status is "error".
	ErrorKind string `json:"error_kind,omitempty"`

	// LatencyMS is the end-to-end request duration in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Token counts as reported by the backend, zero for streams.
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	// Chunks is the number of chunks relayed for streaming requests.
	Chunks int `json:"chunks"`
}

// Storage is the persistence backend for audit records.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// DeleteBefore removes records older than cutoff and returns the
	// number deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the total number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteOldest removes the n oldest records and returns the number
	// deleted.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Close releases backend resources.
	Close() error
}

// StorageError wraps a failure from a storage backend.
type StorageError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s: %s: %v", e.Backend, e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a StorageError for the given backend and operation.
func NewStorageError(backend, operation string, err error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Err: err}
}
