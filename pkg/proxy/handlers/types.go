package handlers

import (
	"context"
	"encoding/json"
	"time"

	"halcyon-ai/promptgate/pkg/audit"
	"halcyon-ai/promptgate/pkg/prompts"
	"halcyon-ai/promptgate/pkg/upstream"
)

// TemplateResolver resolves template names to templates.
// The template cache satisfies this interface.
type TemplateResolver interface {
	Resolve(name string) (*prompts.Template, error)
}

// TemplateLister enumerates available template names.
// The template store satisfies this interface.
type TemplateLister interface {
	List() ([]string, error)
}

// Completer issues completion requests to the backend.
// The upstream client satisfies this interface.
type Completer interface {
	Complete(ctx context.Context, payload *upstream.ChatPayload) (json.RawMessage, error)
	Stream(ctx context.Context, payload *upstream.ChatPayload) (<-chan upstream.StreamChunk, error)
}

// LivenessReporter reports the backend's health state.
// The liveness monitor satisfies this interface.
type LivenessReporter interface {
	Status(ctx context.Context) upstream.State
}

// Metrics receives request-level telemetry.
// The telemetry collector satisfies this interface.
type Metrics interface {
	RecordRequest(model, mode, status string, duration time.Duration)
	RecordTokens(model string, promptTokens, completionTokens int)
	RecordStreamChunks(model string, chunks int)
	RecordUpstreamError(kind string)
}

// AuditSink receives completed request records.
// The audit recorder satisfies this interface.
type AuditSink interface {
	RecordCompletion(record *audit.Record)
}
