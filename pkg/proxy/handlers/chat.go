package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"halcyon-ai/promptgate/pkg/audit"
	"halcyon-ai/promptgate/pkg/prompts"
	"halcyon-ai/promptgate/pkg/proxy"
	"halcyon-ai/promptgate/pkg/proxy/middleware"
	"halcyon-ai/promptgate/pkg/upstream"
)

// Completion modes, used in metrics labels and audit records.
const (
	modeBuffered = "buffered"
	modeStream   = "stream"
)

// Gateway handles POST /v1/chat/completions.
//
// It parses and validates the request, resolves the template named by
// the prompt query parameter, composes the final message sequence, and
// relays the backend's response verbatim, buffered or streamed.
//
// An unknown template name fails the request with 404 before the
// backend is contacted.
type Gateway struct {
	templates     TemplateResolver
	client        Completer
	replaceSystem bool
	metrics       Metrics
	audit         AuditSink
	logger        *slog.Logger
}

// NewGateway creates the chat completions handler.
// metrics and auditSink may be nil.
func NewGateway(templates TemplateResolver, client Completer, replaceSystem bool, metrics Metrics, auditSink AuditSink) *Gateway {
	return &Gateway{
		templates:     templates,
		client:        client,
		replaceSystem: replaceSystem,
		metrics:       metrics,
		audit:         auditSink,
		logger:        slog.Default().With("component", "handlers.chat"),
	}
}

// outcome collects everything recorded about a finished request.
type outcome struct {
	model      string
	prompt     string
	mode       string
	status     string
	statusCode int
	errorKind  string
	chunks     int

	promptTokens     int
	completionTokens int
	totalTokens      int
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	requestID := middleware.GetRequestID(ctx)

	req, err := proxy.ParseChatCompletionRequest(r)
	if err != nil {
		g.logger.Warn("request rejected",
			"request_id", requestID,
			"error", err,
		)
		_ = proxy.WriteErrorResponse(w, proxy.HandleError(err))
		return
	}

	mode := modeBuffered
	if req.Stream {
		mode = modeStream
	}

	promptName := proxy.ExtractPromptName(r)

	var tmpl *prompts.Template
	if promptName != "" {
		tmpl, err = g.templates.Resolve(promptName)
		if err != nil {
			g.logger.Warn("template resolution failed",
				"request_id", requestID,
				"template", promptName,
				"error", err,
			)

			errResp := proxy.HandleError(err)
			_ = proxy.WriteErrorResponse(w, errResp)
			g.record(r, start, &outcome{
				model:      req.Model,
				prompt:     promptName,
				mode:       mode,
				status:     "error",
				statusCode: errResp.Error.HTTPStatusCode(),
				errorKind:  "template_not_found",
			})
			return
		}
	}

	messages := make([]upstream.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, upstream.Message{
			Role:       msg.Role,
			Content:    msg.Content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		})
	}

	payload := &upstream.ChatPayload{
		Model:       req.Model,
		Messages:    prompts.Compose(messages, tmpl, g.replaceSystem),
		Temperature: req.EffectiveTemperature(),
		MaxTokens:   req.EffectiveMaxTokens(),
		Stream:      req.Stream,
	}

	g.logger.Info("completion request",
		"request_id", requestID,
		"model", req.Model,
		"mode", mode,
		"template", promptName,
		"messages", len(payload.Messages),
	)

	if req.Stream {
		g.handleStream(w, r, payload, promptName, start)
		return
	}
	g.handleBuffered(w, r, payload, promptName, start)
}

// handleBuffered runs a blocking completion and relays the backend body
// byte-for-byte.
func (g *Gateway) handleBuffered(w http.ResponseWriter, r *http.Request, payload *upstream.ChatPayload, promptName string, start time.Time) {
	body, err := g.client.Complete(r.Context(), payload)
	if err != nil {
		g.logger.Error("buffered completion failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"model", payload.Model,
			"error", err,
		)

		errResp := proxy.HandleError(err)
		_ = proxy.WriteErrorResponse(w, errResp)
		g.record(r, start, &outcome{
			model:      payload.Model,
			prompt:     promptName,
			mode:       modeBuffered,
			status:     "error",
			statusCode: errResp.Error.HTTPStatusCode(),
			errorKind:  errorKind(err),
		})
		return
	}

	_ = proxy.WriteRawJSON(w, http.StatusOK, body)

	promptTokens, completionTokens, totalTokens := extractUsage(body)
	g.record(r, start, &outcome{
		model:            payload.Model,
		prompt:           promptName,
		mode:             modeBuffered,
		status:           "success",
		statusCode:       http.StatusOK,
		promptTokens:     promptTokens,
		completionTokens: completionTokens,
		totalTokens:      totalTokens,
	})
}

// handleStream relays backend SSE chunks as they arrive.
//
// Once the first chunk is written the HTTP status is committed, so a
// mid-stream failure is reported as an in-band error record and the
// [DONE] marker is withheld. Clients can always distinguish a complete
// stream (ends with [DONE]) from a truncated one.
func (g *Gateway) handleStream(w http.ResponseWriter, r *http.Request, payload *upstream.ChatPayload, promptName string, start time.Time) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	chunks, err := g.client.Stream(ctx, payload)
	if err != nil {
		// The stream never started, so a regular error status is
		// still possible.
		g.logger.Error("stream start failed",
			"request_id", requestID,
			"model", payload.Model,
			"error", err,
		)

		errResp := proxy.HandleError(err)
		_ = proxy.WriteErrorResponse(w, errResp)
		g.record(r, start, &outcome{
			model:      payload.Model,
			prompt:     promptName,
			mode:       modeStream,
			status:     "error",
			statusCode: errResp.Error.HTTPStatusCode(),
			errorKind:  errorKind(err),
		})
		return
	}

	proxy.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	relayed := 0
	var streamErr error
	writeFailed := false

	for chunk := range chunks {
		if chunk.Err != nil {
			streamErr = chunk.Err
			break
		}

		if err := proxy.WriteSSEData(w, chunk.Data); err != nil {
			g.logger.Debug("client disconnected mid-stream",
				"request_id", requestID,
				"chunks_relayed", relayed,
			)
			writeFailed = true
			break
		}
		relayed++
	}

	result := &outcome{
		model:      payload.Model,
		prompt:     promptName,
		mode:       modeStream,
		statusCode: http.StatusOK,
		chunks:     relayed,
	}

	switch {
	case streamErr != nil:
		g.logger.Error("stream failed",
			"request_id", requestID,
			"model", payload.Model,
			"chunks_relayed", relayed,
			"error", streamErr,
		)
		_ = proxy.WriteSSEError(w, proxy.HandleError(streamErr))
		result.status = "error"
		result.errorKind = errorKind(streamErr)

	case writeFailed:
		result.status = "error"
		result.errorKind = "client_disconnect"

	default:
		_ = proxy.WriteSSEDone(w)
		result.status = "success"
	}

	g.record(r, start, result)
}

// record emits the log line, metrics, and audit entry for a finished
// request.
func (g *Gateway) record(r *http.Request, start time.Time, result *outcome) {
	duration := time.Since(start)
	requestID := middleware.GetRequestID(r.Context())

	g.logger.Info("completion finished",
		"request_id", requestID,
		"model", result.model,
		"mode", result.mode,
		"status", result.status,
		"status_code", result.statusCode,
		"duration_ms", duration.Milliseconds(),
	)

	if g.metrics != nil {
		g.metrics.RecordRequest(result.model, result.mode, result.status, duration)
		if result.errorKind != "" && result.errorKind != "template_not_found" && result.errorKind != "client_disconnect" {
			g.metrics.RecordUpstreamError(result.errorKind)
		}
		if result.totalTokens > 0 {
			g.metrics.RecordTokens(result.model, result.promptTokens, result.completionTokens)
		}
		if result.mode == modeStream {
			g.metrics.RecordStreamChunks(result.model, result.chunks)
		}
	}

	if g.audit != nil {
		g.audit.RecordCompletion(&audit.Record{
			RequestID:        requestID,
			Timestamp:        start,
			Model:            result.model,
			Prompt:           result.prompt,
			Mode:             result.mode,
			Status:           result.status,
			StatusCode:       result.statusCode,
			ErrorKind:        result.errorKind,
			LatencyMS:        duration.Milliseconds(),
			PromptTokens:     result.promptTokens,
			CompletionTokens: result.completionTokens,
			TotalTokens:      result.totalTokens,
			Chunks:           result.chunks,
		})
	}
}

// errorKind classifies a backend error for metrics and audit labels.
func errorKind(err error) string {
	var unreachable *upstream.UnreachableError
	if errors.As(err, &unreachable) {
		return "unreachable"
	}

	var upstreamErr *upstream.UpstreamError
	if errors.As(err, &upstreamErr) {
		return "status"
	}

	var timeoutErr *upstream.TimeoutError
	if errors.As(err, &timeoutErr) {
		return "timeout"
	}

	var malformed *upstream.MalformedError
	if errors.As(err, &malformed) {
		return "malformed"
	}

	var streamErr *upstream.StreamError
	if errors.As(err, &streamErr) {
		return "stream"
	}

	return "other"
}

// extractUsage pulls token counts out of a buffered backend response.
// Responses without a usage block report zeroes.
func extractUsage(body []byte) (promptTokens, completionTokens, totalTokens int) {
	var parsed struct {
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}

	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, 0, 0
	}

	return parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens, parsed.Usage.TotalTokens
}
