package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"halcyon-ai/promptgate/internal/upstreamtest"
	"halcyon-ai/promptgate/pkg/audit"
	"halcyon-ai/promptgate/pkg/config"
	"halcyon-ai/promptgate/pkg/prompts"
	"halcyon-ai/promptgate/pkg/proxy/types"
	"halcyon-ai/promptgate/pkg/upstream"
)

type fakeAuditSink struct {
	mu      sync.Mutex
	records []*audit.Record
}

func (s *fakeAuditSink) RecordCompletion(record *audit.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
}

func (s *fakeAuditSink) last(t *testing.T) *audit.Record {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		t.Fatal("no audit records")
	}
	return s.records[len(s.records)-1]
}

type gatewayFixture struct {
	backend *upstreamtest.Backend
	gateway *Gateway
	sink    *fakeAuditSink
}

func newGatewayFixture(t *testing.T, replaceSystem bool) *gatewayFixture {
	t.Helper()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "helpful.txt"), []byte("You are a helpful assistant."), 0o644); err != nil {
		t.Fatal(err)
	}

	cache, err := prompts.NewCache(prompts.NewFileStore(root), 8, nil)
	if err != nil {
		t.Fatal(err)
	}

	backend := upstreamtest.NewBackend()
	t.Cleanup(backend.Close)

	client := upstream.NewClient(config.UpstreamConfig{
		BaseURL:             backend.URL(),
		CompletionPath:      "/v1/chat/completions",
		CompletionTimeout:   5 * time.Second,
		StreamTimeout:       5 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	})
	t.Cleanup(func() { client.Close() })

	sink := &fakeAuditSink{}
	return &gatewayFixture{
		backend: backend,
		gateway: NewGateway(cache, client, replaceSystem, nil, sink),
		sink:    sink,
	}
}

const userMessage = `{"model":"llama-3","messages":[{"role":"user","content":"hi"}]}`

func TestGatewayBufferedRelay(t *testing.T) {
	f := newGatewayFixture(t, false)

	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(userMessage))
	w := httptest.NewRecorder()
	f.gateway.ServeHTTP(w, r)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != upstreamtest.DefaultResponse {
		t.Errorf("backend body not relayed verbatim:\ngot  %s\nwant %s", w.Body.String(), upstreamtest.DefaultResponse)
	}

	record := f.sink.last(t)
	if record.Status != "success" || record.Mode != "buffered" {
		t.Errorf("unexpected audit record: %+v", record)
	}
	if record.TotalTokens != 4 {
		t.Errorf("expected token usage in audit record, got %d", record.TotalTokens)
	}
}

func TestGatewayInjectsTemplate(t *testing.T) {
	f := newGatewayFixture(t, false)

	r := httptest.NewRequest("POST", "/v1/chat/completions?prompt=helpful", strings.NewReader(userMessage))
	w := httptest.NewRecorder()
	f.gateway.ServeHTTP(w, r)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var sent upstream.ChatPayload
	if err := json.Unmarshal(f.backend.LastPayload(), &sent); err != nil {
		t.Fatalf("backend payload invalid: %v", err)
	}

	if len(sent.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sent.Messages))
	}
	if sent.Messages[0].Role != upstream.RoleSystem {
		t.Errorf("expected template system message first, got %q", sent.Messages[0].Role)
	}
	if sent.Messages[0].Content != "You are a helpful assistant." {
		t.Errorf("unexpected template content: %v", sent.Messages[0].Content)
	}
	if sent.Messages[1].Content != "hi" {
		t.Errorf("client message changed: %v", sent.Messages[1].Content)
	}
	if sent.Temperature != types.DefaultTemperature {
		t.Errorf("expected default temperature, got %v", sent.Temperature)
	}
	if sent.MaxTokens != types.DefaultMaxTokens {
		t.Errorf("expected default max_tokens, got %v", sent.MaxTokens)
	}
}

func TestGatewayUnknownTemplate(t *testing.T) {
	f := newGatewayFixture(t, false)

	r := httptest.NewRequest("POST", "/v1/chat/completions?prompt=nonexistent", strings.NewReader(userMessage))
	w := httptest.NewRecorder()
	f.gateway.ServeHTTP(w, r)

	if w.Code != 404 {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if f.backend.RequestCount() != 0 {
		t.Errorf("backend must not be contacted for unknown templates, saw %d requests", f.backend.RequestCount())
	}

	var resp types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error response not valid JSON: %v", err)
	}
	if resp.Error.Code != types.CodeTemplateNotFound {
		t.Errorf("unexpected error code: %s", resp.Error.Code)
	}
}

func TestGatewayInvalidBody(t *testing.T) {
	f := newGatewayFixture(t, false)

	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(`{"model":"m"}`))
	w := httptest.NewRecorder()
	f.gateway.ServeHTTP(w, r)

	if w.Code != 400 {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if f.backend.RequestCount() != 0 {
		t.Error("backend must not be contacted for invalid requests")
	}
}

func TestGatewayBackendFailure(t *testing.T) {
	f := newGatewayFixture(t, false)
	f.backend.SetResponse(500, `{"error":"cuda out of memory"}`)

	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(userMessage))
	w := httptest.NewRecorder()
	f.gateway.ServeHTTP(w, r)

	if w.Code != 500 {
		t.Fatalf("expected status 500, got %d", w.Code)
	}

	var resp types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resp.Error.Message, "cuda out of memory") {
		t.Errorf("expected backend detail in message, got %q", resp.Error.Message)
	}

	record := f.sink.last(t)
	if record.Status != "error" || record.ErrorKind != "status" {
		t.Errorf("unexpected audit record: %+v", record)
	}
}

const streamRequest = `{"model":"llama-3","messages":[{"role":"user","content":"hi"}],"stream":true}`

func TestGatewayStreamingRelay(t *testing.T) {
	f := newGatewayFixture(t, false)
	f.backend.SetStreamChunks(
		`{"choices":[{"delta":{"content":"a"}}]}`,
		`{"choices":[{"delta":{"content":"b"}}]}`,
		`{"choices":[{"delta":{"content":"c"}}]}`,
	)

	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(streamRequest))
	w := httptest.NewRecorder()
	f.gateway.ServeHTTP(w, r)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("unexpected content type: %s", got)
	}

	body := w.Body.String()
	want := "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"c\"}}]}\n\n" +
		"data: [DONE]\n\n"
	if body != want {
		t.Errorf("stream not relayed verbatim:\ngot  %q\nwant %q", body, want)
	}

	record := f.sink.last(t)
	if record.Status != "success" || record.Chunks != 3 {
		t.Errorf("unexpected audit record: %+v", record)
	}
}

func TestGatewayStreamingMidFailure(t *testing.T) {
	f := newGatewayFixture(t, false)
	f.backend.SetStreamChunks(`{"n":1}`, `{"n":2}`, `{"n":3}`, `{"n":4}`)
	f.backend.AbortAfter(2)

	r := httptest.NewRequest("POST", "/v1/chat/completions", strings.NewReader(streamRequest))
	w := httptest.NewRecorder()
	f.gateway.ServeHTTP(w, r)

	body := w.Body.String()

	if !strings.Contains(body, `data: {"n":1}`) || !strings.Contains(body, `data: {"n":2}`) {
		t.Errorf("expected relayed chunks before the failure, got %q", body)
	}
	if !strings.Contains(body, `"error"`) {
		t.Errorf("expected in-band error record, got %q", body)
	}
	if strings.Contains(body, "[DONE]") {
		t.Errorf("truncated stream must not end with [DONE], got %q", body)
	}

	record := f.sink.last(t)
	if record.Status != "error" {
		t.Errorf("unexpected audit status: %+v", record)
	}
}
