package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"halcyon-ai/promptgate/internal/upstreamtest"
	"halcyon-ai/promptgate/pkg/config"
)

func testConfig(baseURL string) config.UpstreamConfig {
	return config.UpstreamConfig{
		BaseURL:             baseURL,
		CompletionPath:      "/v1/chat/completions",
		CompletionTimeout:   5 * time.Second,
		StreamTimeout:       5 * time.Second,
		MaxRetries:          0,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

func testPayload() *ChatPayload {
	return &ChatPayload{
		Model: "test-model",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
		},
		Temperature: 0.7,
		MaxTokens:   100,
	}
}

func TestCompleteRelaysBodyVerbatim(t *testing.T) {
	backend := upstreamtest.NewBackend()
	defer backend.Close()

	client := NewClient(testConfig(backend.URL()))
	defer client.Close()

	body, err := client.Complete(context.Background(), testPayload())
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}

	if string(body) != upstreamtest.DefaultResponse {
		t.Errorf("body not relayed verbatim:\ngot  %s\nwant %s", body, upstreamtest.DefaultResponse)
	}
}

func TestCompleteSendsPayload(t *testing.T) {
	backend := upstreamtest.NewBackend()
	defer backend.Close()

	client := NewClient(testConfig(backend.URL()))
	defer client.Close()

	if _, err := client.Complete(context.Background(), testPayload()); err != nil {
		t.Fatal(err)
	}

	var sent ChatPayload
	if err := json.Unmarshal(backend.LastPayload(), &sent); err != nil {
		t.Fatalf("backend received invalid JSON: %v", err)
	}
	if sent.Model != "test-model" {
		t.Errorf("expected model %q, got %q", "test-model", sent.Model)
	}
	if sent.Stream {
		t.Error("buffered request must not set stream")
	}
}

func TestCompleteClientErrorNotRetried(t *testing.T) {
	backend := upstreamtest.NewBackend()
	defer backend.Close()
	backend.SetResponse(400, `{"error":"bad request"}`)

	cfg := testConfig(backend.URL())
	cfg.MaxRetries = 2
	client := NewClient(cfg)
	defer client.Close()

	_, err := client.Complete(context.Background(), testPayload())

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != 400 {
		t.Errorf("expected status 400, got %d", upstreamErr.StatusCode)
	}
	if backend.RequestCount() != 1 {
		t.Errorf("4xx must not be retried, backend saw %d requests", backend.RequestCount())
	}
}

func TestCompleteServerErrorRetried(t *testing.T) {
	backend := upstreamtest.NewBackend()
	defer backend.Close()
	backend.SetResponse(500, `{"error":"internal"}`)

	cfg := testConfig(backend.URL())
	cfg.MaxRetries = 1
	client := NewClient(cfg)
	defer client.Close()

	_, err := client.Complete(context.Background(), testPayload())

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if backend.RequestCount() != 2 {
		t.Errorf("expected 2 attempts, backend saw %d", backend.RequestCount())
	}
}

func TestCompleteUnreachable(t *testing.T) {
	backend := upstreamtest.NewBackend()
	url := backend.URL()
	backend.Close()

	client := NewClient(testConfig(url))
	defer client.Close()

	_, err := client.Complete(context.Background(), testPayload())

	var unreachable *UnreachableError
	if !errors.As(err, &unreachable) {
		t.Fatalf("expected *UnreachableError, got %v", err)
	}
}

func TestCompleteTimeout(t *testing.T) {
	backend := upstreamtest.NewBackend()
	defer backend.Close()
	backend.SetDelay(500 * time.Millisecond)

	cfg := testConfig(backend.URL())
	cfg.CompletionTimeout = 50 * time.Millisecond
	client := NewClient(cfg)
	defer client.Close()

	_, err := client.Complete(context.Background(), testPayload())

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if timeoutErr.Timeout != cfg.CompletionTimeout {
		t.Errorf("expected timeout %s in error, got %s", cfg.CompletionTimeout, timeoutErr.Timeout)
	}
}

func TestCompleteMalformedResponse(t *testing.T) {
	backend := upstreamtest.NewBackend()
	defer backend.Close()
	backend.SetResponse(200, "not json at all")

	client := NewClient(testConfig(backend.URL()))
	defer client.Close()

	_, err := client.Complete(context.Background(), testPayload())

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	backend := upstreamtest.NewBackend()
	defer backend.Close()

	client := NewClient(testConfig(backend.URL()))
	defer client.Close()

	if err := client.Probe(context.Background(), "/health"); err != nil {
		t.Errorf("expected healthy probe, got %v", err)
	}

	backend.SetHealthy(false)
	err := client.Probe(context.Background(), "/health")

	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected *UpstreamError from unhealthy probe, got %v", err)
	}
}
