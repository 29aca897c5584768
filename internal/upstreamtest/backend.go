// Package upstreamtest provides a scriptable fake inference backend
// for tests. It speaks the OpenAI-compatible wire format, including
// SSE streaming, and can fail in controlled ways.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// Backend is a fake inference backend.
//
// By default it answers buffered completions with a minimal valid
// response and health probes with 200. Use the setters to script
// responses, streams, failures, and delays.
type Backend struct {
	server *httptest.Server

	mu           sync.Mutex
	statusCode   int
	responseBody []byte
	streamChunks [][]byte
	abortAfter   int
	delay        time.Duration
	healthy      bool
	requestCount int
	lastPayload  []byte
}

// DefaultResponse is the buffered response body served when none is set.
const DefaultResponse = `{"id":"cmpl-test","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`

// NewBackend starts a fake backend. Callers must Close it.
func NewBackend() *Backend {
	b := &Backend{
		statusCode:   http.StatusOK,
		responseBody: []byte(DefaultResponse),
		abortAfter:   -1,
		healthy:      true,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", b.handleHealth)
	mux.HandleFunc("/", b.handleCompletion)

	b.server = httptest.NewServer(mux)
	return b
}

// URL returns the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the backend down.
func (b *Backend) Close() {
	b.server.Close()
}

// SetResponse scripts the buffered completion response.
func (b *Backend) SetResponse(statusCode int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statusCode = statusCode
	b.responseBody = []byte(body)
}

// SetStreamChunks scripts the SSE data payloads emitted for streaming
// requests. The backend appends the [DONE] marker unless the stream is
// aborted first.
func (b *Backend) SetStreamChunks(chunks ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streamChunks = nil
	for _, chunk := range chunks {
		b.streamChunks = append(b.streamChunks, []byte(chunk))
	}
}

// AbortAfter makes streaming requests drop the connection after n
// chunks, before [DONE]. A negative n disables aborting.
func (b *Backend) AbortAfter(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.abortAfter = n
}

// SetDelay makes every completion wait before responding.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// SetHealthy scripts the health probe outcome.
func (b *Backend) SetHealthy(healthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthy = healthy
}

// RequestCount returns the number of completion requests received.
func (b *Backend) RequestCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requestCount
}

// LastPayload returns the body of the most recent completion request.
func (b *Backend) LastPayload() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastPayload
}

func (b *Backend) handleHealth(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	healthy := b.healthy
	b.mu.Unlock()

	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (b *Backend) handleCompletion(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requestCount++
	b.lastPayload = body
	statusCode := b.statusCode
	responseBody := b.responseBody
	streamChunks := b.streamChunks
	abortAfter := b.abortAfter
	delay := b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	var payload struct {
		Stream bool `json:"stream"`
	}
	_ = json.Unmarshal(body, &payload)

	if payload.Stream && statusCode == http.StatusOK {
		b.streamResponse(w, streamChunks, abortAfter)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(responseBody)
}

func (b *Backend) streamResponse(w http.ResponseWriter, chunks [][]byte, abortAfter int) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)

	for i, chunk := range chunks {
		if abortAfter >= 0 && i >= abortAfter {
			// Drop the connection without [DONE].
			panic(http.ErrAbortHandler)
		}

		fmt.Fprintf(w, "data: %s\n\n", chunk)
		if flusher != nil {
			flusher.Flush()
		}
	}

	if abortAfter >= 0 && abortAfter <= len(chunks) {
		panic(http.ErrAbortHandler)
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}
