package proxy

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"halcyon-ai/promptgate/pkg/proxy/types"
)

func TestWriteRawJSON(t *testing.T) {
	w := httptest.NewRecorder()
	body := []byte(`{"id":"cmpl-1","choices":[]}`)

	if err := WriteRawJSON(w, 200, body); err != nil {
		t.Fatalf("WriteRawJSON: %v", err)
	}

	if w.Code != 200 {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("unexpected content type: %s", got)
	}
	if w.Body.String() != string(body) {
		t.Errorf("body not written verbatim:\ngot  %s\nwant %s", w.Body.String(), body)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteErrorResponse(w, types.NewGatewayTimeoutError("too slow")); err != nil {
		t.Fatalf("WriteErrorResponse: %v", err)
	}

	if w.Code != 504 {
		t.Errorf("expected status 504, got %d", w.Code)
	}

	var resp types.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}
	if resp.Error.Type != types.ErrorTypeGatewayTimeout {
		t.Errorf("unexpected error type: %s", resp.Error.Type)
	}
}

func TestWriteSSEData(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteSSEData(w, []byte(`{"delta":"x"}`)); err != nil {
		t.Fatalf("WriteSSEData: %v", err)
	}

	want := "data: {\"delta\":\"x\"}\n\n"
	if w.Body.String() != want {
		t.Errorf("unexpected SSE framing:\ngot  %q\nwant %q", w.Body.String(), want)
	}
	if !w.Flushed {
		t.Error("SSE data must be flushed immediately")
	}
}

func TestWriteSSEDone(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteSSEDone(w); err != nil {
		t.Fatalf("WriteSSEDone: %v", err)
	}

	if w.Body.String() != "data: [DONE]\n\n" {
		t.Errorf("unexpected done marker: %q", w.Body.String())
	}
}

func TestWriteSSEError(t *testing.T) {
	w := httptest.NewRecorder()

	if err := WriteSSEError(w, types.NewBadGatewayError("stream died")); err != nil {
		t.Fatalf("WriteSSEError: %v", err)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Fatalf("error record must be an SSE data line, got %q", body)
	}

	payload := strings.TrimSuffix(strings.TrimPrefix(body, "data: "), "\n\n")
	var record struct {
		Error types.ErrorDetail `json:"error"`
	}
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		t.Fatalf("error record not valid JSON: %v", err)
	}
	if record.Error.Type != types.ErrorTypeBadGateway {
		t.Errorf("unexpected error type: %s", record.Error.Type)
	}
}

func TestSetSSEHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetSSEHeaders(w)

	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("unexpected content type: %s", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("unexpected cache control: %s", got)
	}
	if got := w.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Errorf("unexpected buffering header: %s", got)
	}
}
