package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"halcyon-ai/promptgate/pkg/upstream"
)

type fakeReporter struct {
	state upstream.State
}

func (r *fakeReporter) Status(ctx context.Context) upstream.State {
	return r.state
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name         string
		state        upstream.State
		wantStatus   string
		wantUpstream bool
	}{
		{
			name:         "healthy",
			state:        upstream.State{Status: upstream.StatusOK, UpstreamReachable: true},
			wantStatus:   "ok",
			wantUpstream: true,
		},
		{
			name:         "degraded",
			state:        upstream.State{Status: upstream.StatusDegraded, UpstreamReachable: false},
			wantStatus:   "degraded",
			wantUpstream: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealth(&fakeReporter{state: tt.state})

			r := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			// Degradation is reported in the body, never the status code.
			if w.Code != 200 {
				t.Fatalf("expected status 200, got %d", w.Code)
			}

			var resp struct {
				Status   string `json:"status"`
				Upstream bool   `json:"upstream"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response not valid JSON: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
			if resp.Upstream != tt.wantUpstream {
				t.Errorf("expected upstream %v, got %v", tt.wantUpstream, resp.Upstream)
			}
		})
	}
}
