package handlers

import (
	"log/slog"
	"net/http"

	"halcyon-ai/promptgate/pkg/proxy"
	"halcyon-ai/promptgate/pkg/upstream"
)

// Health handles GET /healthz.
//
// The response always succeeds with 200; backend degradation is
// reported in the body rather than the status code so load balancers
// keep routing to the gateway while the backend recovers.
type Health struct {
	monitor LivenessReporter
	logger  *slog.Logger
}

// NewHealth creates the liveness handler.
func NewHealth(monitor LivenessReporter) *Health {
	return &Health{
		monitor: monitor,
		logger:  slog.Default().With("component", "handlers.health"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := h.monitor.Status(r.Context())

	if state.Status == upstream.StatusDegraded {
		h.logger.Debug("health check served degraded state")
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, state)
}
