package handlers

import (
	"log/slog"
	"net/http"

	"halcyon-ai/promptgate/pkg/proxy"
	"halcyon-ai/promptgate/pkg/proxy/types"
)

// Prompts handles GET /prompts, listing available template names.
type Prompts struct {
	store  TemplateLister
	logger *slog.Logger
}

// NewPrompts creates the template listing handler.
func NewPrompts(store TemplateLister) *Prompts {
	return &Prompts{
		store:  store,
		logger: slog.Default().With("component", "handlers.prompts"),
	}
}

// ServeHTTP implements http.Handler.
func (h *Prompts) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.List()
	if err != nil {
		h.logger.Error("failed to list templates", "error", err)
		_ = proxy.WriteErrorResponse(w, types.NewServerError(
			"Failed to list prompt templates.",
		))
		return
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, names)
}
