package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/sync/semaphore"

	"halcyon-ai/promptgate/pkg/proxy/types"
)

// Concurrency caps the number of in-flight requests passing through it.
// Requests beyond the cap receive 503 immediately rather than queueing
// behind slow completions. A cap of zero disables the limit.
func Concurrency(maxInFlight int) func(http.Handler) http.Handler {
	if maxInFlight <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	sem := semaphore.NewWeighted(int64(maxInFlight))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sem.TryAcquire(1) {
				slog.WarnContext(r.Context(), "request rejected, in-flight cap reached",
					"max_in_flight", maxInFlight,
					"request_id", GetRequestID(r.Context()),
				)

				errResp := types.NewServiceUnavailableError(
					"Too many concurrent requests. Please retry.",
				)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(errResp)
				return
			}
			defer sem.Release(1)

			next.ServeHTTP(w, r)
		})
	}
}
