package proxy

import (
	"errors"
	"fmt"

	"halcyon-ai/promptgate/pkg/prompts"
	"halcyon-ai/promptgate/pkg/proxy/types"
	"halcyon-ai/promptgate/pkg/upstream"
)

// HandleError translates gateway-internal errors to OpenAI-compatible
// error responses.
//
// Mapping: unknown template -> 404, backend unreachable -> 502, backend
// failure status -> 500 carrying the backend detail, timeout -> 504,
// malformed backend response -> 500, validation failure -> 400.
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var notFound *prompts.NotFoundError
	if errors.As(err, &notFound) {
		return types.NewNotFoundError(notFound.Error(), types.CodeTemplateNotFound)
	}

	var unreachable *upstream.UnreachableError
	if errors.As(err, &unreachable) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Backend unreachable: %v", unreachable.Cause),
		)
	}

	var upstreamErr *upstream.UpstreamError
	if errors.As(err, &upstreamErr) {
		return types.NewUpstreamError(
			fmt.Sprintf("Backend returned status %d: %s", upstreamErr.StatusCode, upstreamErr.Body),
		)
	}

	var timeoutErr *upstream.TimeoutError
	if errors.As(err, &timeoutErr) {
		return types.NewGatewayTimeoutError(
			fmt.Sprintf("Backend request timed out after %s", timeoutErr.Timeout),
		)
	}

	var malformed *upstream.MalformedError
	if errors.As(err, &malformed) {
		return types.NewServerError(
			fmt.Sprintf("Backend returned an unparseable response: %v", malformed.Cause),
		)
	}

	var streamErr *upstream.StreamError
	if errors.As(err, &streamErr) {
		return types.NewBadGatewayError(
			fmt.Sprintf("Backend stream failed: %v", streamErr),
		)
	}

	return types.NewServerError(
		"An internal error occurred. Please try again later.",
	)
}
