// Package types defines the OpenAI-compatible request and error shapes
// exposed by the gateway.
package types
