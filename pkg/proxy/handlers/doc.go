// Package handlers implements the gateway's HTTP endpoints: chat
// completions (buffered and streaming), liveness, and template listing.
package handlers
