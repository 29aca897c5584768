// Package proxy provides request parsing, response writing, and error
// translation for the gateway's OpenAI-compatible HTTP surface.
//
// Incoming chat-completion requests are validated against a strict
// schema (unknown fields rejected). Backend responses are relayed
// verbatim: buffered bodies as-is, streaming chunks as SSE data events.
// All failures are translated to OpenAI-shaped error responses; once a
// stream has begun, failures become in-band error records instead.
package proxy
