// Package upstream implements the connection to the inference backend.
//
// A single Client owns a pooled HTTP transport shared by all calls for
// the lifetime of the process. It exposes a buffered completion call, a
// streaming completion call with a longer timeout tier, and a lightweight
// liveness probe. The Monitor maintains a time-windowed cached view of
// backend health on top of the probe.
package upstream
