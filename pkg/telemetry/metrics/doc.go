// Package metrics exposes Prometheus metrics for the gateway: request
// counts and latencies, template cache behavior, and upstream health.
package metrics
