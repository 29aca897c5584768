package config

import "time"

// Config is the root configuration for the gateway.
type Config struct {
	// Server configures the inbound HTTP listener.
	Server ServerConfig `koanf:"server" yaml:"server"`

	// Upstream configures the connection to the inference backend.
	Upstream UpstreamConfig `koanf:"upstream" yaml:"upstream"`

	// Templates configures the prompt template store and cache.
	Templates TemplatesConfig `koanf:"templates" yaml:"templates"`

	// Liveness configures the backend liveness monitor.
	Liveness LivenessConfig `koanf:"liveness" yaml:"liveness"`

	// Audit configures the request audit log.
	Audit AuditConfig `koanf:"audit" yaml:"audit"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `koanf:"telemetry" yaml:"telemetry"`
}

// ServerConfig contains settings for the inbound HTTP server.
type ServerConfig struct {
	// ListenAddress is the host:port the server binds to.
	ListenAddress string `koanf:"listen_address" yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration `koanf:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing the response.
	// Zero disables it; streaming completions can exceed any fixed bound.
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum duration to wait for the next request
	// on a keep-alive connection.
	IdleTimeout time.Duration `koanf:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `koanf:"max_header_bytes" yaml:"max_header_bytes"`

	// MaxInFlight caps the number of concurrent completion requests.
	// Requests beyond the cap receive 503. Zero means unlimited.
	MaxInFlight int `koanf:"max_in_flight" yaml:"max_in_flight"`

	// CORS configures cross-origin resource sharing.
	CORS CORSConfig `koanf:"cors" yaml:"cors"`
}

// CORSConfig contains CORS settings for the inbound server.
type CORSConfig struct {
	Enabled        bool     `koanf:"enabled" yaml:"enabled"`
	AllowedOrigins []string `koanf:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods []string `koanf:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders []string `koanf:"allowed_headers" yaml:"allowed_headers"`
	MaxAge         int      `koanf:"max_age" yaml:"max_age"`
}

// UpstreamConfig contains settings for the inference backend connection.
type UpstreamConfig struct {
	// BaseURL is the backend origin, e.g. http://localhost:8080.
	BaseURL string `koanf:"base_url" yaml:"base_url"`

	// CompletionPath is the chat-completion endpoint path on the backend.
	CompletionPath string `koanf:"completion_path" yaml:"completion_path"`

	// CompletionTimeout bounds buffered completion calls.
	CompletionTimeout time.Duration `koanf:"completion_timeout" yaml:"completion_timeout"`

	// StreamTimeout bounds streaming completion calls. It is longer than
	// the buffered tier to tolerate slow token generation.
	StreamTimeout time.Duration `koanf:"stream_timeout" yaml:"stream_timeout"`

	// MaxRetries is the number of retry attempts for buffered calls on
	// transient failure. Zero disables retries.
	MaxRetries int `koanf:"max_retries" yaml:"max_retries"`

	// MaxIdleConns is the connection pool size across all hosts.
	MaxIdleConns int `koanf:"max_idle_conns" yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the connection pool size per host.
	MaxIdleConnsPerHost int `koanf:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle pooled connections are kept.
	IdleConnTimeout time.Duration `koanf:"idle_conn_timeout" yaml:"idle_conn_timeout"`
}

// TemplatesConfig contains settings for the prompt template store.
type TemplatesConfig struct {
	// Root is the directory holding <name>.txt template files.
	Root string `koanf:"root" yaml:"root"`

	// CacheSize is the LRU capacity for resolved templates.
	CacheSize int `koanf:"cache_size" yaml:"cache_size"`

	// Watch enables filesystem watching of the template root so edited
	// templates are evicted from the cache without a restart.
	Watch bool `koanf:"watch" yaml:"watch"`

	// Position controls where an injected template lands relative to a
	// client-supplied system message: "first" keeps both with the template
	// at index 0, "replace" drops client system messages.
	Position string `koanf:"position" yaml:"position"`
}

// Template injection positions.
const (
	PositionFirst   = "first"
	PositionReplace = "replace"
)

// LivenessConfig contains settings for the backend liveness monitor.
type LivenessConfig struct {
	// Window is the minimum interval between backend probes.
	Window time.Duration `koanf:"window" yaml:"window"`

	// ProbeTimeout bounds a single liveness probe.
	ProbeTimeout time.Duration `koanf:"probe_timeout" yaml:"probe_timeout"`

	// ProbePath is the backend path probed for liveness.
	ProbePath string `koanf:"probe_path" yaml:"probe_path"`
}

// AuditConfig contains settings for the request audit log.
type AuditConfig struct {
	// Enabled turns audit recording on.
	Enabled bool `koanf:"enabled" yaml:"enabled"`

	// Backend selects the audit storage backend ("sqlite" or "memory").
	Backend string `koanf:"backend" yaml:"backend"`

	// SQLite configures the sqlite backend.
	SQLite AuditSQLiteConfig `koanf:"sqlite" yaml:"sqlite"`

	// AsyncBuffer is the size of the async write channel.
	AsyncBuffer int `koanf:"async_buffer" yaml:"async_buffer"`

	// WriteTimeout bounds a single audit record write.
	WriteTimeout time.Duration `koanf:"write_timeout" yaml:"write_timeout"`

	// Retention configures scheduled pruning of old records.
	Retention AuditRetentionConfig `koanf:"retention" yaml:"retention"`
}

// AuditSQLiteConfig contains sqlite settings for the audit store.
type AuditSQLiteConfig struct {
	Path         string        `koanf:"path" yaml:"path"`
	MaxOpenConns int           `koanf:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns" yaml:"max_idle_conns"`
	WALMode      bool          `koanf:"wal_mode" yaml:"wal_mode"`
	BusyTimeout  time.Duration `koanf:"busy_timeout" yaml:"busy_timeout"`
}

// AuditRetentionConfig contains retention settings for the audit store.
type AuditRetentionConfig struct {
	// Days is the number of days to retain records. Zero keeps forever.
	Days int `koanf:"days" yaml:"days"`

	// PruneSchedule is a cron expression for scheduled pruning,
	// e.g. "0 3 * * *". Empty disables scheduled pruning.
	PruneSchedule string `koanf:"prune_schedule" yaml:"prune_schedule"`

	// MaxRecords caps the total record count. Zero means unlimited.
	MaxRecords int64 `koanf:"max_records" yaml:"max_records"`
}

// TelemetryConfig contains logging and metrics settings.
type TelemetryConfig struct {
	Logging LoggingConfig `koanf:"logging" yaml:"logging"`
	Metrics MetricsConfig `koanf:"metrics" yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level" yaml:"level"`

	// Format is "json" or "text".
	Format string `koanf:"format" yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled" yaml:"enabled"`
	Namespace string `koanf:"namespace" yaml:"namespace"`
	Subsystem string `koanf:"subsystem" yaml:"subsystem"`

	// RequestDurationBuckets are histogram buckets for request latency.
	RequestDurationBuckets []float64 `koanf:"request_duration_buckets" yaml:"request_duration_buckets"`
}
