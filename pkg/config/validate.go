package config

import (
	"fmt"
	"net/url"
)

// ValidationError describes an invalid configuration field.
type ValidationError struct {
	// Field is the dotted path of the invalid field.
	Field string

	// Message describes what is invalid.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config field %q: %s", e.Field, e.Message)
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Server.ListenAddress == "" {
		return &ValidationError{Field: "server.listen_address", Message: "listen address is required"}
	}

	if c.Server.MaxInFlight < 0 {
		return &ValidationError{Field: "server.max_in_flight", Message: "must be non-negative"}
	}

	if c.Upstream.BaseURL == "" {
		return &ValidationError{Field: "upstream.base_url", Message: "backend origin is required"}
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "upstream.base_url", Message: "must be an absolute URL"}
	}

	if c.Upstream.CompletionTimeout <= 0 {
		return &ValidationError{Field: "upstream.completion_timeout", Message: "must be positive"}
	}
	if c.Upstream.StreamTimeout <= 0 {
		return &ValidationError{Field: "upstream.stream_timeout", Message: "must be positive"}
	}
	if c.Upstream.MaxRetries < 0 {
		return &ValidationError{Field: "upstream.max_retries", Message: "must be non-negative"}
	}

	if c.Templates.Root == "" {
		return &ValidationError{Field: "templates.root", Message: "template root is required"}
	}
	if c.Templates.CacheSize < 1 {
		return &ValidationError{Field: "templates.cache_size", Message: "must be at least 1"}
	}
	switch c.Templates.Position {
	case PositionFirst, PositionReplace:
	default:
		return &ValidationError{Field: "templates.position", Message: `must be "first" or "replace"`}
	}

	if c.Liveness.Window <= 0 {
		return &ValidationError{Field: "liveness.window", Message: "must be positive"}
	}
	if c.Liveness.ProbeTimeout <= 0 {
		return &ValidationError{Field: "liveness.probe_timeout", Message: "must be positive"}
	}

	if c.Audit.Enabled {
		switch c.Audit.Backend {
		case "sqlite":
			if c.Audit.SQLite.Path == "" {
				return &ValidationError{Field: "audit.sqlite.path", Message: "database path is required"}
			}
		case "memory":
		default:
			return &ValidationError{Field: "audit.backend", Message: `must be "sqlite" or "memory"`}
		}
	}

	switch c.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "telemetry.logging.level", Message: "must be one of debug, info, warn, error"}
	}

	return nil
}
