package config

import "time"

// DefaultConfig returns a configuration suitable for a gateway in front of
// a local backend on port 8080.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:   "0.0.0.0:8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    0,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxInFlight:     32,
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
				MaxAge:         300,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL:             "http://localhost:8080",
			CompletionPath:      "/v1/chat/completions",
			CompletionTimeout:   60 * time.Second,
			StreamTimeout:       120 * time.Second,
			MaxRetries:          0,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Templates: TemplatesConfig{
			Root:      "prompts",
			CacheSize: 32,
			Watch:     false,
			Position:  PositionFirst,
		},
		Liveness: LivenessConfig{
			Window:       5 * time.Second,
			ProbeTimeout: 2 * time.Second,
			ProbePath:    "/health",
		},
		Audit: AuditConfig{
			Enabled: false,
			Backend: "sqlite",
			SQLite: AuditSQLiteConfig{
				Path:         "data/audit.db",
				MaxOpenConns: 10,
				MaxIdleConns: 5,
				WALMode:      true,
				BusyTimeout:  5 * time.Second,
			},
			AsyncBuffer:  1000,
			WriteTimeout: 5 * time.Second,
			Retention: AuditRetentionConfig{
				Days:          90,
				PruneSchedule: "0 3 * * *",
				MaxRecords:    0,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Level:  "info",
				Format: "json",
			},
			Metrics: MetricsConfig{
				Enabled:                true,
				Namespace:              "promptgate",
				Subsystem:              "",
				RequestDurationBuckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
		},
	}
}
