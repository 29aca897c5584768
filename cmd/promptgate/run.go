package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"halcyon-ai/promptgate/pkg/audit"
	"halcyon-ai/promptgate/pkg/config"
	"halcyon-ai/promptgate/pkg/prompts"
	"halcyon-ai/promptgate/pkg/proxy/handlers"
	"halcyon-ai/promptgate/pkg/server"
	"halcyon-ai/promptgate/pkg/telemetry/metrics"
	"halcyon-ai/promptgate/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway server",
	Long: `Start the gateway server with the specified configuration.

The gateway listens on the configured address and relays chat completion
requests to the inference backend, injecting prompt templates on the way.

Examples:
  # Start with default config
  promptgate run

  # Start with custom config
  promptgate run --config /etc/promptgate/config.yaml

  # Override listen address
  promptgate run --listen 0.0.0.0:8000

  # Validate config without starting the server
  promptgate run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	setupLogging(&cfg.Telemetry.Logging)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	fmt.Printf("Promptgate v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	}

	// Template store, cache, and watcher
	store := prompts.NewFileStore(cfg.Templates.Root)

	var cacheMetrics prompts.CacheMetrics
	if collector != nil {
		cacheMetrics = collector
	}
	cache, err := prompts.NewCache(store, cfg.Templates.CacheSize, cacheMetrics)
	if err != nil {
		return fmt.Errorf("failed to create template cache: %w", err)
	}

	if cfg.Templates.Watch {
		watcher, err := prompts.NewWatcher(cfg.Templates.Root, cache)
		if err != nil {
			slog.Warn("template watching disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}
	fmt.Printf("✓ Template store ready (root: %s)\n", cfg.Templates.Root)

	// Backend client and liveness monitor
	client := upstream.NewClient(cfg.Upstream)
	defer client.Close()

	monitor := upstream.NewMonitor(client, cfg.Liveness)
	if collector != nil {
		monitor.SetHealthUpdater(collector)
	}
	fmt.Printf("✓ Backend: %s\n", cfg.Upstream.BaseURL)

	// Audit recording
	var auditSink handlers.AuditSink
	if cfg.Audit.Enabled {
		var storage audit.Storage
		switch cfg.Audit.Backend {
		case "sqlite":
			storage, err = audit.NewSQLiteStorage(&cfg.Audit.SQLite)
			if err != nil {
				return fmt.Errorf("failed to create audit storage: %w", err)
			}
		case "memory":
			storage = audit.NewMemoryStorage()
		default:
			return fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
		}
		defer storage.Close()

		recorder := audit.NewRecorder(storage, &cfg.Audit)
		defer recorder.Close()
		auditSink = recorder

		if cfg.Audit.Retention.PruneSchedule != "" {
			pruner := audit.NewPruner(storage, &cfg.Audit.Retention)
			scheduler := audit.NewScheduler(pruner)
			if err := scheduler.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer scheduler.Stop()
			}
		}

		fmt.Println("✓ Audit log initialized")
	}

	// Handlers and server
	var requestMetrics handlers.Metrics
	if collector != nil {
		requestMetrics = collector
	}

	h := server.Handlers{
		Chat: handlers.NewGateway(
			cache,
			client,
			cfg.Templates.Position == config.PositionReplace,
			requestMetrics,
			auditSink,
		),
		Health:  handlers.NewHealth(monitor),
		Prompts: handlers.NewPrompts(store),
	}
	if collector != nil {
		h.Metrics = collector.Handler()
	}

	srv := server.NewServer(&cfg.Server, h)

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.Server.ListenAddress)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// setupLogging installs the process-wide slog handler.
func setupLogging(cfg *config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
