package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath           string
	Workers              int
	WorkerID             int
	WithoutSource        bool
	RootDir              string
	LimitedModeStorage   string
	EmitErrorLogInterval time.Duration
	EnableInputMetrics   bool
	LogLevel             string
	LogFormat            string
	MetricsPort          int
	MetricsPath          string
	ShowVersion          bool
	ShowHelp             bool
	Validate             bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Define flags with environment variable fallback
	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("LOGSTREAMS_CONFIG", "/etc/logstreams/logstreams.json"),
		"Path to configuration file (env: LOGSTREAMS_CONFIG)")

	flag.StringVar(&cfg.ConfigPath, "c",
		getEnv("LOGSTREAMS_CONFIG", "/etc/logstreams/logstreams.json"),
		"Path to configuration file (env: LOGSTREAMS_CONFIG)")

	flag.IntVar(&cfg.Workers, "workers",
		getEnvInt("LOGSTREAMS_WORKERS", 1),
		"Size of the worker pool the configuration is partitioned across (env: LOGSTREAMS_WORKERS)")

	flag.IntVar(&cfg.WorkerID, "worker-id",
		getEnvInt("LOGSTREAMS_WORKER_ID", 0),
		"This process's id within the worker pool (env: LOGSTREAMS_WORKER_ID)")

	flag.BoolVar(&cfg.WithoutSource, "without-source",
		getEnvBool("LOGSTREAMS_WITHOUT_SOURCE", false),
		"Skip <source> directives, drain buffered events only (env: LOGSTREAMS_WITHOUT_SOURCE)")

	flag.StringVar(&cfg.RootDir, "root-dir",
		getEnv("LOGSTREAMS_ROOT_DIR", ""),
		"Working directory for buffers and state (env: LOGSTREAMS_ROOT_DIR)")

	flag.StringVar(&cfg.LimitedModeStorage, "limited-mode-storage",
		getEnv("LOGSTREAMS_LIMITED_MODE_STORAGE", ""),
		"Output plugin type backing limited mode buffers (env: LOGSTREAMS_LIMITED_MODE_STORAGE)")

	flag.DurationVar(&cfg.EmitErrorLogInterval, "emit-error-log-interval",
		getEnvDuration("LOGSTREAMS_EMIT_ERROR_LOG_INTERVAL", 0),
		"Suppress repeated emit error logs within this window, 0 to disable (env: LOGSTREAMS_EMIT_ERROR_LOG_INTERVAL)")

	flag.BoolVar(&cfg.EnableInputMetrics, "enable-input-metrics",
		getEnvBool("LOGSTREAMS_ENABLE_INPUT_METRICS", false),
		"Count dispatched entries per input plugin (env: LOGSTREAMS_ENABLE_INPUT_METRICS)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("LOGSTREAMS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: LOGSTREAMS_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("LOGSTREAMS_LOG_FORMAT", "json"),
		"Log format: json, text (env: LOGSTREAMS_LOG_FORMAT)")

	flag.IntVar(&cfg.MetricsPort, "metrics-port",
		getEnvInt("LOGSTREAMS_METRICS_PORT", 24220),
		"Metrics and health server port, 0 to disable (env: LOGSTREAMS_METRICS_PORT)")

	flag.StringVar(&cfg.MetricsPath, "metrics-path",
		getEnv("LOGSTREAMS_METRICS_PATH", "/metrics"),
		"HTTP path the metrics are served on (env: LOGSTREAMS_METRICS_PATH)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	flag.BoolVar(&cfg.ShowVersion, "v", false, "Show version information")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help information")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help information")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	// Custom usage
	flag.Usage = func() {
		printDetailedHelp()
	}

	flag.Parse()

	return cfg
}

func validateFlags(cfg *CLIConfig) error {
	// Skip validation for special flags
	if cfg.ShowVersion || cfg.ShowHelp {
		return nil
	}

	// Validate config file exists
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
	}

	if cfg.Workers < 1 {
		return fmt.Errorf("invalid worker count: %d", cfg.Workers)
	}

	if cfg.WorkerID < 0 || cfg.WorkerID >= cfg.Workers {
		return fmt.Errorf("worker id %d out of range for %d workers", cfg.WorkerID, cfg.Workers)
	}

	// Validate log level
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	// Validate log format
	validFormats := []string{"json", "text"}
	if !contains(validFormats, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	// Validate metrics port
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", cfg.MetricsPort)
	}

	return nil
}

func printDetailedHelp() {
	_, _ = fmt.Fprintf(os.Stderr, `%s - Log and Event Stream Daemon

Usage: %s [options]

Options:
`, appName, os.Args[0])
	flag.PrintDefaults()
	_, _ = fmt.Fprintf(os.Stderr, `
Signals:
  SIGTERM, SIGINT   Graceful shutdown
  SIGUSR1           Flush all buffered events
  SIGUSR2           Shift into limited mode

Examples:
  # Run with custom config
  %s --config=/path/to/logstreams.yaml

  # Run worker 1 of a pool of 4
  %s --workers=4 --worker-id=1

  # Run with environment variables
  export LOGSTREAMS_CONFIG=/etc/logstreams/logstreams.json
  export LOGSTREAMS_LOG_LEVEL=debug
  %s

  # Validate configuration only
  %s --validate

Version: %s
Build: %s
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Utility function to check if slice contains string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
