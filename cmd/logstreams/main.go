// Package main implements the entry point for the logstreams daemon, a
// log and event stream processor. One process supervises one worker: it
// builds the plugin tree from the configuration, runs it, and degrades to
// limited mode instead of dying when the pipeline goes down.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360/logstreams/agent"
	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/health"
	"github.com/c360/logstreams/metric"
	"github.com/c360/logstreams/plugin"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "logstreams"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	// Run application with proper error handling
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	// Parse and validate CLI flags
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	sys := buildSystemConfig(cliCfg)
	if err := sys.Validate(); err != nil {
		return fmt.Errorf("invalid system configuration: %w", err)
	}

	// Load the configuration tree
	conf, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Register plugin types
	registry := plugin.NewRegistry()
	if err := plugin.RegisterBuiltins(registry); err != nil {
		return fmt.Errorf("register plugins: %w", err)
	}

	// Build the worker's supervision tree
	ra, server, err := setupRootAgent(registry, sys, cliCfg)
	if err != nil {
		return err
	}

	if err := ra.Configure(conf); err != nil {
		return fmt.Errorf("configure worker: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	if server != nil {
		server.SetHealthHandler(health.Handler(ra.Health))
		go func() {
			if err := server.Start(); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			if err := server.Stop(); err != nil {
				slog.Error("Metrics server stop failed", "error", err)
			}
		}()
		slog.Info("Metrics server listening", "address", server.Address())
	}

	ra.Start()

	return runUntilSignalled(ra)
}

// initializeCLI parses flags and sets up logging
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting logstreams",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath,
		"workers", cliCfg.Workers,
		"worker_id", cliCfg.WorkerID)

	return cliCfg, false, nil
}

// buildSystemConfig maps the CLI flags onto the worker's system settings.
// Validation runs see the whole configuration, not just this worker's slice.
func buildSystemConfig(cliCfg *CLIConfig) config.SystemConfig {
	return config.SystemConfig{
		Workers:                cliCfg.Workers,
		WorkerID:               cliCfg.WorkerID,
		SupervisorMode:         cliCfg.Validate,
		WithoutSource:          cliCfg.WithoutSource,
		EnableInputMetrics:     cliCfg.EnableInputMetrics,
		EmitErrorLogInterval:   cliCfg.EmitErrorLogInterval,
		RootDir:                cliCfg.RootDir,
		LimitedModeStorageType: cliCfg.LimitedModeStorage,
	}
}

// setupRootAgent creates the root agent, wiring metrics when a metrics port
// is configured. The returned server is nil when metrics are disabled.
func setupRootAgent(registry *plugin.Registry, sys config.SystemConfig, cliCfg *CLIConfig) (*agent.RootAgent, *metric.Server, error) {
	opts := []agent.Option{agent.WithLogger(slog.Default())}

	var server *metric.Server
	if cliCfg.MetricsPort > 0 {
		metricsRegistry := metric.NewRegistry()
		opts = append(opts, agent.WithMetrics(metricsRegistry))
		server = metric.NewServer(cliCfg.MetricsPort, cliCfg.MetricsPath, metricsRegistry)
	}

	ra, err := agent.NewRootAgent(registry, sys, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create root agent: %w", err)
	}
	return ra, server, nil
}

// runUntilSignalled blocks handling signals: SIGUSR1 flushes buffers,
// SIGUSR2 shifts into limited mode, SIGINT and SIGTERM shut the worker down.
func runUntilSignalled(ra *agent.RootAgent) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigCh)

	slog.Info("logstreams started successfully")

	for sig := range sigCh {
		switch sig {
		case syscall.SIGUSR1:
			slog.Info("Received SIGUSR1, flushing buffers")
			ra.Flush()
		case syscall.SIGUSR2:
			slog.Info("Received SIGUSR2, shifting to limited mode")
			if err := ra.ShiftToLimitedMode(); err != nil {
				slog.Error("Limited mode shift failed", "error", err)
			}
		default:
			slog.Info("Received shutdown signal", "signal", sig.String())
			ra.Shutdown()
			slog.Info("logstreams shutdown complete")
			return nil
		}
	}
	return nil
}
