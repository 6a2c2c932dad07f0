package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Default locations and plugin selections for limited mode.
const (
	// DefaultRootDir is used for limited mode buffers when no root directory
	// is configured.
	DefaultRootDir = "/var/log/logstreams"
	// DefaultLimitedModeStorageType is the output plugin type the limited
	// mode agents are built with unless overridden.
	DefaultLimitedModeStorageType = "relabel"
)

// SystemConfig carries the process-wide settings the supervisory core needs.
// It is passed explicitly to the components that consume it; there is no
// package-level instance.
type SystemConfig struct {
	// Workers is the size of the worker pool the configuration is
	// partitioned across.
	Workers int
	// WorkerID identifies this process within the pool.
	WorkerID int
	// SupervisorMode disables worker partition filtering so the supervisor
	// can validate the whole configuration.
	SupervisorMode bool
	// WithoutSource skips <source> directives entirely, for drain mode.
	WithoutSource bool
	// EnableInputMetrics registers per-input ingest counting on the root
	// router.
	EnableInputMetrics bool
	// EmitErrorLogInterval suppresses repeated emit error logs within the
	// window. Zero disables suppression.
	EmitErrorLogInterval time.Duration
	// RootDir is the daemon's working directory for buffers and state.
	RootDir string
	// LimitedModeStorageType overrides the output plugin type used by the
	// limited mode agents.
	LimitedModeStorageType string
}

// DefaultSystemConfig returns the settings of a standalone single worker.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Workers: 1,
	}
}

// Validate checks the settings for internal consistency.
func (sys SystemConfig) Validate() error {
	if sys.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", sys.Workers)
	}
	if sys.WorkerID < 0 || sys.WorkerID >= sys.Workers {
		return fmt.Errorf("worker id %d is out of range, available worker ids are 0 to %d",
			sys.WorkerID, sys.Workers-1)
	}
	if sys.EmitErrorLogInterval < 0 {
		return fmt.Errorf("emit error log interval must not be negative, got %s",
			sys.EmitErrorLogInterval)
	}
	return nil
}

// Excludes reports whether an element belongs to a different worker and must
// be skipped during configuration. The supervisor sees every element.
func (sys SystemConfig) Excludes(e *Element) bool {
	return !sys.SupervisorMode && e.ForAnotherWorker(sys.WorkerID)
}

// LimitedModeStorage returns the output plugin type for the limited mode
// agents, falling back to the default.
func (sys SystemConfig) LimitedModeStorage() string {
	if sys.LimitedModeStorageType != "" {
		return sys.LimitedModeStorageType
	}
	return DefaultLimitedModeStorageType
}

// LimitedModeBufferPath returns the buffer directory shared by the limited
// mode load and output agents.
func (sys SystemConfig) LimitedModeBufferPath() string {
	root := sys.RootDir
	if root == "" {
		root = DefaultRootDir
	}
	return filepath.Join(root, "limited_mode_buffer")
}
