package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SystemConfig)
		wantErr bool
	}{
		{"Defaults are valid", func(sys *SystemConfig) {}, false},
		{"Multiple workers", func(sys *SystemConfig) { sys.Workers = 4; sys.WorkerID = 3 }, false},
		{"Zero workers", func(sys *SystemConfig) { sys.Workers = 0 }, true},
		{"Negative worker id", func(sys *SystemConfig) { sys.WorkerID = -1 }, true},
		{"Worker id beyond pool", func(sys *SystemConfig) { sys.Workers = 2; sys.WorkerID = 2 }, true},
		{"Negative suppression interval", func(sys *SystemConfig) { sys.EmitErrorLogInterval = -time.Second }, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sys := DefaultSystemConfig()
			test.mutate(&sys)
			err := sys.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSystemConfig_Excludes(t *testing.T) {
	mine := NewElement("match", "**", nil, nil)
	mine.SetTargetWorkerID(0)
	other := NewElement("match", "**", nil, nil)
	other.SetTargetWorkerID(1)
	everyone := NewElement("source", "", nil, nil)

	sys := workerSystem(2)

	t.Run("Worker keeps its own and shared elements", func(t *testing.T) {
		assert.False(t, sys.Excludes(mine))
		assert.False(t, sys.Excludes(everyone))
	})

	t.Run("Worker skips elements of other workers", func(t *testing.T) {
		assert.True(t, sys.Excludes(other))
	})

	t.Run("Supervisor sees every element", func(t *testing.T) {
		super := sys
		super.SupervisorMode = true
		assert.False(t, super.Excludes(mine))
		assert.False(t, super.Excludes(other))
		assert.False(t, super.Excludes(everyone))
	})
}

func TestSystemConfig_LimitedModeSettings(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		sys := DefaultSystemConfig()
		assert.Equal(t, "relabel", sys.LimitedModeStorage())
		assert.Equal(t, "/var/log/logstreams/limited_mode_buffer", sys.LimitedModeBufferPath())
	})

	t.Run("Overrides", func(t *testing.T) {
		sys := DefaultSystemConfig()
		sys.LimitedModeStorageType = "file_buffer"
		sys.RootDir = "/data/logstreams"
		assert.Equal(t, "file_buffer", sys.LimitedModeStorage())
		assert.Equal(t, "/data/logstreams/limited_mode_buffer", sys.LimitedModeBufferPath())
	})
}

func TestDefaultSystemConfig(t *testing.T) {
	sys := DefaultSystemConfig()
	require.NoError(t, sys.Validate())
	assert.Equal(t, 1, sys.Workers)
	assert.Equal(t, 0, sys.WorkerID)
	assert.False(t, sys.SupervisorMode)
	assert.False(t, sys.WithoutSource)
	assert.Zero(t, sys.EmitErrorLogInterval)
}
