package agent

import (
	"fmt"
	"time"

	"github.com/c360/logstreams/health"
	"github.com/c360/logstreams/plugin"
)

// Health reports the worker's aggregate health. A worker is unhealthy until
// Start finishes and after Shutdown, degraded while in limited mode, and
// healthy otherwise, with one sub-status per plugin kind.
func (ra *RootAgent) Health() health.Status {
	if !ra.started.Load() {
		return health.NewUnhealthy("root_agent", "worker not started")
	}

	counts := map[string]int{}
	total := 0
	ra.Lifecycle(false, func(_ plugin.Instance, kind string) {
		counts[kind]++
		total++
	})

	var status health.Status
	if ra.InLimitedMode() {
		status = health.NewDegraded("root_agent", "running in limited mode")
	} else {
		status = health.NewHealthy("root_agent", "worker running")
	}

	for _, kind := range []string{"input", "filter", "output"} {
		if counts[kind] == 0 {
			continue
		}
		status = status.WithSubStatus(health.NewHealthy(kind+"s",
			fmt.Sprintf("%d configured", counts[kind])))
	}

	ra.mu.RLock()
	startedAt := ra.startedAt
	ra.mu.RUnlock()

	return status.WithMetrics(&health.Metrics{
		Uptime:        time.Since(startedAt),
		LiveInstances: total,
		PhaseFailures: int(ra.phaseFailures.Load()),
	})
}
