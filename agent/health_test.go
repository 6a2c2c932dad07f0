package agent

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logstreams/health"
)

func findSub(t *testing.T, s health.Status, component string) health.Status {
	t.Helper()
	for _, sub := range s.SubStatuses {
		if sub.Component == component {
			return sub
		}
	}
	t.Fatalf("no %s sub-status in %+v", component, s.SubStatuses)
	return health.Status{}
}

func TestRootAgent_Health_UnstartedIsUnhealthy(t *testing.T) {
	ra, _, _ := newTestTree(t, defaultSys(), traversalConf())

	status := ra.Health()
	assert.True(t, status.IsUnhealthy())
	assert.Equal(t, "root_agent", status.Component)
	assert.Equal(t, "worker not started", status.Message)
}

func TestRootAgent_Health_RunningIsHealthy(t *testing.T) {
	ra, _, _ := newTestTree(t, defaultSys(), traversalConf())
	ra.Start()

	status := ra.Health()
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "worker running", status.Message)

	// Two inputs, two filters, and four outputs counting the routing output,
	// the label's output and the load agent's relabel.
	assert.Equal(t, "2 configured", findSub(t, status, "inputs").Message)
	assert.Equal(t, "2 configured", findSub(t, status, "filters").Message)
	assert.Equal(t, "4 configured", findSub(t, status, "outputs").Message)

	require.NotNil(t, status.Metrics)
	assert.Equal(t, 8, status.Metrics.LiveInstances)
	assert.Greater(t, status.Metrics.Uptime.Nanoseconds(), int64(0))
	assert.Equal(t, 0, status.Metrics.PhaseFailures)
}

func TestRootAgent_Health_LimitedModeIsDegraded(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), limitedConf())
	fix.Input("in_ready").LimitedReady = true
	ra.Start()

	require.NoError(t, ra.ShiftToLimitedMode())

	status := ra.Health()
	assert.True(t, status.IsDegraded())
	assert.Equal(t, "running in limited mode", status.Message)
}

func TestRootAgent_Health_AfterShutdownIsUnhealthy(t *testing.T) {
	ra, _, _ := newTestTree(t, defaultSys(), traversalConf())
	ra.Start()
	ra.Shutdown()

	assert.True(t, ra.Health().IsUnhealthy())
}

func TestRootAgent_Health_CountsPhaseFailures(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), traversalConf())
	fix.Input("in0").FailOn["start"] = stderrors.New("port already bound")

	ra.Start()

	status := ra.Health()
	require.NotNil(t, status.Metrics)
	assert.Equal(t, 1, status.Metrics.PhaseFailures)
}
