package agent

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logstreams/testutil"
)

var shutdownMethods = []string{"stop", "before_shutdown", "shutdown", "after_shutdown", "close", "terminate"}

var traversalFakeIDs = []string{"in0", "in1", "ro0", "lf0", "lo0", "rf0", "out0"}

// phaseIndexBounds returns the smallest and largest call index of one method
// across the given plugins, or (-1, -1) when none recorded it.
func phaseIndexBounds(log *testutil.CallLog, method string, ids []string) (minIdx, maxIdx int) {
	minIdx, maxIdx = -1, -1
	for _, id := range ids {
		i := log.IndexOf(id, method)
		if i < 0 {
			continue
		}
		if minIdx == -1 || i < minIdx {
			minIdx = i
		}
		if i > maxIdx {
			maxIdx = i
		}
	}
	return minIdx, maxIdx
}

func callAt(t *testing.T, log *testutil.CallLog, id, method string) time.Time {
	t.Helper()
	for _, c := range log.Calls() {
		if c.Plugin == id && c.Method == method {
			return c.At
		}
	}
	t.Fatalf("no %s call recorded for %s", method, id)
	return time.Time{}
}

func TestRootAgent_Shutdown_FullSequencePerInstance(t *testing.T) {
	ra, fix, rec := newTestTree(t, defaultSys(), traversalConf())
	ra.Start()
	fix.Log.Reset()

	ra.Shutdown()

	for _, id := range traversalFakeIDs {
		assert.Equal(t, shutdownMethods, fix.Log.Methods(id), "plugin %s", id)

		inst := fix.Find(id)
		require.NotNil(t, inst)
		assert.True(t, inst.Stopped(), "plugin %s", id)
		assert.True(t, inst.BeforeShutdownDone(), "plugin %s", id)
		assert.True(t, inst.ShutdownDone(), "plugin %s", id)
		assert.True(t, inst.AfterShutdownDone(), "plugin %s", id)
		assert.True(t, inst.Closed(), "plugin %s", id)
		assert.True(t, inst.Terminated(), "plugin %s", id)
	}
	assert.True(t, rec.HasMessage("shutting down worker"))
}

func TestRootAgent_Shutdown_PhaseCompletesAcrossTreeBeforeNext(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), traversalConf())
	ra.Start()
	fix.Log.Reset()

	ra.Shutdown()

	log := fix.Log
	_, maxStop := phaseIndexBounds(log, "stop", traversalFakeIDs)
	minBefore, _ := phaseIndexBounds(log, "before_shutdown", traversalFakeIDs)
	_, maxShutdown := phaseIndexBounds(log, "shutdown", traversalFakeIDs)
	minAfter, maxAfter := phaseIndexBounds(log, "after_shutdown", traversalFakeIDs)
	minClose, maxClose := phaseIndexBounds(log, "close", traversalFakeIDs)
	minTerm, _ := phaseIndexBounds(log, "terminate", traversalFakeIDs)

	assert.Less(t, maxStop, minBefore)
	assert.Less(t, maxShutdown, minAfter)
	assert.Less(t, maxAfter, minClose)
	assert.Less(t, maxClose, minTerm)

	// Per instance, before_shutdown precedes shutdown.
	for _, id := range traversalFakeIDs {
		assert.Less(t, log.IndexOf(id, "before_shutdown"), log.IndexOf(id, "shutdown"), "plugin %s", id)
	}
}

func TestRootAgent_Shutdown_WalksAscending(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), traversalConf())
	ra.Start()
	fix.Log.Reset()

	ra.Shutdown()

	// Serial phases visit the tree in ascending order, producers first.
	for _, method := range []string{"stop", "after_shutdown", "terminate"} {
		prev := -1
		for _, id := range traversalFakeIDs {
			i := fix.Log.IndexOf(id, method)
			assert.Greater(t, i, prev, "%s of %s out of order", method, id)
			prev = i
		}
	}
}

func TestRootAgent_Shutdown_Idempotent(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), traversalConf())
	ra.Start()
	ra.Shutdown()
	fix.Log.Reset()

	ra.Shutdown()

	assert.Empty(t, fix.Log.Calls())
}

func TestRootAgent_Shutdown_BeforeShutdownPanicStillRunsShutdown(t *testing.T) {
	ra, fix, rec := newTestTree(t, defaultSys(), traversalConf())
	fix.Output("lo0").PanicOn["before_shutdown"] = true
	ra.Start()

	require.NotPanics(t, func() { ra.Shutdown() })

	lo0 := fix.Output("lo0")
	assert.Equal(t, 1, fix.Log.Count("lo0", "shutdown"))
	assert.False(t, lo0.BeforeShutdownDone())
	assert.True(t, lo0.ShutdownDone())
	assert.True(t, rec.HasMessage("unexpected error while calling lifecycle phase"))

	// A second run retries only the failed transition.
	fix.Log.Reset()
	ra.Shutdown()
	assert.Equal(t, 1, fix.Log.Count("lo0", "before_shutdown"))
	assert.Equal(t, 0, fix.Log.Count("lo0", "shutdown"))
}

func TestRootAgent_Shutdown_FailedStopDoesNotBlockOthers(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), traversalConf())
	fix.Input("in0").FailOn["stop"] = stderrors.New("listener stuck")
	ra.Start()
	fix.Log.Reset()

	ra.Shutdown()

	assert.False(t, fix.Input("in0").Stopped())
	for _, id := range []string{"in1", "ro0", "lf0", "lo0", "rf0", "out0"} {
		assert.True(t, fix.Find(id).Stopped(), "plugin %s", id)
	}

	// The failing instance still walks through the remaining phases.
	assert.Equal(t, shutdownMethods, fix.Log.Methods("in0"))
	assert.True(t, fix.Input("in0").Terminated())
}

func TestRootAgent_Shutdown_UnsafePhaseRunsGroupInParallel(t *testing.T) {
	conf := rootConf(
		sourceEl("in0"),
		matchEl("a", "out0"),
		matchEl("b", "out1"),
	)
	ra, fix, _ := newTestTree(t, defaultSys(), conf)
	const nap = 150 * time.Millisecond
	fix.Output("out0").SleepOn["shutdown"] = nap
	fix.Output("out1").SleepOn["shutdown"] = nap
	ra.Start()
	fix.Log.Reset()

	ra.Shutdown()

	// Both shutdowns of the group begin together instead of back to back.
	t0 := callAt(t, fix.Log, "out0", "shutdown")
	t1 := callAt(t, fix.Log, "out1", "shutdown")
	delta := t1.Sub(t0)
	if delta < 0 {
		delta = -delta
	}
	assert.Less(t, delta, nap-30*time.Millisecond)

	// The group joins before the next phase starts.
	after0 := callAt(t, fix.Log, "out0", "after_shutdown")
	assert.GreaterOrEqual(t, after0.Sub(t0), nap-30*time.Millisecond)
	assert.GreaterOrEqual(t, after0.Sub(t1), nap-30*time.Millisecond)
}

func TestRootAgent_Shutdown_SafePhaseRunsSerially(t *testing.T) {
	conf := rootConf(
		sourceEl("in0"),
		matchEl("a", "out0"),
		matchEl("b", "out1"),
	)
	ra, fix, _ := newTestTree(t, defaultSys(), conf)
	const nap = 150 * time.Millisecond
	fix.Output("out0").SleepOn["stop"] = nap
	ra.Start()
	fix.Log.Reset()

	ra.Shutdown()

	t0 := callAt(t, fix.Log, "out0", "stop")
	t1 := callAt(t, fix.Log, "out1", "stop")
	assert.GreaterOrEqual(t, t1.Sub(t0), nap-30*time.Millisecond)
}

func TestRootAgent_Shutdown_GroupJoinsBeforeNextGroup(t *testing.T) {
	conf := rootConf(
		sourceEl("in0"),
		labelEl("@l1", matchEl("**", "lo0")),
		matchEl("**", "out0"),
	)
	ra, fix, _ := newTestTree(t, defaultSys(), conf)
	const nap = 150 * time.Millisecond
	fix.Output("lo0").SleepOn["shutdown"] = nap
	ra.Start()
	fix.Log.Reset()

	ra.Shutdown()

	// The label's group finishes its shutdowns before the root outputs begin
	// theirs.
	tLabel := callAt(t, fix.Log, "lo0", "shutdown")
	tRoot := callAt(t, fix.Log, "out0", "shutdown")
	assert.GreaterOrEqual(t, tRoot.Sub(tLabel), nap-30*time.Millisecond)
}
