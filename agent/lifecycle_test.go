package agent

import (
	stderrors "errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/plugin"
	"github.com/c360/logstreams/testutil"
)

// traversalConf builds a tree exercising every traversal position: inputs,
// a routing output, a label with filter and output, a root filter, and a
// terminal output. The limited mode load agent's relabel output is created
// on top of these.
func traversalConf() *config.Element {
	return rootConf(
		sourceEl("in0"),
		sourceEl("in1"),
		routerMatchEl("redirect", "ro0", "@l1"),
		filterEl("**", "rf0"),
		matchEl("**", "out0"),
		labelEl("@l1",
			filterEl("**", "lf0"),
			matchEl("**", "lo0"),
		),
	)
}

func TestRootAgent_Lifecycle_AscendingOrder(t *testing.T) {
	ra, _, _ := newTestTree(t, defaultSys(), traversalConf())

	ids := traversalIDs(ra, false)
	require.Len(t, ids, 8)

	// Inputs, routing outputs, label plugins, the load agent's relabel
	// output, then the root's filters and terminal outputs.
	assert.Equal(t, []string{"in0", "in1", "ro0", "lf0", "lo0"}, ids[:5])
	assert.Equal(t, []string{"rf0", "out0"}, ids[6:])

	types := traversalTypes(ra, false)
	assert.Equal(t, "relabel", types[5])
}

func TestRootAgent_Lifecycle_DescendingIsExactReverse(t *testing.T) {
	ra, _, _ := newTestTree(t, defaultSys(), traversalConf())

	asc := traversalIDs(ra, false)
	desc := traversalIDs(ra, true)
	require.Len(t, desc, len(asc))

	slices.Reverse(asc)
	assert.Equal(t, asc, desc)

	// The reversal reaches inside groups: the two inputs swap places.
	assert.Equal(t, "in1", desc[len(desc)-2])
	assert.Equal(t, "in0", desc[len(desc)-1])
}

func TestRootAgent_Lifecycle_ReportsKinds(t *testing.T) {
	ra, _, _ := newTestTree(t, defaultSys(), traversalConf())

	var kinds []string
	ra.Lifecycle(false, func(_ plugin.Instance, kind string) {
		kinds = append(kinds, kind)
	})

	want := []string{"input", "input", "output", "filter", "output", "output", "filter", "output"}
	assert.Equal(t, want, kinds)
}

func startCalls(log *testutil.CallLog) [][2]string {
	var out [][2]string
	for _, c := range log.Calls() {
		if c.Method == "start" || c.Method == "after_start" {
			out = append(out, [2]string{c.Plugin, c.Method})
		}
	}
	return out
}

func TestRootAgent_Start_DescendingWithAdjacentAfterStart(t *testing.T) {
	ra, fix, rec := newTestTree(t, defaultSys(), traversalConf())

	ra.Start()

	// Consumers first, producers last, and both transitions adjacent per
	// instance. The relabel output does not record, so only fakes appear.
	want := [][2]string{
		{"out0", "start"}, {"out0", "after_start"},
		{"rf0", "start"}, {"rf0", "after_start"},
		{"lo0", "start"}, {"lo0", "after_start"},
		{"lf0", "start"}, {"lf0", "after_start"},
		{"ro0", "start"}, {"ro0", "after_start"},
		{"in1", "start"}, {"in1", "after_start"},
		{"in0", "start"}, {"in0", "after_start"},
	}
	assert.Equal(t, want, startCalls(fix.Log))

	for _, id := range []string{"in0", "in1", "ro0", "rf0", "out0", "lf0", "lo0"} {
		inst := fix.Find(id)
		require.NotNil(t, inst)
		assert.True(t, inst.Started(), "plugin %s", id)
		assert.True(t, inst.AfterStarted(), "plugin %s", id)
	}
	assert.True(t, rec.HasMessage("worker started"))
}

func TestRootAgent_Start_CompletedInstancesAreNotRestarted(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), traversalConf())

	ra.Start()
	fix.Log.Reset()
	ra.Start()

	assert.Empty(t, startCalls(fix.Log))
}

func TestRootAgent_Start_FailureDoesNotStopTheWalk(t *testing.T) {
	ra, fix, rec := newTestTree(t, defaultSys(), traversalConf())
	fix.Input("in1").FailOn["start"] = stderrors.New("port already bound")

	ra.Start()

	assert.False(t, fix.Input("in1").Started())
	assert.True(t, fix.Input("in1").AfterStarted())
	assert.True(t, fix.Input("in0").Started())
	assert.True(t, rec.HasMessage("unexpected error while calling lifecycle phase"))

	// The failed transition is retried on the next walk, the completed ones
	// are not.
	fix.Log.Reset()
	ra.Start()
	assert.Equal(t, 1, fix.Log.Count("in1", "start"))
	assert.Equal(t, 0, fix.Log.Count("in0", "start"))
}

func TestRootAgent_Start_PanicIsRecovered(t *testing.T) {
	ra, fix, rec := newTestTree(t, defaultSys(), traversalConf())
	fix.Output("out0").PanicOn["start"] = true

	require.NotPanics(t, func() { ra.Start() })

	assert.False(t, fix.Output("out0").Started())
	assert.True(t, fix.Input("in0").Started())
	assert.True(t, rec.HasMessage("unexpected error while calling lifecycle phase"))
}

func TestRootAgent_Flush_ReachesOnlyFlushers(t *testing.T) {
	ra, fix, _ := newTestTree(t, defaultSys(), traversalConf())
	ra.Start()
	fix.Log.Reset()

	ra.Flush()

	assert.Equal(t, 1, fix.Log.Count("out0", "force_flush"))
	assert.Equal(t, 1, fix.Log.Count("lo0", "force_flush"))
	assert.Equal(t, -1, fix.Log.IndexOf("ro0", "force_flush"))
	assert.Equal(t, -1, fix.Log.IndexOf("in0", "force_flush"))
	assert.Equal(t, -1, fix.Log.IndexOf("rf0", "force_flush"))
}
