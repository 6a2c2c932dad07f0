package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/plugin"
	"github.com/c360/logstreams/testutil"
)

func defaultSys() config.SystemConfig {
	return config.SystemConfig{Workers: 1}
}

func el(name, arg string, attrs map[string]string, children ...*config.Element) *config.Element {
	return config.NewElement(name, arg, attrs, children)
}

func rootConf(children ...*config.Element) *config.Element {
	return el("ROOT", "", nil, children...)
}

func sourceEl(id string) *config.Element {
	return el("source", "", map[string]string{"@type": "fake_input", "@id": id})
}

func filterEl(pattern, id string) *config.Element {
	return el("filter", pattern, map[string]string{"@type": "fake_filter", "@id": id})
}

func matchEl(pattern, id string) *config.Element {
	return el("match", pattern, map[string]string{"@type": "fake_output", "@id": id})
}

func routerMatchEl(pattern, id, label string) *config.Element {
	attrs := map[string]string{"@type": "fake_router_output", "@id": id}
	if label != "" {
		attrs["@label"] = label
	}
	return el("match", pattern, attrs)
}

func labelEl(name string, children ...*config.Element) *config.Element {
	return el("label", name, nil, children...)
}

// newTestRegistry builds a registry holding the builtins and the fixture's
// fake plugin types.
func newTestRegistry(t *testing.T, fix *testutil.Fixture) *plugin.Registry {
	t.Helper()
	reg := plugin.NewRegistry()
	require.NoError(t, plugin.RegisterBuiltins(reg))
	require.NoError(t, fix.Register(reg))
	return reg
}

// newTestTree builds and configures a root agent over fake plugins,
// capturing its log output.
func newTestTree(t *testing.T, sys config.SystemConfig, conf *config.Element) (*RootAgent, *testutil.Fixture, *testutil.LogRecorder) {
	t.Helper()
	fix := testutil.NewFixture()
	rec := testutil.NewLogRecorder()
	ra, err := NewRootAgent(newTestRegistry(t, fix), sys, WithLogger(rec.Logger()))
	require.NoError(t, err)
	require.NoError(t, ra.Configure(conf))
	return ra, fix, rec
}

// configureErr builds a root agent and returns the Configure error.
func configureErr(t *testing.T, sys config.SystemConfig, conf *config.Element) error {
	t.Helper()
	fix := testutil.NewFixture()
	ra, err := NewRootAgent(newTestRegistry(t, fix), sys)
	require.NoError(t, err)
	return ra.Configure(conf)
}

// traversalTypes maps the traversal to plugin types, the stable way to
// assert order when generated ids are in play.
func traversalTypes(ra *RootAgent, desc bool) []string {
	var types []string
	ra.Lifecycle(desc, func(inst plugin.Instance, _ string) {
		types = append(types, inst.PluginType())
	})
	return types
}

func traversalIDs(ra *RootAgent, desc bool) []string {
	var ids []string
	ra.Lifecycle(desc, func(inst plugin.Instance, _ string) {
		ids = append(ids, inst.PluginID())
	})
	return ids
}
