package plugin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/errors"
	"github.com/c360/logstreams/event"
)

func relabelElement(attrs map[string]string) *config.Element {
	if attrs == nil {
		attrs = map[string]string{}
	}
	attrs["@type"] = "relabel"
	return config.NewElement("match", "**", attrs, nil)
}

func TestRelabelOutput_Configure(t *testing.T) {
	t.Run("Requires @label", func(t *testing.T) {
		o := NewRelabelOutput(nil)
		err := o.Configure(relabelElement(nil))
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
		assert.Contains(t, err.Error(), "@label")
	})

	t.Run("Accepts a destination label", func(t *testing.T) {
		o := NewRelabelOutput(nil)
		require.NoError(t, o.Configure(relabelElement(map[string]string{"@label": "@ROOT"})))
		assert.True(t, o.Configured())
	})

	t.Run("Ignores buffer attributes", func(t *testing.T) {
		o := NewRelabelOutput(nil)
		err := o.Configure(relabelElement(map[string]string{
			"@label":             "@ROOT",
			"path":               "/var/log/logstreams/limited_mode_buffer",
			"flush_mode":         "immediate",
			"flush_at_shutdown":  "false",
			"flush_thread_count": "0",
		}))
		assert.NoError(t, err)
	})
}

func TestRelabelOutput_EmitStream(t *testing.T) {
	stream := event.OneEntryStream(time.Unix(5, 0), map[string]any{"message": "m"})

	t.Run("Forwards to the wired router", func(t *testing.T) {
		o := NewRelabelOutput(nil)
		require.NoError(t, o.Configure(relabelElement(map[string]string{"@label": "@APP"})))

		router, sink := newCaptureRouter()
		o.SetRouter(router)

		require.NoError(t, o.EmitStream("app.access", stream))

		require.Equal(t, 1, sink.count())
		assert.Equal(t, "app.access", sink.tags[0], "tag is preserved across the hop")
	})

	t.Run("Fails without a router", func(t *testing.T) {
		o := NewRelabelOutput(nil)
		require.NoError(t, o.Configure(relabelElement(map[string]string{"@label": "@APP"})))

		err := o.EmitStream("app.access", stream)
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrNoRouter)
	})
}

func TestRelabelOutput_Capabilities(t *testing.T) {
	var inst Instance = NewRelabelOutput(nil)

	ro, ok := AsRouterOwner(inst)
	require.True(t, ok, "relabel owns a router")
	assert.NotNil(t, ro)

	_, ok = AsCollector(inst)
	assert.True(t, ok, "relabel receives streams")

	_, ok = AsFlusher(inst)
	assert.False(t, ok, "relabel holds no buffer")

	_, ok = AsLimitedModeCapable(inst)
	assert.False(t, ok)

	_, ok = AsFilterer(inst)
	assert.False(t, ok)
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))

	t.Run("Relabel output is available", func(t *testing.T) {
		inst, err := r.New(KindOutput, "relabel")
		require.NoError(t, err)
		assert.Equal(t, "relabel", inst.PluginType())
		_, ok := inst.(*RelabelOutput)
		assert.True(t, ok)
	})

	t.Run("Schema enforces @label", func(t *testing.T) {
		e := relabelElement(nil)
		err := r.ValidateElement(KindOutput, "relabel", e)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "@label")

		e = relabelElement(map[string]string{"@label": "@ROOT"})
		assert.NoError(t, r.ValidateElement(KindOutput, "relabel", e))
	})

	t.Run("Second call collides", func(t *testing.T) {
		assert.ErrorIs(t, RegisterBuiltins(r), errors.ErrDuplicatePlugin)
	})
}
