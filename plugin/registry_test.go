package plugin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/errors"
)

type nullPlugin struct{ Base }

func newNullRegistration(kind Kind, name string) Registration {
	return Registration{
		Kind:    kind,
		Name:    name,
		Factory: func() Instance { return &nullPlugin{Base: NewBase(name, nil)} },
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Run("Valid registration succeeds", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(newNullRegistration(KindOutput, "stdout")))

		reg, ok := r.Lookup(KindOutput, "stdout")
		require.True(t, ok)
		assert.Equal(t, "stdout", reg.Name)
	})

	t.Run("Duplicate kind and name fails", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(newNullRegistration(KindOutput, "stdout")))

		err := r.Register(newNullRegistration(KindOutput, "stdout"))
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrDuplicatePlugin)
	})

	t.Run("Same name under different kinds is allowed", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(newNullRegistration(KindOutput, "null")))
		require.NoError(t, r.Register(newNullRegistration(KindFilter, "null")))
		require.NoError(t, r.Register(newNullRegistration(KindInput, "null")))
	})

	t.Run("Empty name fails", func(t *testing.T) {
		assert.Error(t, NewRegistry().Register(newNullRegistration(KindOutput, "")))
	})

	t.Run("Invalid name characters fail", func(t *testing.T) {
		assert.Error(t, NewRegistry().Register(newNullRegistration(KindOutput, "bad name")))
		assert.Error(t, NewRegistry().Register(newNullRegistration(KindOutput, "bad/name")))
	})

	t.Run("Nil factory fails", func(t *testing.T) {
		err := NewRegistry().Register(Registration{Kind: KindOutput, Name: "x"})
		assert.Error(t, err)
	})

	t.Run("Unknown kind fails", func(t *testing.T) {
		err := NewRegistry().Register(newNullRegistration(Kind("buffer"), "x"))
		assert.Error(t, err)
	})
}

func TestRegistry_New(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newNullRegistration(KindInput, "tail")))

	t.Run("Creates fresh instances", func(t *testing.T) {
		a, err := r.New(KindInput, "tail")
		require.NoError(t, err)
		b, err := r.New(KindInput, "tail")
		require.NoError(t, err)

		assert.Equal(t, "tail", a.PluginType())
		assert.NotSame(t, a, b, "every New call builds a new instance")
	})

	t.Run("Unknown type fails", func(t *testing.T) {
		_, err := r.New(KindInput, "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrUnknownPlugin)
		assert.Contains(t, err.Error(), "unknown input plugin 'nope'")
	})

	t.Run("Kind partition is respected", func(t *testing.T) {
		_, err := r.New(KindOutput, "tail")
		assert.ErrorIs(t, err, errors.ErrUnknownPlugin)
	})
}

func TestRegistry_Types(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newNullRegistration(KindOutput, "stdout")))
	require.NoError(t, r.Register(newNullRegistration(KindOutput, "file")))
	require.NoError(t, r.Register(newNullRegistration(KindFilter, "grep")))

	assert.Equal(t, []string{"file", "stdout"}, r.Types(KindOutput))
	assert.Equal(t, []string{"grep"}, r.Types(KindFilter))
	assert.Empty(t, r.Types(KindInput))
}

func TestRegistry_ValidateElement(t *testing.T) {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"port": {"type": "string", "pattern": "^[0-9]+$"}
		},
		"required": ["port"],
		"additionalProperties": true
	}`)

	r := NewRegistry()
	reg := newNullRegistration(KindInput, "forward")
	reg.ConfigSchema = schema
	require.NoError(t, r.Register(reg))
	require.NoError(t, r.Register(newNullRegistration(KindInput, "schemaless")))

	t.Run("Valid attributes pass", func(t *testing.T) {
		e := config.NewElement("source", "", map[string]string{"@type": "forward", "port": "24224"}, nil)
		assert.NoError(t, r.ValidateElement(KindInput, "forward", e))
	})

	t.Run("Missing required attribute fails", func(t *testing.T) {
		e := config.NewElement("source", "", map[string]string{"@type": "forward"}, nil)
		err := r.ValidateElement(KindInput, "forward", e)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
		assert.Contains(t, err.Error(), "port")
	})

	t.Run("Pattern violation fails", func(t *testing.T) {
		e := config.NewElement("source", "", map[string]string{"port": "not-a-number"}, nil)
		assert.Error(t, r.ValidateElement(KindInput, "forward", e))
	})

	t.Run("No schema means no validation", func(t *testing.T) {
		e := config.NewElement("source", "", map[string]string{"anything": "goes"}, nil)
		assert.NoError(t, r.ValidateElement(KindInput, "schemaless", e))
	})

	t.Run("Unknown type fails", func(t *testing.T) {
		e := config.NewElement("source", "", nil, nil)
		assert.ErrorIs(t, r.ValidateElement(KindInput, "nope", e), errors.ErrUnknownPlugin)
	})
}

func TestValidateTypeName(t *testing.T) {
	assert.NoError(t, ValidateTypeName("relabel"))
	assert.NoError(t, ValidateTypeName("file_buffer"))
	assert.NoError(t, ValidateTypeName("s3-v2.1"))
	assert.Error(t, ValidateTypeName(""))
	assert.Error(t, ValidateTypeName("has space"))
	assert.Error(t, ValidateTypeName("has/slash"))
	assert.Error(t, ValidateTypeName("has@at"))
}
