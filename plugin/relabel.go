package plugin

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/errors"
	"github.com/c360/logstreams/event"
)

// RelabelOutput forwards every stream it receives to another label's router.
// The agent resolves the @label attribute during configuration and wires the
// destination router in; the plugin itself is pure routing glue.
//
// Buffer attributes (path, flush_mode, flush_at_shutdown, flush_thread_count)
// pass through untouched so a storage-backed output registered under a
// different type name can honor them instead.
type RelabelOutput struct {
	Base
	Emitter
}

// NewRelabelOutput creates an unconfigured relabel output.
func NewRelabelOutput(logger *slog.Logger) *RelabelOutput {
	return &RelabelOutput{Base: NewBase("relabel", logger)}
}

// Configure requires the @label attribute naming the destination.
func (o *RelabelOutput) Configure(e *config.Element) error {
	if err := o.Base.Configure(e); err != nil {
		return err
	}
	if e.Attr("@label") == "" {
		return errors.WrapInvalid(
			fmt.Errorf("relabel output requires a '@label' parameter: %w", errors.ErrMissingConfig),
			"RelabelOutput", "Configure", "read '@label'")
	}
	return nil
}

// EmitStream forwards the stream to the destination label's router.
func (o *RelabelOutput) EmitStream(tag string, s event.Stream) error {
	r := o.Router()
	if r == nil {
		return errors.WrapTransient(
			fmt.Errorf("relabel output '%s': %w", o.PluginID(), errors.ErrNoRouter),
			"RelabelOutput", "EmitStream", "forward stream")
	}
	return r.EmitStream(tag, s)
}

var relabelConfigSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"@type":  {"type": "string"},
		"@id":    {"type": "string"},
		"@label": {"type": "string", "minLength": 1}
	},
	"required": ["@label"],
	"additionalProperties": true
}`)

// RegisterBuiltins adds the plugin types the daemon ships with.
func RegisterBuiltins(r *Registry) error {
	return r.Register(Registration{
		Kind:         KindOutput,
		Name:         "relabel",
		Factory:      func() Instance { return NewRelabelOutput(nil) },
		ConfigSchema: relabelConfigSchema,
		Description:  "forward events to another label's router",
	})
}
