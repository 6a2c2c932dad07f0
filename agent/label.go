package agent

import (
	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/event"
)

const (
	// RootLabelName addresses the root agent's router from @label attributes.
	RootLabelName = "@ROOT"
	// ErrorLabelName is the label receiving error events. It cannot forward
	// its own failures back into itself.
	ErrorLabelName = "@ERROR"
)

// Label is a named routing domain. Events relabeled into it are dispatched
// by its own router against its own filters and outputs, isolated from the
// root routing table.
type Label struct {
	name  string
	agent *Agent
}

func newLabel(root *RootAgent, name string) *Label {
	logger := root.logger.With("label", name)

	// The @ERROR label cannot use the root agent as its error handler:
	// failures inside it would loop back into the label forever.
	var handler event.ErrorHandler = &root.Agent
	if name == ErrorLabelName {
		handler = &errorLabelHandler{logger: logger}
	}

	return &Label{name: name, agent: newAgent(root, logger, handler)}
}

// Name returns the label name, including the leading @.
func (l *Label) Name() string { return l.name }

// Agent returns the label's routing domain.
func (l *Label) Agent() *Agent { return l.agent }

// EventRouter returns the label's router, the target wired into plugins that
// relabel into this label.
func (l *Label) EventRouter() *event.BasicRouter { return l.agent.router }

// Configure builds the label's filters and outputs from its section.
func (l *Label) Configure(e *config.Element) error {
	return l.agent.Configure(e)
}
