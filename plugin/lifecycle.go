package plugin

import "github.com/c360/logstreams/config"

// Lifecycle is the phased state machine every plugin walks through. Each
// transition has a completion predicate; the agent's sequencer consults the
// predicate before invoking the transition, so a phase runs at most once per
// instance and a failed transition is not retried within a run.
//
// All predicates are safe to call before Configure.
type Lifecycle interface {
	// Configure prepares the plugin from its configuration element.
	Configure(e *config.Element) error
	Configured() bool

	// Start begins the plugin's work, e.g. accepting input.
	Start() error
	Started() bool

	// AfterStart runs once the whole tree has started.
	AfterStart() error
	AfterStarted() bool

	// Stop tells the plugin to cease producing new work.
	Stop() error
	Stopped() bool

	// BeforeShutdown runs immediately before Shutdown on each instance.
	BeforeShutdown() error
	BeforeShutdownDone() bool

	// Shutdown releases the plugin's primary resources.
	Shutdown() error
	ShutdownDone() bool

	// AfterShutdown runs once the whole tree has shut down.
	AfterShutdown() error
	AfterShutdownDone() bool

	// Close releases remaining descriptors and connections.
	Close() error
	Closed() bool

	// Terminate is the final transition; afterwards the instance is inert.
	Terminate() error
	Terminated() bool
}

// Instance is a plugin in the tree: the lifecycle plus identity.
type Instance interface {
	Lifecycle

	// PluginType returns the registered type name, e.g. "relabel".
	PluginType() string
	// PluginID returns the instance id, either the configured @id or a
	// generated one.
	PluginID() string
}
