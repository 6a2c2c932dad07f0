// Package plugin defines the plugin contract of the daemon: the phased
// lifecycle every plugin implements, the optional capabilities the agent
// discovers by interface assertion, and the registry plugin types are
// created from.
//
// # Lifecycle
//
// A plugin moves through configure, start, after-start, and a five phase
// teardown (stop, before-shutdown/shutdown, after-shutdown, close,
// terminate). Each transition pairs with a completion predicate; the agent's
// sequencer checks the predicate before invoking the transition, so completed
// phases never rerun while a failed transition stays pending and is attempted
// again on the next walk.
//
// Base implements the bookkeeping: embed it, override the transitions that
// do real work, and call the Base method on the success path. The Emitter
// embeddable adds router ownership for plugins that emit events onward.
//
// # Capabilities
//
// Beyond the lifecycle, plugins opt into capabilities by implementing small
// interfaces: Flusher (buffered events that can be pushed out on demand),
// LimitedModeCapable (inputs that keep ingesting during degradation),
// RouterOwner (plugins that need a router wired in), MetricCollector
// (inputs counting their ingest), and the event package's Collector and
// Filterer. The As* helpers perform the assertions.
//
// # Registry
//
// Plugin types register per kind (input, filter, output) with a factory and
// an optional JSON schema for their configuration attributes. The agent
// instantiates and validates through the registry; RegisterBuiltins adds the
// shipped types.
package plugin
