package plugin

import "github.com/c360/logstreams/event"

// Optional plugin capabilities, detected by interface assertion. A plugin
// opts in by implementing the interface; the agent discovers capabilities
// with the As* helpers instead of configuration flags.

// Flusher is implemented by plugins holding buffered events that can be
// pushed out on demand.
type Flusher interface {
	ForceFlush() error
}

// LimitedModeCapable is implemented by inputs that can keep ingesting while
// the rest of the pipeline is unavailable, writing to local storage instead
// of routing.
type LimitedModeCapable interface {
	// LimitedModeReady reports whether the input can shift right now.
	LimitedModeReady() bool
	// ShiftToLimitedMode redirects ingestion to local storage.
	ShiftToLimitedMode() error
}

// RouterOwner is implemented by plugins that emit events onward and need a
// router wired in during configuration. HasRouter declares the capability
// statically; it does not report whether a router is currently set.
type RouterOwner interface {
	SetRouter(r event.Router)
	Router() event.Router
	HasRouter() bool
}

// MetricCollector is implemented by inputs that count their ingest; the root
// agent registers the callback on its router when input metrics are enabled.
type MetricCollector interface {
	MetricCallback(s event.Stream)
}

// AsFlusher reports whether the instance can flush buffered events.
func AsFlusher(i Instance) (Flusher, bool) {
	f, ok := i.(Flusher)
	return f, ok
}

// AsLimitedModeCapable reports whether the instance supports limited mode.
func AsLimitedModeCapable(i Instance) (LimitedModeCapable, bool) {
	lm, ok := i.(LimitedModeCapable)
	return lm, ok
}

// AsRouterOwner reports whether the instance wants a router wired in.
func AsRouterOwner(i Instance) (RouterOwner, bool) {
	ro, ok := i.(RouterOwner)
	if !ok || !ro.HasRouter() {
		return nil, false
	}
	return ro, true
}

// AsMetricCollector reports whether the instance counts its own ingest.
func AsMetricCollector(i Instance) (MetricCollector, bool) {
	mc, ok := i.(MetricCollector)
	return mc, ok
}

// AsCollector reports whether the instance receives event streams.
func AsCollector(i Instance) (event.Collector, bool) {
	c, ok := i.(event.Collector)
	return c, ok
}

// AsFilterer reports whether the instance transforms event streams.
func AsFilterer(i Instance) (event.Filterer, bool) {
	f, ok := i.(event.Filterer)
	return f, ok
}
