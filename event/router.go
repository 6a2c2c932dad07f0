package event

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/c360/logstreams/errors"
)

// Collector receives event streams for a tag. Output plugins and label
// routers implement it.
type Collector interface {
	EmitStream(tag string, s Stream) error
}

// Filterer transforms a stream on its way to a collector.
type Filterer interface {
	FilterStream(tag string, s Stream) (Stream, error)
}

// MetricCallback observes successfully dispatched streams.
type MetricCallback func(s Stream)

// Router dispatches events to the matching collector for their tag.
type Router interface {
	Emit(tag string, t time.Time, record map[string]any) error
	EmitStream(tag string, s Stream) error
	AddMetricCallback(id string, cb MetricCallback)
}

// ErrorEventEmitter routes per-record failures into the error handling path.
// Plugins that cannot process an event hand it over here instead of dropping
// it silently.
type ErrorEventEmitter interface {
	EmitErrorEvent(tag string, t time.Time, record map[string]any, emitErr error)
}

// ErrorHandler absorbs emit failures on behalf of a router. Agents implement
// it: depending on whether an error collector is wired, failures are
// forwarded or logged with suppression.
type ErrorHandler interface {
	ErrorEventEmitter
	HandleEmitsError(tag string, s Stream, emitErr error) error
}

// rule binds a tag pattern to either a collector or a filter.
type rule struct {
	pattern   string
	collector Collector
	filter    Filterer
}

func (r rule) matches(tag string) bool {
	return r.pattern == "**" || r.pattern == tag
}

// pipeline is the resolved route for one tag: the matching filters in rule
// order, ending at the first matching collector.
type pipeline struct {
	filters []Filterer
	sink    Collector
}

// BasicRouter routes streams by tag. Patterns are either the catch-all "**"
// or an exact tag; rules match in registration order and the first matching
// collector wins. Resolved routes are cached per tag.
type BasicRouter struct {
	mu               sync.RWMutex
	rules            []rule
	pipelines        map[string]*pipeline
	defaultCollector Collector
	errorHandler     ErrorHandler
	callbacks        map[string]MetricCallback
}

// NewBasicRouter creates a router. Streams whose tag matches no rule go to
// defaultCollector; a nil defaultCollector falls back to a NoMatchCollector.
// errorHandler absorbs dispatch failures and may be nil, in which case they
// propagate to the emitter unchanged.
func NewBasicRouter(defaultCollector Collector, errorHandler ErrorHandler) *BasicRouter {
	if defaultCollector == nil {
		defaultCollector = NewNoMatchCollector(nil)
	}
	return &BasicRouter{
		pipelines:        map[string]*pipeline{},
		defaultCollector: defaultCollector,
		errorHandler:     errorHandler,
		callbacks:        map[string]MetricCallback{},
	}
}

// AddRule routes tags matching pattern to a collector.
func (r *BasicRouter) AddRule(pattern string, c Collector) error {
	if err := validatePattern(pattern); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{pattern: pattern, collector: c})
	r.pipelines = map[string]*pipeline{}
	return nil
}

// AddFilterRule applies a filter to tags matching pattern before they reach
// their collector.
func (r *BasicRouter) AddFilterRule(pattern string, f Filterer) error {
	if err := validatePattern(pattern); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{pattern: pattern, filter: f})
	r.pipelines = map[string]*pipeline{}
	return nil
}

// validatePattern rejects everything beyond the catch-all and exact tags.
func validatePattern(pattern string) error {
	if pattern == "**" {
		return nil
	}
	if pattern == "" || strings.ContainsAny(pattern, "*") {
		return errors.WrapInvalid(
			fmt.Errorf("pattern %q: %w", pattern, errors.ErrPatternNotSupported),
			"BasicRouter", "AddRule", "validate match pattern")
	}
	return nil
}

// AddMetricCallback registers a callback observing successfully dispatched
// streams. Re-registering an id replaces the previous callback.
func (r *BasicRouter) AddMetricCallback(id string, cb MetricCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[id] = cb
}

// Emit routes a single event.
func (r *BasicRouter) Emit(tag string, t time.Time, record map[string]any) error {
	return r.EmitStream(tag, OneEntryStream(t, record))
}

// EmitStream routes a stream to the collector matching its tag. Dispatch
// failures go to the error handler; its verdict is returned. Metric
// callbacks observe the stream only after a successful dispatch.
func (r *BasicRouter) EmitStream(tag string, s Stream) error {
	if err := r.dispatch(tag, s); err != nil {
		if r.errorHandler != nil {
			return r.errorHandler.HandleEmitsError(tag, s, err)
		}
		return err
	}
	r.measure(s)
	return nil
}

// EmitErrorEvent forwards a failed record to the error handler, which routes
// it to the error collector or logs it.
func (r *BasicRouter) EmitErrorEvent(tag string, t time.Time, record map[string]any, emitErr error) {
	if r.errorHandler != nil {
		r.errorHandler.EmitErrorEvent(tag, t, record, emitErr)
	}
}

func (r *BasicRouter) dispatch(tag string, s Stream) error {
	p := r.pipelineFor(tag)
	for _, f := range p.filters {
		var err error
		s, err = f.FilterStream(tag, s)
		if err != nil {
			return err
		}
	}
	return p.sink.EmitStream(tag, s)
}

func (r *BasicRouter) pipelineFor(tag string) *pipeline {
	r.mu.RLock()
	p, ok := r.pipelines[tag]
	r.mu.RUnlock()
	if ok {
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pipelines[tag]; ok {
		return p
	}
	p = &pipeline{}
	for _, rl := range r.rules {
		if !rl.matches(tag) {
			continue
		}
		if rl.filter != nil {
			p.filters = append(p.filters, rl.filter)
			continue
		}
		p.sink = rl.collector
		break
	}
	if p.sink == nil {
		p.sink = r.defaultCollector
	}
	r.pipelines[tag] = p
	return p
}

func (r *BasicRouter) measure(s Stream) {
	r.mu.RLock()
	if len(r.callbacks) == 0 {
		r.mu.RUnlock()
		return
	}
	cbs := make([]MetricCallback, 0, len(r.callbacks))
	for _, cb := range r.callbacks {
		cbs = append(cbs, cb)
	}
	r.mu.RUnlock()

	for _, cb := range cbs {
		cb(s)
	}
}
