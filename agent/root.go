package agent

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/errors"
	"github.com/c360/logstreams/event"
	"github.com/c360/logstreams/metric"
	"github.com/c360/logstreams/plugin"
)

// RootAgent supervises one worker's plugin tree: the top level sources,
// filters and matches, the labels, and the limited mode agents. It drives
// every instance through its lifecycle and absorbs emit errors as the tree's
// shared error handler.
//
// Configure and the lifecycle operations mutate the tree and are meant to be
// called from the worker's supervision goroutine; concurrent emits against
// the routers are safe at any point.
type RootAgent struct {
	Agent

	registry *plugin.Registry
	sys      config.SystemConfig

	mu            sync.RWMutex
	labels        map[string]*Label
	labelOrder    []*Label
	inputs        []plugin.Instance
	agents        []*Agent
	loadAgent     *Agent
	outputAgent   *Agent
	limitedRouter *event.BasicRouter
	startedAt     time.Time

	started       atomic.Bool
	inLimited     atomic.Bool
	phaseFailures atomic.Int64

	metrics *rootMetrics
}

// Option configures a RootAgent.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics metric.Registrar
}

// WithLogger sets the logger the agent and its plugins derive theirs from.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics registers the agent's metrics with reg, which must be non-nil.
func WithMetrics(reg metric.Registrar) Option {
	return func(o *options) { o.metrics = reg }
}

// NewRootAgent creates the supervisor for one worker. The registry supplies
// plugin factories during Configure.
func NewRootAgent(registry *plugin.Registry, sys config.SystemConfig, opts ...Option) (*RootAgent, error) {
	if registry == nil {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig,
			"RootAgent", "New", "plugin registry is required")
	}
	if err := sys.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	ra := &RootAgent{
		registry: registry,
		sys:      sys,
		labels:   map[string]*Label{},
	}

	if o.metrics != nil {
		m, err := newRootMetrics(o.metrics)
		if err != nil {
			return nil, err
		}
		ra.metrics = m
	}

	logger := o.logger.With("worker_id", sys.WorkerID)
	ra.Agent = Agent{
		root:             ra,
		logger:           logger,
		suppressInterval: sys.EmitErrorLogInterval,
	}
	ra.Agent.router = event.NewBasicRouter(event.NewNoMatchCollector(logger), &ra.Agent)

	if ra.metrics != nil {
		ra.Agent.router.AddMetricCallback("root_agent", func(s event.Stream) {
			ra.metrics.recordEmittedEntries(len(s))
		})
	}

	return ra, nil
}

// Configure builds the whole tree from the configuration root. The order
// matters: worker assignment first so exclusions are known, then labels so
// @label references resolve, the error label after the regular ones, the
// root's own filters and matches, the sources last among user plugins, and
// finally the agent that loads limited mode buffers left by a previous run.
func (ra *RootAgent) Configure(conf *config.Element) error {
	if conf == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig,
			"RootAgent", "Configure", "configuration root is required")
	}

	if err := config.AssignWorkers(conf, ra.sys); err != nil {
		return err
	}

	type labelConf struct {
		label *Label
		el    *config.Element
	}
	var labelConfs []labelConf
	var errorLabelElement *config.Element

	for _, el := range conf.Elements("label") {
		if ra.sys.Excludes(el) {
			continue
		}
		name := el.Arg
		switch {
		case name == "":
			return errors.WrapInvalid(errors.ErrMissingLabelName,
				"RootAgent", "Configure", "read label sections")
		case name == RootLabelName:
			return errors.WrapInvalid(
				fmt.Errorf("<label %s>: %w", name, errors.ErrReservedLabel),
				"RootAgent", "Configure", "read label sections")
		case name == ErrorLabelName:
			if errorLabelElement != nil {
				return errors.WrapInvalid(
					fmt.Errorf("section <label %s> appears twice: %w", name, errors.ErrDuplicateLabel),
					"RootAgent", "Configure", "read label sections")
			}
			errorLabelElement = el
		default:
			l, err := ra.addLabel(name)
			if err != nil {
				return err
			}
			labelConfs = append(labelConfs, labelConf{label: l, el: el})
		}
	}

	for _, lc := range labelConfs {
		if err := lc.label.Configure(lc.el); err != nil {
			return errors.Wrap(err, "RootAgent", "Configure",
				fmt.Sprintf("configure <label %s>", lc.label.Name()))
		}
	}

	if errorLabelElement != nil {
		if err := ra.setupErrorLabel(errorLabelElement); err != nil {
			return err
		}
	}

	if err := ra.Agent.Configure(conf); err != nil {
		return err
	}

	if !ra.sys.WithoutSource {
		if err := ra.configureSources(conf); err != nil {
			return err
		}
	}

	if err := ra.setupLoadAgent(); err != nil {
		return err
	}

	ra.updateLiveInstances()
	return nil
}

// addLabel registers a label in declaration order.
func (ra *RootAgent) addLabel(name string) (*Label, error) {
	ra.mu.Lock()
	defer ra.mu.Unlock()

	if _, exists := ra.labels[name]; exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("section <label %s> appears twice: %w", name, errors.ErrDuplicateLabel),
			"RootAgent", "Configure", "register label")
	}

	l := newLabel(ra, name)
	ra.labels[name] = l
	ra.labelOrder = append(ra.labelOrder, l)
	return l, nil
}

// FindLabel resolves a label by name.
func (ra *RootAgent) FindLabel(name string) (*Label, error) {
	ra.mu.RLock()
	defer ra.mu.RUnlock()

	l, ok := ra.labels[name]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("<label %s>: %w", name, errors.ErrLabelNotFound),
			"RootAgent", "FindLabel", "label lookup")
	}
	return l, nil
}

// setupErrorLabel configures the @ERROR label after every other label so the
// plugins inside it can reference them, then binds it as the tree's error
// collector.
func (ra *RootAgent) setupErrorLabel(el *config.Element) error {
	errorLabel, err := ra.addLabel(ErrorLabelName)
	if err != nil {
		return err
	}
	if err := errorLabel.Configure(el); err != nil {
		return errors.Wrap(err, "RootAgent", "Configure", "configure <label @ERROR>")
	}
	ra.Agent.errorCollector = errorLabel.EventRouter()
	return nil
}

func (ra *RootAgent) configureSources(conf *config.Element) error {
	for _, el := range conf.Elements("source") {
		if ra.sys.Excludes(el) {
			continue
		}
		typeName := el.Attr("@type")
		if typeName == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w on <source> directive", errors.ErrMissingType),
				"RootAgent", "Configure", "read source sections")
		}
		if err := ra.addSource(typeName, el); err != nil {
			return err
		}
	}
	return nil
}

func (ra *RootAgent) addSource(typeName string, e *config.Element) error {
	ra.logger.Info("adding source", "type", typeName)

	inst, err := ra.newConfiguredPlugin(plugin.KindInput, typeName, e)
	if err != nil {
		return err
	}

	if ra.sys.EnableInputMetrics {
		if mc, ok := plugin.AsMetricCollector(inst); ok {
			ra.router.AddMetricCallback(inst.PluginID(), mc.MetricCallback)
		}
	}

	ra.mu.Lock()
	ra.inputs = append(ra.inputs, inst)
	ra.mu.Unlock()
	return nil
}

// setupLoadAgent prepares the agent draining limited mode buffers left
// behind by a previous run back into the root router. It always exists, so
// a daemon that never degrades still recovers the storage of one that did.
func (ra *RootAgent) setupLoadAgent() error {
	load := newAgent(ra, ra.logger.With("agent", "limited_mode_load"), &ra.Agent)
	if err := load.Configure(limitedModeAgentConfig(ra.sys, false)); err != nil {
		return errors.Wrap(err, "RootAgent", "Configure", "configure limited mode load agent")
	}

	ra.mu.Lock()
	ra.loadAgent = load
	ra.agents = append(ra.agents, load)
	ra.mu.Unlock()
	return nil
}

// limitedModeAgentConfig synthesizes the configuration for the limited mode
// agents: a single catch-all match on the limited mode storage type, wired
// back to the root router. The output stage variant disables flushing, it
// only writes the buffer that the load agent of the next run will drain.
func limitedModeAgentConfig(sys config.SystemConfig, outputStage bool) *config.Element {
	attrs := map[string]string{
		"@type":             sys.LimitedModeStorage(),
		"@label":            RootLabelName,
		"path":              sys.LimitedModeBufferPath(),
		"flush_mode":        "immediate",
		"flush_at_shutdown": "false",
	}
	if outputStage {
		attrs["flush_thread_count"] = "0"
	}
	match := config.NewElement("match", "**", attrs, nil)
	return config.NewElement("LIMITED_MODE", "", nil, []*config.Element{match})
}

func (ra *RootAgent) updateLiveInstances() {
	if ra.metrics == nil {
		return
	}
	counts := map[string]int{}
	ra.Lifecycle(false, func(_ plugin.Instance, kind string) {
		counts[kind]++
	})
	ra.metrics.setLiveInstances(counts)
}

// Inputs returns the configured input instances.
func (ra *RootAgent) Inputs() []plugin.Instance {
	ra.mu.RLock()
	defer ra.mu.RUnlock()
	out := make([]plugin.Instance, len(ra.inputs))
	copy(out, ra.inputs)
	return out
}

// Labels returns the labels in declaration order, the error label last.
func (ra *RootAgent) Labels() []*Label {
	ra.mu.RLock()
	defer ra.mu.RUnlock()
	out := make([]*Label, len(ra.labelOrder))
	copy(out, ra.labelOrder)
	return out
}

// ErrorCollector returns the @ERROR label's router, nil when no error label
// is configured.
func (ra *RootAgent) ErrorCollector() event.Router {
	return ra.Agent.errorCollector
}

// InLimitedMode reports whether the worker has degraded to limited mode.
func (ra *RootAgent) InLimitedMode() bool {
	return ra.inLimited.Load()
}

// LimitedRouter returns the limited mode output agent's router, nil before
// the shift.
func (ra *RootAgent) LimitedRouter() *event.BasicRouter {
	ra.mu.RLock()
	defer ra.mu.RUnlock()
	return ra.limitedRouter
}
