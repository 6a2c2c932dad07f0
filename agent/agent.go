package agent

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/errors"
	"github.com/c360/logstreams/event"
	"github.com/c360/logstreams/plugin"
)

// Agent owns one routing domain of the tree: the filters and outputs
// configured at that level and the router binding them together. The root
// agent, every label, and the limited mode agents are each one Agent.
type Agent struct {
	root   *RootAgent
	logger *slog.Logger

	filters []plugin.Instance
	outputs []plugin.Instance
	router  *event.BasicRouter

	// Error handling state. Only the root agent's embedded Agent acts as the
	// shared error handler; these fields stay zero on all other agents.
	errorCollector   event.Router
	suppressInterval time.Duration
	emitMu           sync.Mutex
	nextLogTime      time.Time
}

// newAgent creates a non-root agent whose router reports emit failures to
// handler.
func newAgent(root *RootAgent, logger *slog.Logger, handler event.ErrorHandler) *Agent {
	a := &Agent{root: root, logger: logger}
	a.router = event.NewBasicRouter(event.NewNoMatchCollector(logger), handler)
	return a
}

// EventRouter returns the agent's router.
func (a *Agent) EventRouter() *event.BasicRouter {
	return a.router
}

// Configure reads the <filter> and <match> sections of e in document order
// and builds the agent's plugins. Sections annotated for another worker are
// skipped.
func (a *Agent) Configure(e *config.Element) error {
	for _, el := range e.Elements("filter", "match") {
		if a.root.sys.Excludes(el) {
			continue
		}

		pattern := el.Arg
		if pattern == "" {
			pattern = "**"
		}
		typeName := el.Attr("@type")
		if typeName == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w on %s directive", errors.ErrMissingType, sectionName(el)),
				"Agent", "Configure", "read plugin type")
		}

		var err error
		if el.Name == "filter" {
			err = a.addFilter(pattern, typeName, el)
		} else {
			err = a.addMatch(pattern, typeName, el)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) addFilter(pattern, typeName string, e *config.Element) error {
	a.logger.Info("adding filter", "pattern", pattern, "type", typeName)

	inst, err := a.newConfiguredPlugin(plugin.KindFilter, typeName, e)
	if err != nil {
		return err
	}
	f, ok := plugin.AsFilterer(inst)
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("filter plugin '%s' does not filter streams", typeName),
			"Agent", "AddFilter", "capability check")
	}
	if err := a.router.AddFilterRule(pattern, f); err != nil {
		return err
	}
	a.filters = append(a.filters, inst)
	return nil
}

func (a *Agent) addMatch(pattern, typeName string, e *config.Element) error {
	a.logger.Info("adding match", "pattern", pattern, "type", typeName)

	inst, err := a.newConfiguredPlugin(plugin.KindOutput, typeName, e)
	if err != nil {
		return err
	}
	c, ok := plugin.AsCollector(inst)
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("output plugin '%s' does not collect streams", typeName),
			"Agent", "AddMatch", "capability check")
	}
	if err := a.router.AddRule(pattern, c); err != nil {
		return err
	}
	a.outputs = append(a.outputs, inst)
	return nil
}

// newConfiguredPlugin creates, validates, wires and configures one plugin
// instance. Plugins that own a router get it before Configure so they can
// rely on it from the first transition.
func (a *Agent) newConfiguredPlugin(kind plugin.Kind, typeName string, e *config.Element) (plugin.Instance, error) {
	inst, err := a.root.registry.New(kind, typeName)
	if err != nil {
		return nil, err
	}
	if err := a.root.registry.ValidateElement(kind, typeName, e); err != nil {
		return nil, err
	}

	if ro, ok := plugin.AsRouterOwner(inst); ok {
		router, err := a.emitRouterFor(e.Attr("@label"))
		if err != nil {
			return nil, err
		}
		ro.SetRouter(router)
	}

	if err := inst.Configure(e); err != nil {
		return nil, errors.Wrap(err, "Agent", "Configure",
			fmt.Sprintf("configure %s plugin '%s'", kind, typeName))
	}
	return inst, nil
}

// emitRouterFor resolves the router a plugin emits into: its own agent's
// router by default, the root router for @ROOT, or the named label's router.
func (a *Agent) emitRouterFor(labelName string) (event.Router, error) {
	switch labelName {
	case "":
		return a.router, nil
	case RootLabelName:
		return a.root.EventRouter(), nil
	default:
		l, err := a.root.FindLabel(labelName)
		if err != nil {
			return nil, err
		}
		return l.EventRouter(), nil
	}
}

func sectionName(e *config.Element) string {
	if e.Arg == "" {
		return "<" + e.Name + ">"
	}
	return "<" + e.Name + " " + e.Arg + ">"
}
