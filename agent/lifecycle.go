package agent

import (
	"slices"
	"time"

	"github.com/c360/logstreams/errors"
	"github.com/c360/logstreams/plugin"
)

// lifecycleEntry pairs an instance with the kind word used in logs and
// metrics.
type lifecycleEntry struct {
	instance plugin.Instance
	kind     string
}

// lifecycleGroup is the unit of phase concurrency: within an unsafe phase
// the entries of one group run in parallel and the group joins before the
// walk moves on.
type lifecycleGroup []lifecycleEntry

func appendGroup(groups []lifecycleGroup, kind string, instances []plugin.Instance) []lifecycleGroup {
	if len(instances) == 0 {
		return groups
	}
	g := make(lifecycleGroup, 0, len(instances))
	for _, inst := range instances {
		g = append(g, lifecycleEntry{instance: inst, kind: kind})
	}
	return append(groups, g)
}

// agentGroups returns one agent's instances in ascending order: filters,
// then outputs.
func agentGroups(a *Agent) []lifecycleGroup {
	var groups []lifecycleGroup
	groups = appendGroup(groups, "filter", a.filters)
	groups = appendGroup(groups, "output", a.outputs)
	return groups
}

// lifecycleGroups snapshots the traversal over every live instance.
//
// Ascending starts at the consumer end: inputs, then outputs that route
// onward, the labels in declaration order (each filters before outputs), the
// limited mode agents, the root's filters, and the terminal outputs last.
// Descending is the exact reverse, at the group and the instance level.
func (ra *RootAgent) lifecycleGroups(desc bool) []lifecycleGroup {
	ra.mu.RLock()
	inputs := slices.Clone(ra.inputs)
	labels := slices.Clone(ra.labelOrder)
	agents := slices.Clone(ra.agents)
	ra.mu.RUnlock()

	withRouter, plain := splitOutputs(ra.Agent.outputs)

	var groups []lifecycleGroup
	groups = appendGroup(groups, "input", inputs)
	groups = appendGroup(groups, "output", withRouter)
	for _, l := range labels {
		groups = append(groups, agentGroups(l.agent)...)
	}
	for _, a := range agents {
		groups = append(groups, agentGroups(a)...)
	}
	groups = appendGroup(groups, "filter", ra.Agent.filters)
	groups = appendGroup(groups, "output", plain)

	if desc {
		slices.Reverse(groups)
		for _, g := range groups {
			slices.Reverse(g)
		}
	}
	return groups
}

// splitOutputs separates the outputs that emit onward through a router from
// the terminal ones. Routing outputs start and stop with the producer side
// of the tree.
func splitOutputs(outputs []plugin.Instance) (withRouter, plain []plugin.Instance) {
	for _, o := range outputs {
		if _, ok := plugin.AsRouterOwner(o); ok {
			withRouter = append(withRouter, o)
		} else {
			plain = append(plain, o)
		}
	}
	return withRouter, plain
}

// Lifecycle walks every live instance in traversal order. Ascending walks
// from the consumer end, inputs first; descending walks the exact reverse.
func (ra *RootAgent) Lifecycle(desc bool, fn func(inst plugin.Instance, kind string)) {
	for _, g := range ra.lifecycleGroups(desc) {
		for _, e := range g {
			fn(e.instance, e.kind)
		}
	}
}

// Start drives every instance through start and after_start, walking
// descending so downstream plugins are running before producers begin
// emitting. Both transitions run adjacently per instance, and failures are
// logged without stopping the walk.
func (ra *RootAgent) Start() {
	ra.Lifecycle(true, func(inst plugin.Instance, kind string) {
		if !inst.Started() {
			ra.callSafely("start", kind, inst, inst.Start)
		}
		if !inst.AfterStarted() {
			ra.callSafely("after_start", kind, inst, inst.AfterStart)
		}
	})

	ra.mu.Lock()
	ra.startedAt = time.Now()
	ra.mu.Unlock()
	ra.started.Store(true)
	ra.logger.Info("worker started", "workers", ra.sys.Workers)
}

// callSafely runs one lifecycle transition, converting errors and panics
// into warnings. A misbehaving plugin must not take down the worker or block
// the remaining instances.
func (ra *RootAgent) callSafely(phase, kind string, inst plugin.Instance, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			ra.logPhaseFailure(phase, kind, inst, errors.Recovered(r))
		}
	}()

	ra.logger.Debug("calling lifecycle phase",
		"phase", phase, "kind", kind, "type", inst.PluginType(), "plugin_id", inst.PluginID())
	if err := fn(); err != nil {
		ra.logPhaseFailure(phase, kind, inst, err)
	}
}

func (ra *RootAgent) logPhaseFailure(phase, kind string, inst plugin.Instance, err error) {
	ra.logger.Warn("unexpected error while calling lifecycle phase",
		"phase", phase, "kind", kind, "type", inst.PluginType(),
		"plugin_id", inst.PluginID(), "error", err)
	ra.phaseFailures.Add(1)
	ra.metrics.recordPhaseFailure(phase, kind)
}
