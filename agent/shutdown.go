package agent

import (
	"sync"
	"time"

	"github.com/c360/logstreams/plugin"
)

// shutdownStep is one phase of the shutdown sequence. Unsafe phases may
// block on in-flight work, so within a group their transitions run in
// parallel and the group joins before the walk moves on; safe phases run
// serially.
type shutdownStep struct {
	name   string
	method func(plugin.Instance) error
	done   func(plugin.Instance) bool
	unsafe bool
}

// shutdownSteps is the fixed sequence. The shutdown step has no method: it
// expands per instance into before_shutdown and shutdown, checked and called
// independently so a failure in the first never skips the second.
var shutdownSteps = []shutdownStep{
	{name: "stop", method: plugin.Instance.Stop, done: plugin.Instance.Stopped},
	{name: "shutdown", unsafe: true},
	{name: "after_shutdown", method: plugin.Instance.AfterShutdown, done: plugin.Instance.AfterShutdownDone},
	{name: "close", method: plugin.Instance.Close, done: plugin.Instance.Closed, unsafe: true},
	{name: "terminate", method: plugin.Instance.Terminate, done: plugin.Instance.Terminated},
}

// Shutdown drives every instance through the shutdown sequence, walking
// ascending so producers stop feeding the tree before consumers drain. Each
// phase completes across the whole tree before the next phase begins.
func (ra *RootAgent) Shutdown() {
	ra.logger.Info("shutting down worker")
	ra.runShutdownSequence(ra.lifecycleGroups(false), nil)
	ra.started.Store(false)
}

// runShutdownSequence applies every shutdown step to the given groups.
// Instances matched by skip are left untouched.
func (ra *RootAgent) runShutdownSequence(groups []lifecycleGroup, skip func(plugin.Instance) bool) {
	for _, step := range shutdownSteps {
		begin := time.Now()
		ra.runPhase(step, groups, skip)
		ra.metrics.recordPhaseDuration(step.name, time.Since(begin))
	}
}

func (ra *RootAgent) runPhase(step shutdownStep, groups []lifecycleGroup, skip func(plugin.Instance) bool) {
	for _, g := range groups {
		if !step.unsafe {
			for _, e := range g {
				if skip != nil && skip(e.instance) {
					continue
				}
				ra.applyStep(step, e)
			}
			continue
		}

		var wg sync.WaitGroup
		for _, e := range g {
			if skip != nil && skip(e.instance) {
				continue
			}
			wg.Add(1)
			go func(e lifecycleEntry) {
				defer wg.Done()
				ra.applyStep(step, e)
			}(e)
		}
		wg.Wait()
	}
}

func (ra *RootAgent) applyStep(step shutdownStep, e lifecycleEntry) {
	if step.method == nil {
		if !e.instance.BeforeShutdownDone() {
			ra.callSafely("before_shutdown", e.kind, e.instance, e.instance.BeforeShutdown)
		}
		if !e.instance.ShutdownDone() {
			ra.callSafely("shutdown", e.kind, e.instance, e.instance.Shutdown)
		}
		return
	}

	if step.done(e.instance) {
		return
	}
	ra.callSafely(step.name, e.kind, e.instance, func() error {
		return step.method(e.instance)
	})
}

// Flush asks every flushable instance to push buffered events out, walking
// descending and waiting for all flushes to finish.
func (ra *RootAgent) Flush() {
	ra.logger.Info("flushing buffers")

	var wg sync.WaitGroup
	ra.Lifecycle(true, func(inst plugin.Instance, kind string) {
		f, ok := plugin.AsFlusher(inst)
		if !ok {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ra.callSafely("force_flush", kind, inst, f.ForceFlush)
		}()
	})
	wg.Wait()
}
