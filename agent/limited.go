package agent

import (
	"slices"

	"github.com/c360/logstreams/errors"
	"github.com/c360/logstreams/plugin"
)

// ShiftToLimitedMode degrades the worker to ingest-only operation. Inputs
// that declare themselves ready keep running and write into local storage,
// everything else is shut down; the buffers are drained by the load agent of
// the next full run. The shift is one-way and idempotent.
func (ra *RootAgent) ShiftToLimitedMode() error {
	if ra.inLimited.Load() {
		return nil
	}

	ra.logger.Info("shifting to limited mode")

	// The load agent shares the buffer path with the limited mode output
	// agent, so it must finish draining before the output agent opens the
	// storage for writing.
	ra.mu.Lock()
	load := ra.loadAgent
	ra.loadAgent = nil
	if load != nil {
		ra.agents = slices.DeleteFunc(slices.Clone(ra.agents), func(a *Agent) bool {
			return a == load
		})
	}
	ra.mu.Unlock()
	if load != nil {
		ra.runShutdownSequence(agentGroups(load), nil)
	}

	out := newAgent(ra, ra.logger.With("agent", "limited_mode_output"), &ra.Agent)
	if err := out.Configure(limitedModeAgentConfig(ra.sys, true)); err != nil {
		return errors.Wrap(err, "RootAgent", "ShiftToLimitedMode",
			"configure limited mode output agent")
	}
	ra.mu.Lock()
	ra.outputAgent = out
	ra.limitedRouter = out.router
	ra.mu.Unlock()

	// Shift the ready inputs first so they detach from the pipeline before
	// it goes down: their router is swapped to the limited mode output agent
	// so everything they keep ingesting lands in storage. A failed shift is
	// logged but the input is still spared from the generic shutdown, its
	// ingest already moved.
	shifted := map[plugin.Instance]bool{}
	for _, in := range ra.Inputs() {
		lm, ok := plugin.AsLimitedModeCapable(in)
		if !ok || !lm.LimitedModeReady() {
			continue
		}
		if ro, ok := plugin.AsRouterOwner(in); ok {
			ro.SetRouter(out.router)
		}
		ra.callSafely("shift_to_limited_mode", "input", in, lm.ShiftToLimitedMode)
		shifted[in] = true
	}

	ra.runShutdownSequence(ra.lifecycleGroups(false), func(inst plugin.Instance) bool {
		return shifted[inst]
	})

	ra.mu.Lock()
	ra.agents = append(ra.agents, out)
	ra.mu.Unlock()

	ra.inLimited.Store(true)
	ra.metrics.setLimitedMode(true)
	ra.metrics.recordLimitedModeShift()
	ra.updateLiveInstances()
	ra.logger.Info("limited mode active", "buffer_path", ra.sys.LimitedModeBufferPath())
	return nil
}
