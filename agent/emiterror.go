package agent

import (
	"log/slog"
	"time"

	"github.com/c360/logstreams/event"
)

// The root agent is the error handler for every router in the tree except
// the @ERROR label's own. With an error label configured, failures are
// forwarded into it; without one they are logged, stream failures with
// suppression so a stuck output cannot flood the log.

// EmitErrorEvent routes one failed record into the error label, or dumps it
// to the log when no error label is configured. It never fails: an error
// event that cannot be delivered is logged and dropped.
func (a *Agent) EmitErrorEvent(tag string, t time.Time, record map[string]any, emitErr error) {
	if a.errorCollector != nil {
		a.logger.Warn("sending an error event to @ERROR",
			"error", emitErr, "tag", tag, "time", t)
		if err := a.errorCollector.Emit(tag, t, record); err != nil {
			a.logger.Warn("failed to send an error event to @ERROR",
				"error", err, "tag", tag)
		}
		a.root.metrics.recordErrorEvent("collected")
		return
	}

	a.logger.Warn("dumping an error event",
		"error", emitErr, "tag", tag, "time", t, "record", record)
	a.root.metrics.recordErrorEvent("dumped")
}

// HandleEmitsError absorbs a failed stream dispatch. With an error label the
// stream is redirected there and the failure is considered handled. Without
// one the failure is logged, rate limited by the configured suppression
// interval, and returned to the emitter unchanged.
func (a *Agent) HandleEmitsError(tag string, s event.Stream, emitErr error) error {
	if a.errorCollector != nil {
		a.logger.Warn("sending an error event stream to @ERROR",
			"error", emitErr, "tag", tag)
		if err := a.errorCollector.EmitStream(tag, s); err != nil {
			a.logger.Warn("failed to send an error event stream to @ERROR",
				"error", err, "tag", tag)
		}
		a.root.metrics.recordEmitsError("collected")
		return nil
	}

	a.emitMu.Lock()
	now := time.Now()
	shouldLog := a.suppressInterval == 0 || now.After(a.nextLogTime)
	// the window always advances, even while suppressed
	a.nextLogTime = now.Add(a.suppressInterval)
	a.emitMu.Unlock()

	if shouldLog {
		a.logger.Warn("emit transaction failed", "error", emitErr, "tag", tag)
		a.root.metrics.recordEmitsError("raised")
	} else {
		a.root.metrics.recordEmitsError("suppressed")
	}
	return emitErr
}

// errorLabelHandler absorbs failures inside the @ERROR label itself. Events
// failing there have nowhere left to go, so they are dumped to the log and
// the error returns to the emitter instead of re-entering the error label.
type errorLabelHandler struct {
	logger *slog.Logger
}

func (h *errorLabelHandler) EmitErrorEvent(tag string, t time.Time, record map[string]any, emitErr error) {
	h.logger.Warn("dump an error event in @ERROR",
		"error", emitErr, "tag", tag, "time", t, "record", record)
}

func (h *errorLabelHandler) HandleEmitsError(tag string, _ event.Stream, emitErr error) error {
	h.logger.Warn("emit transaction failed in @ERROR", "error", emitErr, "tag", tag)
	return emitErr
}
