// Package errors provides standardized error handling patterns for logstreams.
//
// # Overview
//
// The errors package implements a three-class error classification system for
// the event-processing daemon: Transient (temporary, may clear on its own),
// Invalid (bad configuration or input, will never succeed), and Fatal
// (unrecoverable, stop the worker).
//
// Classification lets the supervisory core make decisions without string
// matching: configuration errors abort startup, emit failures are routed or
// suppressed, and lifecycle phase failures are logged and contained.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The generic Wrap() only adds context and preserves the original error's
// classification through the chain.
//
// # Standard Error Variables
//
// Pre-defined error variables cover the daemon's common failure conditions,
// organized by layer:
//
//   - Configuration tree: ErrMissingType, ErrMissingLabelName, ErrReservedLabel,
//     ErrDuplicateLabel, ErrLabelNotFound
//   - Worker assignment: ErrInvalidWorkerID, ErrDuplicateWorkerID,
//     ErrInvalidWorkerChild
//   - Plugin registry: ErrUnknownPlugin, ErrDuplicatePlugin, ErrNoRouter
//   - Event routing: ErrPatternNotSupported
//
// Use these variables instead of creating custom error messages, so callers
// can branch with errors.Is.
//
// # Panic Containment
//
// Recovered converts a recovered panic value into an error. The agent's
// lifecycle runners call it inside deferred recovers so a panicking plugin is
// logged like any other failing plugin and never takes the worker down. The
// resulting error carries the "panic" marker and classifies as Fatal.
//
// # Integration with errors.As/Is
//
// All error types support standard library error inspection:
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    log.Printf("Component: %s, Class: %s", ce.Component, ce.Class)
//	}
//
//	if errors.Is(err, errors.ErrDuplicateLabel) {
//	    // Handle duplicate label specifically
//	}
//
// # Thread Safety
//
// All classification and wrapping operations are thread-safe. Error variables
// are immutable and safe for concurrent access.
package errors
