// Package agent implements the supervisory core of the daemon: the plugin
// tree of one worker, its configuration, its lifecycle, and its error
// routing.
//
// # The Tree
//
// A RootAgent supervises everything a worker runs. It is itself an Agent,
// one routing domain holding filters and outputs bound by a router, and it
// additionally owns the inputs, the labels, and the limited mode agents.
// Each label is another Agent with its own router, so events relabeled into
// it are matched against the label's rules in isolation from the root
// routing table.
//
// # Configuration
//
// Configure builds the tree from a parsed configuration root in a fixed
// order. Worker directives are expanded first so every later step can skip
// sections assigned to other workers. Labels come next, before any plugin
// that might reference them through @label, with the @ERROR label configured
// after the regular ones and bound as the tree's error collector. Then the
// root's own filters and matches, the sources (unless the worker runs
// without sources), and finally the load agent that drains limited mode
// buffers left behind by a previous run.
//
// Every plugin is created from the registry, validated against its config
// schema, wired with the router its @label selects, and configured, in that
// order. A failure anywhere aborts Configure with the wrapped error.
//
// # Lifecycle
//
// Start and Shutdown walk the same traversal in opposite directions. The
// ascending order begins at the consumer end: inputs, routing outputs, the
// labels in declaration order, the limited mode agents, the root filters,
// and the terminal outputs. Start walks descending so every consumer runs
// before its producers; the shutdown sequence walks ascending so producers
// stop feeding the tree first.
//
// Shutdown is phased: stop, shutdown (preceded per instance by
// before_shutdown), after_shutdown, close, terminate. A phase completes
// across the whole tree before the next begins. The stop, after_shutdown
// and terminate phases run serially; shutdown and close may block on
// in-flight work, so within each traversal group their transitions run in
// parallel and the group joins before the walk moves on.
//
// Every transition runs through a recovery boundary: errors and panics are
// logged with the phase, plugin type and id, counted, and never propagate.
// A completion flag per transition makes the walks idempotent, an instance
// that already finished a phase is not driven through it again.
//
// # Error Routing
//
// The root agent is the error handler for every router in the tree. With a
// <label @ERROR> section configured, failed streams and error events are
// redirected into it and considered handled. Without one, error events are
// dumped to the log, and stream failures are logged with a suppression
// window so a stuck output cannot flood the log, then returned to the
// emitter. Failures inside the @ERROR label itself never re-enter it.
//
// # Limited Mode
//
// ShiftToLimitedMode degrades the worker to ingest-only operation when the
// pipeline becomes unusable: inputs that declare themselves ready redirect
// their ingest into local buffer storage and keep running while the rest of
// the tree is shut down. The buffers are drained back into the pipeline by
// the load agent of the next healthy run.
package agent
