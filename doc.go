// Package logstreams provides the supervisory core of a log and event
// stream processing daemon: one process supervises one worker, builds a
// tree of plugins from declarative configuration, routes events between
// them by tag, and keeps the worker alive through plugin failures by
// degrading instead of dying.
//
// # Architecture
//
// A worker is a tree. The root agent owns the top level plugins and one
// router; every label owns its own agent with its own router. Events enter
// through inputs, flow through the router matching their tag, pass the
// matching filters in order, and land in the first matching output.
//
//	┌─────────────────────────────────────────────┐
//	│                 Root Agent                  │
//	│  sources → router → filters → matches       │
//	│                │                            │
//	│                ├── <label @audit>           │
//	│                │    filters → matches       │
//	│                │                            │
//	│                └── <label @ERROR>           │
//	│                     error event sink        │
//	└─────────────────────────────────────────────┘
//
// Routing is explicit: a plugin that emits onward owns a router reference,
// wired during configuration from its @label parameter. Events never jump
// between labels unless a plugin routes them there.
//
// # Worker Partitioning
//
// The same configuration file drives a pool of workers. <worker N> and
// <worker N-M> sections pin their contents to specific workers; each
// process skips the sections pinned elsewhere. Sections outside any worker
// directive run on every worker.
//
// # Lifecycle
//
// Plugins move through fixed transitions: configure, start, after_start,
// then on the way down stop, before_shutdown, shutdown, after_shutdown,
// close, terminate. Startup walks the tree descending so consumers are
// running before producers emit; shutdown walks ascending so producers
// stop feeding the tree before consumers drain. Each shutdown phase
// completes across the whole tree before the next begins, and phases that
// may block on in-flight work run concurrently within a traversal group.
//
// Every transition is guarded by a completion flag, so repeating a walk
// retries only what failed. A failing or panicking plugin is logged and
// counted, never fatal.
//
// # Error Routing
//
// Emit failures flow to the tree's shared error handler. With a
// <label @ERROR> configured, failed events are redirected into it and the
// failure is considered handled. Without one, the failure is logged with
// optional rate limiting and returned to the emitter. Failures inside the
// error label itself are dumped to the log rather than re-routed, so error
// handling cannot loop.
//
// # Limited Mode
//
// When the pipeline must go down but ingestion must not, the worker shifts
// into limited mode: inputs that support it are detached and rewired into
// a storage-backed agent, the rest of the tree is shut down, and everything
// still ingested lands in the limited mode buffer. On the next run a load
// agent drains that buffer back into the regular pipeline.
//
// # Packages
//
// Supervision:
//   - agent: the root agent, labels, lifecycle walks, limited mode
//   - plugin: plugin registry, lifecycle contract, embeddable base
//
// Event flow:
//   - event: entries, streams, tag-matching routers
//   - config: element tree, loading, worker assignment
//
// Infrastructure:
//   - errors: structured error classification
//   - health: health status model and HTTP handler
//   - metric: Prometheus registry and metrics server
//   - testutil: scriptable fake plugins and log capture for tests
//
// # Binary
//
// cmd/logstreams runs one worker:
//
//	# Run with a configuration file
//	./bin/logstreams --config /etc/logstreams/logstreams.yaml
//
//	# Run worker 1 of a pool of 4
//	./bin/logstreams --workers=4 --worker-id=1
//
//	# Validate the whole configuration and exit
//	./bin/logstreams --validate
//
// SIGUSR1 flushes buffered events, SIGUSR2 shifts into limited mode, and
// SIGTERM or SIGINT shut the worker down through the full phase sequence.
package logstreams
