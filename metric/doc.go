// Package metric provides Prometheus-based metrics collection and an HTTP
// server for monitoring the logstreams daemon.
//
// The package offers a registry that manages subsystem-scoped metric
// registration on top of a dedicated Prometheus registry, plus an HTTP
// server exposing the metrics in Prometheus format together with a health
// endpoint.
//
// # Basic Usage
//
// Setting up metrics collection and the HTTP server:
//
//	registry := metric.NewRegistry()
//	server := metric.NewServer(24220, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
// The server exposes Prometheus-formatted metrics at
// http://localhost:24220/metrics and a health check at
// http://localhost:24220/health.
//
// # Subsystem Metrics
//
// Subsystems register their own collectors through the registry. The
// subsystem name scopes the registration so two subsystems can never
// silently collide:
//
//	shifts := prometheus.NewCounter(prometheus.CounterOpts{
//	    Namespace: "logstreams",
//	    Subsystem: "agent",
//	    Name:      "limited_mode_shifts_total",
//	    Help:      "Number of shifts into limited mode",
//	})
//	err := registry.RegisterCounter("agent", "limited_mode_shifts_total", shifts)
//
// Vector variants carry labels:
//
//	failures := prometheus.NewCounterVec(
//	    prometheus.CounterOpts{
//	        Namespace: "logstreams",
//	        Subsystem: "agent",
//	        Name:      "phase_failures_total",
//	        Help:      "Lifecycle phase failures by phase and plugin kind",
//	    },
//	    []string{"phase", "kind"},
//	)
//	err = registry.RegisterCounterVec("agent", "phase_failures_total", failures)
//
// Registration returns an error for a duplicate subsystem/name pair and for
// conflicts detected by the underlying Prometheus registry. Recording on a
// registered collector is lock-free and safe from any goroutine.
//
// # Registrar Interface
//
// Consumers accept the Registrar interface rather than the concrete
// Registry, which keeps them testable with a fake registrar:
//
//	func newAgentMetrics(reg metric.Registrar) (*agentMetrics, error) { ... }
//
// # HTTP Server
//
// The server provides three endpoints:
//
//   - GET /         - HTML page linking to the other endpoints
//   - GET /metrics  - Prometheus-formatted metrics (path configurable)
//   - GET /health   - health check, pluggable via SetHealthHandler
//
// Start blocks until the server stops, so callers run it in a goroutine and
// use Stop to shut it down. Handler returns the same mux for callers that
// want to mount the endpoints on their own server.
package metric
