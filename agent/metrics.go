package agent

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/logstreams/metric"
)

const metricNamespace = "logstreams"

// rootMetrics holds the agent subsystem's collectors. A nil *rootMetrics is
// valid and records nothing, so call sites never check whether metrics are
// enabled.
type rootMetrics struct {
	phaseFailures     *prometheus.CounterVec
	phaseDuration     *prometheus.HistogramVec
	errorEvents       *prometheus.CounterVec
	emitsErrors       *prometheus.CounterVec
	emittedEntries    prometheus.Counter
	limitedModeShifts prometheus.Counter
	limitedMode       prometheus.Gauge
	liveInstances     *prometheus.GaugeVec
}

func newRootMetrics(reg metric.Registrar) (*rootMetrics, error) {
	m := &rootMetrics{
		phaseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name: "phase_failures_total",
			Help: "Lifecycle phase failures by phase and plugin kind",
		}, []string{"phase", "kind"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name:    "phase_duration_seconds",
			Help:    "Time one shutdown phase took across the whole tree",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		errorEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name: "error_events_total",
			Help: "Error events by outcome: collected into @ERROR or dumped",
		}, []string{"outcome"}),
		emitsErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name: "emit_errors_total",
			Help: "Emit stream failures by outcome: collected, raised or suppressed",
		}, []string{"outcome"}),
		emittedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name: "emitted_entries_total",
			Help: "Entries successfully dispatched through the root router",
		}),
		limitedModeShifts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name: "limited_mode_shifts_total",
			Help: "Number of shifts into limited mode",
		}),
		limitedMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name: "limited_mode",
			Help: "Whether the worker currently runs in limited mode",
		}),
		liveInstances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricNamespace, Subsystem: "agent",
			Name: "live_instances",
			Help: "Configured plugin instances by kind",
		}, []string{"kind"}),
	}

	if err := reg.RegisterCounterVec("agent", "phase_failures_total", m.phaseFailures); err != nil {
		return nil, err
	}
	if err := reg.RegisterHistogramVec("agent", "phase_duration_seconds", m.phaseDuration); err != nil {
		return nil, err
	}
	if err := reg.RegisterCounterVec("agent", "error_events_total", m.errorEvents); err != nil {
		return nil, err
	}
	if err := reg.RegisterCounterVec("agent", "emit_errors_total", m.emitsErrors); err != nil {
		return nil, err
	}
	if err := reg.RegisterCounter("agent", "emitted_entries_total", m.emittedEntries); err != nil {
		return nil, err
	}
	if err := reg.RegisterCounter("agent", "limited_mode_shifts_total", m.limitedModeShifts); err != nil {
		return nil, err
	}
	if err := reg.RegisterGauge("agent", "limited_mode", m.limitedMode); err != nil {
		return nil, err
	}
	if err := reg.RegisterGaugeVec("agent", "live_instances", m.liveInstances); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *rootMetrics) recordPhaseFailure(phase, kind string) {
	if m == nil {
		return
	}
	m.phaseFailures.WithLabelValues(phase, kind).Inc()
}

func (m *rootMetrics) recordPhaseDuration(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *rootMetrics) recordErrorEvent(outcome string) {
	if m == nil {
		return
	}
	m.errorEvents.WithLabelValues(outcome).Inc()
}

func (m *rootMetrics) recordEmitsError(outcome string) {
	if m == nil {
		return
	}
	m.emitsErrors.WithLabelValues(outcome).Inc()
}

func (m *rootMetrics) recordEmittedEntries(n int) {
	if m == nil {
		return
	}
	m.emittedEntries.Add(float64(n))
}

func (m *rootMetrics) recordLimitedModeShift() {
	if m == nil {
		return
	}
	m.limitedModeShifts.Inc()
}

func (m *rootMetrics) setLimitedMode(on bool) {
	if m == nil {
		return
	}
	if on {
		m.limitedMode.Set(1)
	} else {
		m.limitedMode.Set(0)
	}
}

func (m *rootMetrics) setLiveInstances(counts map[string]int) {
	if m == nil {
		return
	}
	for _, kind := range []string{"input", "filter", "output"} {
		m.liveInstances.WithLabelValues(kind).Set(float64(counts[kind]))
	}
}
