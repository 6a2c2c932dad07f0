package testutil

import (
	"sync"
	"time"
)

// Call records a single method invocation on a fake plugin.
type Call struct {
	Plugin string
	Method string
	At     time.Time
}

// CallLog collects lifecycle calls across fake plugins in invocation order.
// It is safe for concurrent use so parallel lifecycle phases can be observed.
type CallLog struct {
	mu    sync.Mutex
	calls []Call
}

// NewCallLog creates an empty call log.
func NewCallLog() *CallLog {
	return &CallLog{}
}

// Record appends a call to the log.
func (l *CallLog) Record(plugin, method string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, Call{Plugin: plugin, Method: method, At: time.Now()})
}

// Calls returns a copy of all recorded calls in order.
func (l *CallLog) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// Methods returns the methods recorded for one plugin, in order.
func (l *CallLog) Methods(pluginID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, c := range l.calls {
		if c.Plugin == pluginID {
			out = append(out, c.Method)
		}
	}
	return out
}

// Count returns how many times a method was recorded for a plugin.
func (l *CallLog) Count(pluginID, method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.Plugin == pluginID && c.Method == method {
			n++
		}
	}
	return n
}

// IndexOf returns the position of the first matching call, or -1 when the
// method was never recorded for the plugin.
func (l *CallLog) IndexOf(pluginID, method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, c := range l.calls {
		if c.Plugin == pluginID && c.Method == method {
			return i
		}
	}
	return -1
}

// Reset clears the log.
func (l *CallLog) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}
