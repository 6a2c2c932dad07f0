package testutil

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/event"
	"github.com/c360/logstreams/plugin"
)

// FakePlugin is a scriptable plugin for lifecycle tests. Every transition is
// recorded in the shared CallLog, and the FailOn, PanicOn and SleepOn maps
// inject behavior per method name ("start", "shutdown", "force_flush", ...).
// An injected failure or panic fires before the completion flag is set, so
// the plugin reports the transition as not done afterwards.
type FakePlugin struct {
	plugin.Base

	Log     *CallLog
	FailOn  map[string]error
	PanicOn map[string]bool
	SleepOn map[string]time.Duration
}

// NewFakePlugin creates a fake with the given type name recording into log.
func NewFakePlugin(typeName string, log *CallLog) *FakePlugin {
	return &FakePlugin{
		Base:    plugin.NewBase(typeName, nil),
		Log:     log,
		FailOn:  make(map[string]error),
		PanicOn: make(map[string]bool),
		SleepOn: make(map[string]time.Duration),
	}
}

// Configure records under the element's @id so ordering assertions can use
// configured ids. A non-empty fail_configure attribute makes it fail.
func (f *FakePlugin) Configure(conf *config.Element) error {
	if f.Log != nil {
		f.Log.Record(conf.Attr("@id"), "configure")
	}
	if msg := conf.Attr("fail_configure"); msg != "" {
		return stderrors.New(msg)
	}
	return f.Base.Configure(conf)
}

func (f *FakePlugin) invoke(method string, base func() error) error {
	if f.Log != nil {
		f.Log.Record(f.PluginID(), method)
	}
	if f.PanicOn[method] {
		panic(fmt.Sprintf("injected %s panic in %s", method, f.PluginID()))
	}
	if d := f.SleepOn[method]; d > 0 {
		time.Sleep(d)
	}
	if err := f.FailOn[method]; err != nil {
		return err
	}
	return base()
}

func (f *FakePlugin) Start() error {
	return f.invoke("start", f.Base.Start)
}

func (f *FakePlugin) AfterStart() error {
	return f.invoke("after_start", f.Base.AfterStart)
}

func (f *FakePlugin) Stop() error {
	return f.invoke("stop", f.Base.Stop)
}

func (f *FakePlugin) BeforeShutdown() error {
	return f.invoke("before_shutdown", f.Base.BeforeShutdown)
}

func (f *FakePlugin) Shutdown() error {
	return f.invoke("shutdown", f.Base.Shutdown)
}

func (f *FakePlugin) AfterShutdown() error {
	return f.invoke("after_shutdown", f.Base.AfterShutdown)
}

func (f *FakePlugin) Close() error {
	return f.invoke("close", f.Base.Close)
}

func (f *FakePlugin) Terminate() error {
	return f.invoke("terminate", f.Base.Terminate)
}

// FakeInput simulates an input plugin. It owns a router, can report and
// perform the shift into limited mode, and counts entries through its metric
// callback.
type FakeInput struct {
	*FakePlugin
	plugin.Emitter

	LimitedReady bool
	EntriesSeen  atomic.Int64
}

// NewFakeInput creates a fake input recording into log.
func NewFakeInput(log *CallLog) *FakeInput {
	return &FakeInput{FakePlugin: NewFakePlugin("fake_input", log)}
}

// LimitedModeReady reports whether the input accepts the shift.
func (f *FakeInput) LimitedModeReady() bool { return f.LimitedReady }

// ShiftToLimitedMode records the shift, honoring the injection maps.
func (f *FakeInput) ShiftToLimitedMode() error {
	return f.invoke("shift_to_limited_mode", func() error { return nil })
}

// MetricCallback counts entries in dispatched streams.
func (f *FakeInput) MetricCallback(s event.Stream) {
	f.EntriesSeen.Add(int64(len(s)))
}

// FakeFilter tags every record it sees with its own plugin id under the
// filtered_by key.
type FakeFilter struct {
	*FakePlugin

	FailFilter error
	Filtered   atomic.Int64
}

// NewFakeFilter creates a fake filter recording into log.
func NewFakeFilter(log *CallLog) *FakeFilter {
	return &FakeFilter{FakePlugin: NewFakePlugin("fake_filter", log)}
}

// FilterStream clones the stream and marks each record.
func (f *FakeFilter) FilterStream(_ string, s event.Stream) (event.Stream, error) {
	if f.FailFilter != nil {
		return nil, f.FailFilter
	}
	out := s.Clone()
	for i := range out {
		out[i].Record["filtered_by"] = f.PluginID()
	}
	f.Filtered.Add(int64(len(out)))
	return out, nil
}

// Emitted is one stream received by a FakeOutput.
type Emitted struct {
	Tag    string
	Stream event.Stream
}

// FakeOutput collects emitted streams. It implements Flusher so flush
// traversals can be observed.
type FakeOutput struct {
	*FakePlugin

	mu       sync.Mutex
	emitted  []Emitted
	FailEmit error
}

// NewFakeOutput creates a fake output recording into log.
func NewFakeOutput(log *CallLog) *FakeOutput {
	return &FakeOutput{FakePlugin: NewFakePlugin("fake_output", log)}
}

// EmitStream records the stream, or fails when FailEmit is set.
func (f *FakeOutput) EmitStream(tag string, s event.Stream) error {
	if f.Log != nil {
		f.Log.Record(f.PluginID(), "emit")
	}
	if f.FailEmit != nil {
		return f.FailEmit
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emitted = append(f.emitted, Emitted{Tag: tag, Stream: s})
	return nil
}

// Emitted returns a copy of everything the output received.
func (f *FakeOutput) Emitted() []Emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Emitted, len(f.emitted))
	copy(out, f.emitted)
	return out
}

// ForceFlush records the flush, honoring the injection maps.
func (f *FakeOutput) ForceFlush() error {
	return f.invoke("force_flush", func() error { return nil })
}

// FakeRouterOutput forwards everything it receives into its wired router,
// like a relabel output. It owns a router and is deliberately not a Flusher.
type FakeRouterOutput struct {
	*FakePlugin
	plugin.Emitter
}

// NewFakeRouterOutput creates a fake routing output recording into log.
func NewFakeRouterOutput(log *CallLog) *FakeRouterOutput {
	return &FakeRouterOutput{FakePlugin: NewFakePlugin("fake_router_output", log)}
}

// EmitStream forwards the stream into the wired router.
func (f *FakeRouterOutput) EmitStream(tag string, s event.Stream) error {
	if f.Log != nil {
		f.Log.Record(f.PluginID(), "emit")
	}
	r := f.Router()
	if r == nil {
		return stderrors.New("no router wired")
	}
	return r.EmitStream(tag, s)
}

// Fixture registers the fake plugin types on a registry and tracks every
// instance the factories create, so tests can reach plugins configured deep
// inside an agent tree by their @id.
type Fixture struct {
	Log *CallLog

	mu      sync.Mutex
	created []plugin.Instance
}

// NewFixture creates a fixture with a fresh call log.
func NewFixture() *Fixture {
	return &Fixture{Log: NewCallLog()}
}

// Register adds the fake plugin types to the registry.
func (x *Fixture) Register(r *plugin.Registry) error {
	regs := []plugin.Registration{
		{Kind: plugin.KindInput, Name: "fake_input", Description: "scriptable test input",
			Factory: func() plugin.Instance { return x.track(NewFakeInput(x.Log)) }},
		{Kind: plugin.KindFilter, Name: "fake_filter", Description: "scriptable test filter",
			Factory: func() plugin.Instance { return x.track(NewFakeFilter(x.Log)) }},
		{Kind: plugin.KindOutput, Name: "fake_output", Description: "scriptable test output",
			Factory: func() plugin.Instance { return x.track(NewFakeOutput(x.Log)) }},
		{Kind: plugin.KindOutput, Name: "fake_router_output", Description: "scriptable routing test output",
			Factory: func() plugin.Instance { return x.track(NewFakeRouterOutput(x.Log)) }},
	}
	for _, reg := range regs {
		if err := r.Register(reg); err != nil {
			return err
		}
	}
	return nil
}

func (x *Fixture) track(inst plugin.Instance) plugin.Instance {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.created = append(x.created, inst)
	return inst
}

// Created returns every instance the fixture factories produced, in creation
// order.
func (x *Fixture) Created() []plugin.Instance {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]plugin.Instance, len(x.created))
	copy(out, x.created)
	return out
}

// Find returns the created instance with the given plugin id, nil when no
// such instance exists.
func (x *Fixture) Find(id string) plugin.Instance {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, inst := range x.created {
		if inst.PluginID() == id {
			return inst
		}
	}
	return nil
}

// Input returns the created FakeInput with the given plugin id.
func (x *Fixture) Input(id string) *FakeInput {
	in, _ := x.Find(id).(*FakeInput)
	return in
}

// Filter returns the created FakeFilter with the given plugin id.
func (x *Fixture) Filter(id string) *FakeFilter {
	f, _ := x.Find(id).(*FakeFilter)
	return f
}

// Output returns the created FakeOutput with the given plugin id.
func (x *Fixture) Output(id string) *FakeOutput {
	o, _ := x.Find(id).(*FakeOutput)
	return o
}

// RouterOutput returns the created FakeRouterOutput with the given plugin id.
func (x *Fixture) RouterOutput(id string) *FakeRouterOutput {
	o, _ := x.Find(id).(*FakeRouterOutput)
	return o
}
