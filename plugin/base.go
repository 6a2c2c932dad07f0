package plugin

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/c360/logstreams/config"
	"github.com/c360/logstreams/event"
)

// lifecycleState tracks which transitions have completed. The flags are
// independent booleans, not an ordered enum: the sequencer decides ordering,
// the state only answers "did this phase finish".
type lifecycleState struct {
	configured     bool
	started        bool
	afterStarted   bool
	stopped        bool
	beforeShutdown bool
	shutdown       bool
	afterShutdown  bool
	closed         bool
	terminated     bool
}

// Base is the embeddable core of a plugin: completion flags, identity, the
// configuration element, and a scoped logger. Embedders override the
// transitions they care about and call the Base method on their success
// path, so the completion flag is only set when the transition worked.
type Base struct {
	typeName string

	mu     sync.Mutex
	state  lifecycleState
	conf   *config.Element
	id     string
	logger *slog.Logger
}

// NewBase creates the plugin core. A nil logger uses the process default.
func NewBase(typeName string, logger *slog.Logger) Base {
	if logger == nil {
		logger = slog.Default()
	}
	return Base{typeName: typeName, logger: logger}
}

// Configure stores the element, fixes the instance id (the @id attribute
// when present, a generated id otherwise), and scopes the logger.
func (b *Base) Configure(e *config.Element) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conf = e
	if b.id == "" {
		if id := e.Attr("@id"); id != "" {
			b.id = id
		} else {
			b.id = uuid.NewString()
		}
	}
	b.logger = b.logger.With("type", b.typeName, "plugin_id", b.id)
	b.state.configured = true
	return nil
}

func (b *Base) Configured() bool { return b.flag(func(s lifecycleState) bool { return s.configured }) }

func (b *Base) Start() error {
	b.setFlag(func(s *lifecycleState) { s.started = true })
	return nil
}

func (b *Base) Started() bool { return b.flag(func(s lifecycleState) bool { return s.started }) }

func (b *Base) AfterStart() error {
	b.setFlag(func(s *lifecycleState) { s.afterStarted = true })
	return nil
}

func (b *Base) AfterStarted() bool {
	return b.flag(func(s lifecycleState) bool { return s.afterStarted })
}

func (b *Base) Stop() error {
	b.setFlag(func(s *lifecycleState) { s.stopped = true })
	return nil
}

func (b *Base) Stopped() bool { return b.flag(func(s lifecycleState) bool { return s.stopped }) }

func (b *Base) BeforeShutdown() error {
	b.setFlag(func(s *lifecycleState) { s.beforeShutdown = true })
	return nil
}

func (b *Base) BeforeShutdownDone() bool {
	return b.flag(func(s lifecycleState) bool { return s.beforeShutdown })
}

func (b *Base) Shutdown() error {
	b.setFlag(func(s *lifecycleState) { s.shutdown = true })
	return nil
}

func (b *Base) ShutdownDone() bool { return b.flag(func(s lifecycleState) bool { return s.shutdown }) }

func (b *Base) AfterShutdown() error {
	b.setFlag(func(s *lifecycleState) { s.afterShutdown = true })
	return nil
}

func (b *Base) AfterShutdownDone() bool {
	return b.flag(func(s lifecycleState) bool { return s.afterShutdown })
}

func (b *Base) Close() error {
	b.setFlag(func(s *lifecycleState) { s.closed = true })
	return nil
}

func (b *Base) Closed() bool { return b.flag(func(s lifecycleState) bool { return s.closed }) }

func (b *Base) Terminate() error {
	b.setFlag(func(s *lifecycleState) { s.terminated = true })
	return nil
}

func (b *Base) Terminated() bool { return b.flag(func(s lifecycleState) bool { return s.terminated }) }

// PluginType returns the registered type name.
func (b *Base) PluginType() string { return b.typeName }

// PluginID returns the instance id, generating one for instances queried
// before Configure.
func (b *Base) PluginID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.id == "" {
		b.id = uuid.NewString()
	}
	return b.id
}

// Logger returns the plugin's scoped logger.
func (b *Base) Logger() *slog.Logger {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logger
}

// Config returns the element the plugin was configured with, nil before
// Configure.
func (b *Base) Config() *config.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conf
}

func (b *Base) setFlag(set func(*lifecycleState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set(&b.state)
}

func (b *Base) flag(get func(lifecycleState) bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return get(b.state)
}

// Emitter is the embeddable router holder for plugins that emit events
// onward. Embedding it makes a plugin a RouterOwner.
type Emitter struct {
	mu     sync.RWMutex
	router event.Router
}

// SetRouter wires the router the plugin emits into.
func (e *Emitter) SetRouter(r event.Router) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.router = r
}

// Router returns the wired router, nil before SetRouter.
func (e *Emitter) Router() event.Router {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.router
}

// HasRouter declares the routing capability.
func (e *Emitter) HasRouter() bool { return true }
