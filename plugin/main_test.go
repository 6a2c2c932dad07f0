package plugin

import (
	"sync"

	"github.com/c360/logstreams/event"
)

// shared test fixtures for the package

// captureCollector records every stream it receives.
type captureCollector struct {
	mu   sync.Mutex
	tags []string
	seen []event.Stream
}

func (c *captureCollector) EmitStream(tag string, s event.Stream) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = append(c.tags, tag)
	c.seen = append(c.seen, s)
	return nil
}

func (c *captureCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// newTestRouter builds a router that keeps everything it routes.
func newTestRouter() *event.BasicRouter {
	return event.NewBasicRouter(&captureCollector{}, nil)
}

// newCaptureRouter builds a router delivering every stream to the returned
// collector.
func newCaptureRouter() (*event.BasicRouter, *captureCollector) {
	sink := &captureCollector{}
	r := event.NewBasicRouter(nil, nil)
	if err := r.AddRule("**", sink); err != nil {
		panic(err)
	}
	return r, sink
}
