package event

import (
	"log/slog"
	"sync"
)

// NoMatchCollector is the fallback collector for tags no rule matches. It
// drops the stream and warns with backoff so a misrouted tag is visible in
// the logs without flooding them.
type NoMatchCollector struct {
	logger *slog.Logger
	mu     sync.Mutex
	count  uint64
}

// NewNoMatchCollector creates the fallback collector. A nil logger uses the
// process default.
func NewNoMatchCollector(logger *slog.Logger) *NoMatchCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoMatchCollector{logger: logger}
}

// EmitStream drops the stream, warning on a backoff schedule.
func (c *NoMatchCollector) EmitStream(tag string, s Stream) error {
	c.mu.Lock()
	c.count++
	warn := shouldWarnNoMatch(c.count)
	c.mu.Unlock()

	if warn {
		c.logger.Warn("no patterns matched", "tag", tag)
	}
	return nil
}

// Count returns how many streams were dropped so far.
func (c *NoMatchCollector) Count() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// warn on powers of two up to 512 drops, then every 512th
func shouldWarnNoMatch(count uint64) bool {
	if count < 512 {
		return count&(count-1) == 0
	}
	return count%512 == 0
}
