// Package event defines the daemon's event model and tag-based routing.
//
// An Entry pairs a timestamp with a structured record; a Stream is an
// ordered batch of entries travelling under one tag. Routers dispatch
// streams to collectors: BasicRouter matches tags against registered rules
// in order, applying any matching filters before the first matching
// collector. Patterns are limited to the catch-all "**" and exact tags.
//
// Emit failures never surface raw: every router is wired to an ErrorHandler
// that either forwards the failed stream to an error collector or logs it
// with suppression. Streams that match no rule land in the NoMatchCollector,
// which warns with backoff instead of failing.
package event
