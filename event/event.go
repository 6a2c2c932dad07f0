package event

import (
	"maps"
	"time"
)

// Entry is a single event: a timestamp and a structured record.
type Entry struct {
	Time   time.Time
	Record map[string]any
}

// Stream is an ordered batch of entries routed under one tag.
type Stream []Entry

// OneEntryStream wraps a single event in a stream.
func OneEntryStream(t time.Time, record map[string]any) Stream {
	return Stream{{Time: t, Record: record}}
}

// Clone returns a copy of the stream with copied records, so filters can
// mutate entries without the caller observing it.
func (s Stream) Clone() Stream {
	out := make(Stream, len(s))
	for i, e := range s {
		out[i] = Entry{Time: e.Time, Record: maps.Clone(e.Record)}
	}
	return out
}
