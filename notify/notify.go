// Package notify delivers change events on a single outbound channel.
//
// There is no filtering by topic:
// every listener sees every event,
// and deciding relevance is the listener's job.
// Delivery is at most once.
// When the channel is full the event is dropped.
package notify

import (
	"context"
	"sync/atomic"

	"github.com/hummearth/hive"
)

var _ hive.Broadcaster = &Hub{}

// Hub is a hive.Broadcaster backed by a buffered channel.
type Hub struct {
	ch      chan hive.Event
	dropped uint64
}

// New produces a Hub whose channel buffers up to size events.
func New(size int) *Hub {
	return &Hub{ch: make(chan hive.Event, size)}
}

// Broadcast implements hive.Broadcaster.
// It never blocks.
func (h *Hub) Broadcast(_ context.Context, ev hive.Event) {
	select {
	case h.ch <- ev:
	default:
		atomic.AddUint64(&h.dropped, 1)
	}
}

// Events is the outbound channel.
func (h *Hub) Events() <-chan hive.Event {
	return h.ch
}

// Dropped is the number of events discarded because the channel was full.
func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}

// Discard is a hive.Broadcaster that drops everything.
var Discard hive.Broadcaster = discard{}

type discard struct{}

func (discard) Broadcast(context.Context, hive.Event) {}
