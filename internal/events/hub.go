package events

import (
	"context"

	"endorsement/internal/batch"
)

// Hub fans batch snapshots out to subscribers keyed by batch ID. All
// bookkeeping happens on the goroutine executing Run; Subscribe, Unsubscribe
// and Publish only hand requests to that loop.
type Hub struct {
	topics map[string]map[chan batch.Snapshot]struct{}

	subscribe   chan subscription
	unsubscribe chan subscription
	publish     chan batch.Snapshot
	done        chan struct{}
}

type subscription struct {
	ch    chan batch.Snapshot
	topic string
}

// NewHub creates a hub. Publish is buffered so a burst of task settlements
// does not stall the orchestrator.
func NewHub() *Hub {
	return &Hub{
		topics:      make(map[string]map[chan batch.Snapshot]struct{}),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan subscription),
		publish:     make(chan batch.Snapshot, 100),
		done:        make(chan struct{}),
	}
}

// Run processes hub requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-h.subscribe:
			subs, ok := h.topics[s.topic]
			if !ok {
				subs = make(map[chan batch.Snapshot]struct{})
				h.topics[s.topic] = subs
			}
			subs[s.ch] = struct{}{}
		case s := <-h.unsubscribe:
			if subs, ok := h.topics[s.topic]; ok {
				delete(subs, s.ch)
				if len(subs) == 0 {
					delete(h.topics, s.topic)
				}
			}
		case snap := <-h.publish:
			for ch := range h.topics[snap.ID] {
				select {
				case ch <- snap:
				default:
					// subscriber is not reading; it catches up from history
				}
			}
		}
	}
}

// Publish queues snap for every subscriber of snap.ID. It is shaped as a
// batch.UpdateFunc and becomes a no-op once the hub stopped.
func (h *Hub) Publish(snap batch.Snapshot) {
	select {
	case h.publish <- snap:
	case <-h.done:
	}
}

// Subscribe registers ch for snapshots of batch id. Snapshots published after
// Subscribe returns are delivered to ch unless its buffer is full. The caller
// owns ch and must Unsubscribe before closing it.
func (h *Hub) Subscribe(ch chan batch.Snapshot, id string) {
	select {
	case h.subscribe <- subscription{ch: ch, topic: id}:
	case <-h.done:
	}
}

func (h *Hub) Unsubscribe(ch chan batch.Snapshot, id string) {
	select {
	case h.unsubscribe <- subscription{ch: ch, topic: id}:
	case <-h.done:
	}
}
