package batch

import "sync"

// History keeps the latest snapshot of recent batches so they can be looked
// up by ID. The oldest batch is evicted once limit is exceeded.
type History struct {
	mu    sync.RWMutex
	limit int
	order []string
	items map[string]Snapshot
}

// NewHistory creates a History holding at most limit batches.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 32
	}
	return &History{limit: limit, items: make(map[string]Snapshot, limit)}
}

// Record stores s as the latest known state of its batch. It can be used
// directly as an UpdateFunc.
func (h *History) Record(s Snapshot) {
	if s.ID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.items[s.ID]; !ok {
		h.order = append(h.order, s.ID)
		for len(h.order) > h.limit {
			delete(h.items, h.order[0])
			h.order = h.order[1:]
		}
	}
	h.items[s.ID] = s
}

// Get returns the latest snapshot of batch id.
func (h *History) Get(id string) (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.items[id]
	return s, ok
}

// Len returns the number of batches retained.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}
