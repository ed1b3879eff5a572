package unseen

import (
	"sync"
	"time"
)

// Hub fans deal events out to the per-browser markers. The notification
// channel is process-wide, but acknowledgment is per browser key, so the hub
// broadcasts observations and exposes the oldest acknowledgment as the
// polling watermark: anyone behind the newest deal gets re-flagged, which the
// markers absorb idempotently.
type Hub struct {
	store Store

	mu      sync.Mutex
	markers map[string]*Marker
}

func NewHub(store Store) *Hub {
	return &Hub{store: store, markers: make(map[string]*Marker)}
}

// Marker returns the marker for a browser key, loading persisted state on
// first use.
func (h *Hub) Marker(key string) *Marker {
	h.mu.Lock()
	defer h.mu.Unlock()

	if m, ok := h.markers[key]; ok {
		return m
	}
	m := NewMarker(h.store, key)
	h.markers[key] = m
	return m
}

// Observe broadcasts a deal event to every live marker.
func (h *Hub) Observe(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.markers {
		m.Observe(at)
	}
}

// LastAcknowledgedAt returns the oldest acknowledgment across live markers,
// or zero when none exist yet.
func (h *Hub) LastAcknowledgedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	var oldest time.Time
	first := true
	for _, m := range h.markers {
		at := m.LastAcknowledgedAt()
		if first || at.Before(oldest) {
			oldest = at
			first = false
		}
	}
	return oldest
}
