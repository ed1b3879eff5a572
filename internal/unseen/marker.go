package unseen

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/bmsinventoryspace-netizen/BMS/internal/domain"
)

const storeTimeout = 2 * time.Second

// Marker holds the "unseen deal" badge state. The flag is true iff a deal
// event has been observed more recently than the last acknowledgment;
// acknowledgment wins over stale events by timestamp comparison, not arrival
// order.
type Marker struct {
	store Store
	key   string

	mu        sync.Mutex
	hasUnseen bool
	lastAck   time.Time
}

// NewMarker loads the persisted acknowledgment timestamp for the given
// browser key. A missing or unreadable entry falls back to the in-memory
// default (no unseen deals, zero acknowledgment).
func NewMarker(store Store, key string) *Marker {
	m := &Marker{store: store, key: key}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	at, err := store.Load(ctx, key)
	switch {
	case err == nil:
		m.lastAck = at
	case errors.Is(err, ErrNotFound):
		// first visit, nothing persisted yet
	default:
		log.Printf("unseen marker: load failed, using defaults: %v", err)
	}
	return m
}

// Observe records a deal event. Events dated at or before the last
// acknowledgment are ignored; setting the flag when it is already set is a
// no-op, so redundant poll positives are harmless.
func (m *Marker) Observe(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !at.After(m.lastAck) {
		return
	}
	m.hasUnseen = true
}

// Acknowledge clears the flag and advances the acknowledgment timestamp
// strictly forward. The timestamp never moves backward, so a late-arriving
// event for an older deal cannot re-flag.
func (m *Marker) Acknowledge() domain.UnseenState {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if !now.After(m.lastAck) {
		now = m.lastAck.Add(time.Nanosecond)
	}
	m.lastAck = now
	m.hasUnseen = false

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Save(ctx, m.key, now); err != nil {
		log.Printf("unseen marker: persist failed: %v", err)
	}

	return domain.UnseenState{HasUnseen: false, LastAcknowledgedAt: now}
}

// State returns the current badge state.
func (m *Marker) State() domain.UnseenState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.UnseenState{HasUnseen: m.hasUnseen, LastAcknowledgedAt: m.lastAck}
}

// LastAcknowledgedAt returns the acknowledgment watermark.
func (m *Marker) LastAcknowledgedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAck
}
