package session

import (
	"sync"
	"time"

	"github.com/bmsinventoryspace-netizen/BMS/internal/cart"
)

const (
	// DefaultTTL is how long an idle session keeps its cart.
	DefaultTTL = 30 * time.Minute

	// CleanupInterval is how often the background sweep runs.
	CleanupInterval = 5 * time.Minute
)

// Session binds one browser session to its cart ledger. Ledgers are owned
// exclusively by their session and never shared.
type Session struct {
	ID     string
	Ledger *cart.Ledger

	// SubmitMu serializes order submission for the session: two submit
	// clicks cannot interleave into two live orders.
	SubmitMu sync.Mutex
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Registry hands out per-session state, expiring carts that have been idle
// past the TTL.
type Registry struct {
	stock cart.StockLookup
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]*entry

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewRegistry(stock cart.StockLookup, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		stock:       stock,
		ttl:         ttl,
		sessions:    make(map[string]*entry),
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop()

	return r
}

func (r *Registry) cleanupLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireSessions()
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) expireSessions() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.ttl)
	for id, e := range r.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}

// Get returns the session for id, creating it on first use.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.sessions[id]; ok {
		e.lastSeen = time.Now()
		return e.session
	}

	s := &Session{ID: id, Ledger: cart.NewLedger(r.stock)}
	r.sessions[id] = &entry{session: s, lastSeen: time.Now()}
	return s
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the background sweep and waits for it to finish.
func (r *Registry) Close() error {
	close(r.stopCleanup)
	r.wg.Wait()
	return nil
}
