package notify

import (
	"context"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// State of the push subscription.
type State int32

const (
	Disconnected State = iota
	Connecting
	Subscribed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Subscribed:
		return "subscribed"
	default:
		return "disconnected"
	}
}

// WebsocketSource is the preferred push backend: a long-lived subscription to
// the Deal Service over which deal_created frames arrive. Reconnection is a
// transport-level concern; this source only guarantees that a drop is
// absorbed instead of propagated.
type WebsocketSource struct {
	url   string
	token string
	state atomic.Int32
}

func NewWebsocketSource(url, token string) *WebsocketSource {
	return &WebsocketSource{url: url, token: token}
}

// State reports the current subscription state.
func (s *WebsocketSource) State() State {
	return State(s.state.Load())
}

// Run dials the push endpoint and forwards deal events until the transport
// closes or ctx is cancelled. Handshake and read failures are logged and
// swallowed; the source simply ends up Disconnected.
func (s *WebsocketSource) Run(ctx context.Context, handler Handler) {
	s.state.Store(int32(Connecting))
	defer s.state.Store(int32(Disconnected))

	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.url, header)
	if err != nil {
		log.Printf("deal push: handshake failed: %v", err)
		return
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	s.state.Store(int32(Subscribed))

	// Unblock the read loop when the caller shuts down.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("deal push: connection closed: %v", err)
			}
			return
		}
		if ev, ok := parseFrame(raw, time.Now()); ok {
			handler(ev)
		}
	}
}
