// Package notify distributes change signals to watching clients. A signal
// carries no draft data, only which session and which table changed; anyone
// who receives one re-fetches the full snapshot. Delivery is at-least-once
// with no ordering promise, and signals to a slow subscriber are dropped,
// which is safe because a pending signal already means "re-fetch".
package notify

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const (
	TableSessions     = "sessions"
	TableGames        = "games"
	TableParticipants = "participants"
	TableMessages     = "messages"
)

// Change identifies what moved, never what the new value is.
type Change struct {
	Table     string    `json:"table"`
	SessionID uuid.UUID `json:"sessionId"`
}

// Notifier is the fan-out seam. The memory Hub serves a single process;
// the postgres and NATS notifiers relay through an external broker so
// several nodes fan out the same signals.
type Notifier interface {
	Publish(ctx context.Context, c Change) error
	Subscribe(sessionID uuid.UUID) *Subscription
	Unsubscribe(sub *Subscription)
}

// subscriptionBuffer absorbs short bursts; beyond it signals coalesce by
// being dropped.
const subscriptionBuffer = 8

// Subscription receives signals for one session until unsubscribed. The
// channel closes on Unsubscribe and on hub shutdown.
type Subscription struct {
	sessionID uuid.UUID
	ch        chan Change
}

func (s *Subscription) C() <-chan Change { return s.ch }

// Hub is the in-process Notifier.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]map[*Subscription]struct{})}
}

func (h *Hub) Subscribe(sessionID uuid.UUID) *Subscription {
	sub := &Subscription{sessionID: sessionID, ch: make(chan Change, subscriptionBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	set := h.subs[sessionID]
	if set == nil {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.sessionID]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.sessionID)
	}
	close(sub.ch)
}

func (h *Hub) Publish(ctx context.Context, c Change) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	for sub := range h.subs[c.SessionID] {
		select {
		case sub.ch <- c:
		default:
		}
	}
	return nil
}

// Close shuts every subscription down. Further publishes are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, set := range h.subs {
		for sub := range set {
			close(sub.ch)
		}
	}
	h.subs = make(map[uuid.UUID]map[*Subscription]struct{})
}
