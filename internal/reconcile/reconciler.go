// Package reconcile implements the client-side view loop. Change signals
// carry no data, so a client holds the last snapshot it fetched, re-fetches
// whole on every signal, and overlays its own unconfirmed writes for
// responsiveness. There is nothing to merge: the server snapshot always
// wins, and a failed write rolls the view back to the last fetched state.
package reconcile

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/identity"
	"github.com/draftforge/livedraft-backend/internal/lobby"
)

// Source fetches full snapshots. The lobby controller satisfies it directly;
// a remote client wraps its HTTP calls in the same shape.
type Source interface {
	Snapshot(ctx context.Context, sessionID uuid.UUID) (*lobby.Snapshot, error)
}

// Reconciler maintains one session's view for one client.
type Reconciler struct {
	source    Source
	sessionID uuid.UUID
	userID    *uuid.UUID
	creds     identity.CredentialCache

	mu       sync.Mutex
	lastGood *lobby.Snapshot
	role     identity.Role
	pending  []pendingEdit
	nextTok  int
}

type pendingEdit struct {
	token int
	apply func(*lobby.Snapshot)
}

func New(source Source, sessionID uuid.UUID, userID *uuid.UUID, creds identity.CredentialCache) *Reconciler {
	return &Reconciler{
		source:    source,
		sessionID: sessionID,
		userID:    userID,
		creds:     creds,
		role:      identity.RoleUnaffiliated,
	}
}

// Refresh re-fetches the whole snapshot and recomputes the caller's role
// from it. Every pending optimistic edit is discarded: the fetched state
// either already contains the write or has overruled it. This is the change
// signal handler; it is also safe to call on a reconnect timer.
func (r *Reconciler) Refresh(ctx context.Context) error {
	snap, err := r.source.Snapshot(ctx, r.sessionID)
	if err != nil {
		return err
	}
	var cached *identity.Cached
	if r.creds != nil {
		if c, ok := r.creds.Load(r.sessionID); ok {
			cached = &c
		}
	}
	role := identity.Resolve(&snap.Session, snap.Participants, r.userID, cached)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastGood = snap
	r.role = role
	r.pending = nil
	return nil
}

// Optimistic applies a local edit immediately and returns a token. The edit
// rides on top of every View until the next Refresh confirms or overwrites
// it, or Fail rolls it back.
func (r *Reconciler) Optimistic(apply func(*lobby.Snapshot)) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTok++
	r.pending = append(r.pending, pendingEdit{token: r.nextTok, apply: apply})
	return r.nextTok
}

// Fail drops one optimistic edit after its write was rejected, restoring the
// view to the last known-good state plus any other pending edits.
func (r *Reconciler) Fail(token int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.pending {
		if e.token == token {
			r.pending = append(r.pending[:i], r.pending[i+1:]...)
			return
		}
	}
}

// View renders the current state: last fetched snapshot plus pending edits.
// ok is false before the first successful Refresh.
func (r *Reconciler) View() (*lobby.Snapshot, identity.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastGood == nil {
		return nil, r.role, false
	}
	snap := cloneSnapshot(r.lastGood)
	for _, e := range r.pending {
		e.apply(snap)
	}
	return snap, r.role, true
}

// Role returns the role computed by the latest Refresh. Never cached beyond
// that: a captaincy change is visible as soon as the next snapshot lands.
func (r *Reconciler) Role() identity.Role {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.role
}

func cloneSnapshot(s *lobby.Snapshot) *lobby.Snapshot {
	out := &lobby.Snapshot{Session: s.Session.Clone()}
	if s.Games != nil {
		out.Games = make([]domain.Game, len(s.Games))
		for i := range s.Games {
			out.Games[i] = s.Games[i].Clone()
		}
	}
	if s.Participants != nil {
		out.Participants = make([]domain.Participant, len(s.Participants))
		for i := range s.Participants {
			out.Participants[i] = s.Participants[i].Clone()
		}
	}
	return out
}
