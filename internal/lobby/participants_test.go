package lobby

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/notify"
	"github.com/draftforge/livedraft-backend/internal/store"
)

func TestJoinSpectator(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})

	_, err := f.ctrl.JoinSpectator(f.ctx, s.ID, Actor{})
	require.ErrorIs(t, err, ErrNameRequired)

	p, err := f.ctrl.JoinSpectator(f.ctx, s.ID, anonActor("watcher"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, p.ID)
	require.Equal(t, domain.ParticipantSpectator, p.ParticipantType)
	require.Equal(t, "watcher", p.DisplayName)
	require.True(t, p.IsConnected)
	require.Nil(t, p.UserID)
	require.Equal(t, testTime, p.JoinedAt)

	// Anonymous spectators are not deduplicated; the row id is the only
	// credential they hold.
	p2, err := f.ctrl.JoinSpectator(f.ctx, s.ID, anonActor("watcher"))
	require.NoError(t, err)
	require.NotEqual(t, p.ID, p2.ID)
}

func TestJoinSpectatorDedupsAuthedUser(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})
	viewer := authedActor("viewer")

	first, err := f.ctrl.JoinSpectator(f.ctx, s.ID, viewer)
	require.NoError(t, err)

	renamed := Actor{UserID: viewer.UserID, DisplayName: "viewer-two"}
	second, err := f.ctrl.JoinSpectator(f.ctx, s.ID, renamed)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "viewer-two", second.DisplayName)

	participants, err := f.store.Participants.ListBySession(f.ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, participants, 1)
}

func TestJoinSpectatorRequiresActiveSession(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})
	require.NoError(t, f.ctrl.CancelSession(f.ctx, s.ID, Actor{UserID: &f.creator}))

	_, err := f.ctrl.JoinSpectator(f.ctx, s.ID, anonActor("late"))
	require.ErrorIs(t, err, ErrWrongStatus)
}

func TestLeaveParticipant(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})
	other := f.createSession(CreateSessionParams{})

	p, err := f.ctrl.JoinSpectator(f.ctx, s.ID, anonActor("watcher"))
	require.NoError(t, err)

	// The participant id must belong to the named session.
	require.ErrorIs(t, f.ctrl.LeaveParticipant(f.ctx, other.ID, p.ID), ErrSessionNotFound)

	require.NoError(t, f.ctrl.LeaveParticipant(f.ctx, s.ID, p.ID))
	_, err = f.store.Participants.Get(f.ctx, p.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Leaving twice is harmless; clients fire this on navigation.
	require.NoError(t, f.ctrl.LeaveParticipant(f.ctx, s.ID, p.ID))
}

func TestHeartbeat(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})
	other := f.createSession(CreateSessionParams{})

	p, err := f.ctrl.JoinSpectator(f.ctx, s.ID, anonActor("watcher"))
	require.NoError(t, err)

	require.ErrorIs(t, f.ctrl.Heartbeat(f.ctx, other.ID, p.ID), ErrSessionNotFound)

	f.clock.Advance(30 * time.Second)
	require.NoError(t, f.ctrl.Heartbeat(f.ctx, s.ID, p.ID))

	got, err := f.store.Participants.Get(f.ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, testTime.Add(30*time.Second), got.LastSeenAt)

	require.ErrorIs(t, f.ctrl.Heartbeat(f.ctx, s.ID, uuid.New()), store.ErrNotFound)
}

func TestSetConnectedSignalsOnlyOnFlip(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})
	p, err := f.ctrl.JoinSpectator(f.ctx, s.ID, anonActor("watcher"))
	require.NoError(t, err)

	sub := f.hub.Subscribe(s.ID)
	defer f.hub.Unsubscribe(sub)

	require.NoError(t, f.ctrl.SetConnected(f.ctx, s.ID, p.ID, false))
	recvSignal(t, sub, notify.TableParticipants)
	require.False(t, f.mustParticipant(p.ID).IsConnected)

	// Repeating the current state refreshes liveness without a signal.
	require.NoError(t, f.ctrl.SetConnected(f.ctx, s.ID, p.ID, false))
	select {
	case c := <-sub.C():
		t.Fatalf("unexpected %s signal", c.Table)
	default:
	}

	require.NoError(t, f.ctrl.SetConnected(f.ctx, s.ID, p.ID, true))
	recvSignal(t, sub, notify.TableParticipants)
	require.True(t, f.mustParticipant(p.ID).IsConnected)
}

func (f *fixture) mustParticipant(id uuid.UUID) *domain.Participant {
	f.t.Helper()
	p, err := f.store.Participants.Get(f.ctx, id)
	require.NoError(f.t, err)
	return p
}
