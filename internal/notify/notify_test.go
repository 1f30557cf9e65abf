package notify

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	defer h.Close()
	ctx := context.Background()
	sessionA := uuid.New()
	sessionB := uuid.New()

	a1 := h.Subscribe(sessionA)
	a2 := h.Subscribe(sessionA)
	b := h.Subscribe(sessionB)

	require.NoError(t, h.Publish(ctx, Change{Table: TableGames, SessionID: sessionA}))

	for _, sub := range []*Subscription{a1, a2} {
		select {
		case c := <-sub.C():
			require.Equal(t, TableGames, c.Table)
			require.Equal(t, sessionA, c.SessionID)
		default:
			t.Fatalf("subscriber did not receive the signal")
		}
	}
	select {
	case c := <-b.C():
		t.Fatalf("other session received %+v", c)
	default:
	}
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	h := NewHub()
	defer h.Close()
	ctx := context.Background()
	sessionID := uuid.New()

	sub := h.Subscribe(sessionID)
	for i := 0; i < subscriptionBuffer+5; i++ {
		require.NoError(t, h.Publish(ctx, Change{Table: TableGames, SessionID: sessionID}))
	}

	// The buffer holds what it holds; the overflow was dropped, not blocked.
	received := 0
	for {
		select {
		case <-sub.C():
			received++
			continue
		default:
		}
		break
	}
	require.Equal(t, subscriptionBuffer, received)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	defer h.Close()
	sessionID := uuid.New()

	sub := h.Subscribe(sessionID)
	h.Unsubscribe(sub)

	_, ok := <-sub.C()
	require.False(t, ok)

	// A second unsubscribe is harmless.
	h.Unsubscribe(sub)

	// Publishing to a session with no subscribers is a no-op.
	require.NoError(t, h.Publish(context.Background(), Change{Table: TableSessions, SessionID: sessionID}))
}

func TestHubClose(t *testing.T) {
	h := NewHub()
	sessionID := uuid.New()
	sub := h.Subscribe(sessionID)

	h.Close()

	_, ok := <-sub.C()
	require.False(t, ok)

	// Publish and Subscribe after close must not panic or deliver.
	require.NoError(t, h.Publish(context.Background(), Change{Table: TableGames, SessionID: sessionID}))
	late := h.Subscribe(sessionID)
	_, ok = <-late.C()
	require.False(t, ok)

	h.Close()
}
