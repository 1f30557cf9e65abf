package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

func newSession(token string) *domain.Session {
	return &domain.Session{
		InviteToken:     token,
		Team1Name:       "Team 1",
		Team2Name:       "Team 2",
		DraftMode:       domain.ModeNormal,
		PlannedGames:    1,
		PickTimeSeconds: 30,
		BanTimeSeconds:  30,
		Status:          domain.SessionLobby,
		CreatedBy:       uuid.New(),
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := New()

	s := newSession("TOKEN1")
	require.NoError(t, st.Sessions.Create(ctx, s))
	require.NotEqual(t, uuid.Nil, s.ID)

	got, err := st.Sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)
	require.Equal(t, "TOKEN1", got.InviteToken)

	byToken, err := st.Sessions.GetByInviteToken(ctx, "TOKEN1")
	require.NoError(t, err)
	require.Equal(t, s.ID, byToken.ID)

	_, err = st.Sessions.Get(ctx, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)

	dup := newSession("TOKEN1")
	require.ErrorIs(t, st.Sessions.Create(ctx, dup), store.ErrDuplicate)
}

func TestSessionReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	st := New()

	s := newSession("TOKEN2")
	require.NoError(t, st.Sessions.Create(ctx, s))

	got, err := st.Sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	got.Team1Name = "scribbled"
	captain := uuid.New()
	got.Team1CaptainID = &captain

	again, err := st.Sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, "Team 1", again.Team1Name)
	require.Nil(t, again.Team1CaptainID)
}

func TestSessionUpdateGuards(t *testing.T) {
	ctx := context.Background()
	st := New()

	s := newSession("TOKEN3")
	require.NoError(t, st.Sessions.Create(ctx, s))

	first := uuid.New()
	err := st.Sessions.Update(ctx, s.ID,
		store.Changes{"team1_captain_id": &first},
		store.Eq("team1_captain_id", nil),
		store.Eq("team1_captain_name", ""))
	require.NoError(t, err)

	// The slot is taken now; a second claim must fail and change nothing.
	second := uuid.New()
	err = st.Sessions.Update(ctx, s.ID,
		store.Changes{"team1_captain_id": &second},
		store.Eq("team1_captain_id", nil),
		store.Eq("team1_captain_name", ""))
	require.ErrorIs(t, err, store.ErrConditionFailed)

	got, err := st.Sessions.Get(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Team1CaptainID)
	require.Equal(t, first, *got.Team1CaptainID)

	// Neq with NULL semantics: team1_captain_id IS NOT NULL holds now.
	err = st.Sessions.Update(ctx, s.ID,
		store.Changes{"team1_ready": true},
		store.Neq("team1_captain_id", nil))
	require.NoError(t, err)

	// Side exclusivity guard: team2 may not take blue once team1 holds it.
	require.NoError(t, st.Sessions.Update(ctx, s.ID,
		store.Changes{"team1_side": domain.SideBlue}))
	err = st.Sessions.Update(ctx, s.ID,
		store.Changes{"team2_side": domain.SideBlue},
		store.Neq("team1_side", domain.SideBlue))
	require.ErrorIs(t, err, store.ErrConditionFailed)

	err = st.Sessions.Update(ctx, uuid.New(), store.Changes{"team1_ready": true})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionDeleteCascades(t *testing.T) {
	ctx := context.Background()
	st := New()

	s := newSession("TOKEN4")
	require.NoError(t, st.Sessions.Create(ctx, s))

	g := &domain.Game{
		SessionID:    s.ID,
		GameNumber:   1,
		BlueSideTeam: domain.Team1,
		Status:       domain.GamePending,
		BlueBans:     domain.NewChampionSlots(),
		RedBans:      domain.NewChampionSlots(),
		BluePicks:    domain.NewChampionSlots(),
		RedPicks:     domain.NewChampionSlots(),
	}
	require.NoError(t, st.Games.Create(ctx, g))

	p := &domain.Participant{
		SessionID:       s.ID,
		ParticipantType: domain.ParticipantSpectator,
		DisplayName:     "watcher",
	}
	require.NoError(t, st.Participants.Create(ctx, p))

	m := &domain.Message{SessionID: s.ID, DisplayName: "watcher", Content: "hi"}
	require.NoError(t, st.Messages.Create(ctx, m))

	require.NoError(t, st.Sessions.Delete(ctx, s.ID))

	_, err := st.Sessions.Get(ctx, s.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	games, err := st.Games.ListBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Empty(t, games)
	_, err = st.Participants.Get(ctx, p.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	msgs, err := st.Messages.ListBySession(ctx, s.ID, 0)
	require.NoError(t, err)
	require.Empty(t, msgs)

	require.ErrorIs(t, st.Sessions.Delete(ctx, s.ID), store.ErrNotFound)
}

func TestGameNumberUniquePerSession(t *testing.T) {
	ctx := context.Background()
	st := New()
	sessionID := uuid.New()

	for _, n := range []int{2, 1, 3} {
		g := &domain.Game{
			SessionID:    sessionID,
			GameNumber:   n,
			BlueSideTeam: domain.Team1,
			Status:       domain.GamePending,
		}
		require.NoError(t, st.Games.Create(ctx, g))
	}

	dup := &domain.Game{SessionID: sessionID, GameNumber: 2, BlueSideTeam: domain.Team2}
	require.ErrorIs(t, st.Games.Create(ctx, dup), store.ErrDuplicate)

	// Same number under a different session is fine.
	other := &domain.Game{SessionID: uuid.New(), GameNumber: 2, BlueSideTeam: domain.Team1}
	require.NoError(t, st.Games.Create(ctx, other))

	games, err := st.Games.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, games, 3)
	for i, g := range games {
		require.Equal(t, i+1, g.GameNumber)
	}

	got, err := st.Games.GetByNumber(ctx, sessionID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, got.GameNumber)
	_, err = st.Games.GetByNumber(ctx, sessionID, 9)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestGameUpdateGuardsStaleIndex(t *testing.T) {
	ctx := context.Background()
	st := New()

	g := &domain.Game{
		SessionID:    uuid.New(),
		GameNumber:   1,
		BlueSideTeam: domain.Team1,
		Status:       domain.GameDrafting,
		BlueBans:     domain.NewChampionSlots(),
	}
	require.NoError(t, st.Games.Create(ctx, g))

	champ := "Aatrox"
	slots := domain.NewChampionSlots()
	slots[0] = &champ

	err := st.Games.Update(ctx, g.ID,
		store.Changes{"blue_bans": slots, "current_action_index": 1},
		store.Eq("status", domain.GameDrafting),
		store.Eq("current_action_index", 0))
	require.NoError(t, err)

	// A second writer that loaded index 0 must lose.
	err = st.Games.Update(ctx, g.ID,
		store.Changes{"current_action_index": 1},
		store.Eq("status", domain.GameDrafting),
		store.Eq("current_action_index", 0))
	require.ErrorIs(t, err, store.ErrConditionFailed)

	// The stored slot array is a copy, not an alias of the caller's slice.
	other := "Ahri"
	slots[0] = &other
	got, err := st.Games.Get(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BlueBans[0])
	require.Equal(t, "Aatrox", *got.BlueBans[0])
	require.Equal(t, 1, got.CurrentActionIndex)
}

func TestParticipants(t *testing.T) {
	ctx := context.Background()
	st := New()
	sessionID := uuid.New()
	userID := uuid.New()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	second := &domain.Participant{
		SessionID:       sessionID,
		ParticipantType: domain.ParticipantSpectator,
		DisplayName:     "late",
		JoinedAt:        base.Add(time.Minute),
	}
	require.NoError(t, st.Participants.Create(ctx, second))

	first := &domain.Participant{
		SessionID:       sessionID,
		UserID:          &userID,
		ParticipantType: domain.ParticipantController,
		DisplayName:     "early",
		JoinedAt:        base,
	}
	require.NoError(t, st.Participants.Create(ctx, first))

	byUser, err := st.Participants.GetByUser(ctx, sessionID, userID)
	require.NoError(t, err)
	require.Equal(t, first.ID, byUser.ID)
	_, err = st.Participants.GetByUser(ctx, sessionID, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)

	list, err := st.Participants.ListBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "early", list[0].DisplayName)
	require.Equal(t, "late", list[1].DisplayName)

	err = st.Participants.Update(ctx, first.ID, store.Changes{
		"is_connected": false,
		"display_name": "renamed",
	})
	require.NoError(t, err)
	got, err := st.Participants.Get(ctx, first.ID)
	require.NoError(t, err)
	require.False(t, got.IsConnected)
	require.Equal(t, "renamed", got.DisplayName)

	require.NoError(t, st.Participants.Delete(ctx, first.ID))
	require.ErrorIs(t, st.Participants.Delete(ctx, first.ID), store.ErrNotFound)
}

func TestMessagesLimit(t *testing.T) {
	ctx := context.Background()
	st := New()
	sessionID := uuid.New()
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		m := &domain.Message{
			SessionID:   sessionID,
			DisplayName: "cap",
			Content:     string(rune('a' + i)),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, st.Messages.Create(ctx, m))
	}
	// Noise in another session must not leak in.
	require.NoError(t, st.Messages.Create(ctx, &domain.Message{
		SessionID: uuid.New(), DisplayName: "x", Content: "z",
	}))

	last3, err := st.Messages.ListBySession(ctx, sessionID, 3)
	require.NoError(t, err)
	require.Len(t, last3, 3)
	require.Equal(t, "c", last3[0].Content)
	require.Equal(t, "e", last3[2].Content)

	all, err := st.Messages.ListBySession(ctx, sessionID, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
}
