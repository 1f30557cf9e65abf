package lobby

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/engine"
	"github.com/draftforge/livedraft-backend/internal/identity"
	"github.com/draftforge/livedraft-backend/internal/notify"
	"github.com/draftforge/livedraft-backend/internal/store"
	"github.com/draftforge/livedraft-backend/internal/store/memory"
)

var testTime = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	ctrl    *Controller
	store   *store.Store
	hub     *notify.Hub
	clock   *clockwork.FakeClock
	creator uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hub := notify.NewHub()
	t.Cleanup(hub.Close)
	st := memory.New()
	clock := clockwork.NewFakeClockAt(testTime)
	return &fixture{
		t:       t,
		ctx:     context.Background(),
		ctrl:    NewController(st, hub, clock, zap.NewNop()),
		store:   st,
		hub:     hub,
		clock:   clock,
		creator: uuid.New(),
	}
}

func (f *fixture) createSession(p CreateSessionParams) *domain.Session {
	f.t.Helper()
	s, err := f.ctrl.CreateSession(f.ctx, f.creator, p)
	require.NoError(f.t, err)
	return s
}

// authedActor returns an authenticated actor with a fresh user id.
func authedActor(name string) Actor {
	id := uuid.New()
	return Actor{UserID: &id, DisplayName: name}
}

// anonActor returns an anonymous actor known only by display name.
func anonActor(name string) Actor {
	return Actor{DisplayName: name}
}

// readyLobby claims both captain slots, puts team1 on blue, team2 on red,
// and readies both teams.
func (f *fixture) readyLobby(s *domain.Session, cap1, cap2 Actor) {
	f.t.Helper()
	require.NoError(f.t, f.ctrl.JoinAsCaptain(f.ctx, s.ID, domain.Team1, cap1))
	require.NoError(f.t, f.ctrl.JoinAsCaptain(f.ctx, s.ID, domain.Team2, cap2))
	require.NoError(f.t, f.ctrl.SelectSide(f.ctx, s.ID, domain.Team1, domain.SideBlue, cap1))
	require.NoError(f.t, f.ctrl.SelectSide(f.ctx, s.ID, domain.Team2, domain.SideRed, cap2))
	require.NoError(f.t, f.ctrl.SetReady(f.ctx, s.ID, domain.Team1, true, cap1))
	require.NoError(f.t, f.ctrl.SetReady(f.ctx, s.ID, domain.Team2, true, cap2))
}

// startedSession builds a session mid-draft: lobby readied and started, game
// one drafting at action zero with team1 on blue.
func (f *fixture) startedSession(p CreateSessionParams) (*domain.Session, Actor, Actor) {
	f.t.Helper()
	s := f.createSession(p)
	cap1 := authedActor("alex")
	cap2 := anonActor("mira")
	f.readyLobby(s, cap1, cap2)
	require.NoError(f.t, f.ctrl.StartSession(f.ctx, s.ID, cap1))
	return f.reload(s.ID), cap1, cap2
}

func (f *fixture) reload(id uuid.UUID) *domain.Session {
	f.t.Helper()
	s, err := f.ctrl.Session(f.ctx, id)
	require.NoError(f.t, err)
	return s
}

func (f *fixture) game(sessionID uuid.UUID, number int) *domain.Game {
	f.t.Helper()
	g, err := f.store.Games.GetByNumber(f.ctx, sessionID, number)
	require.NoError(f.t, err)
	return g
}

// captainFor maps a game's map side back to the actor captaining it.
func captainFor(g *domain.Game, side domain.Side, cap1, cap2 Actor) Actor {
	if g.TeamOnSide(side) == domain.Team1 {
		return cap1
	}
	return cap2
}

// playGame drives the current game through all twenty actions. Champion
// names are prefixed so carryover tests can tell games apart.
func (f *fixture) playGame(s *domain.Session, cap1, cap2 Actor, prefix string) *domain.Game {
	f.t.Helper()
	fresh := f.reload(s.ID)
	g := f.game(s.ID, fresh.CurrentGameNumber)
	var last *domain.Game
	for i := 0; i < engine.SequenceLen; i++ {
		step, _ := engine.StepAt(i)
		actor := captainFor(g, step.Side, cap1, cap2)
		updated, err := f.ctrl.SubmitAction(f.ctx, s.ID, SubmitActionParams{
			Side:     step.Side,
			Action:   step.Action,
			Champion: fmt.Sprintf("%s%02d", prefix, i),
		}, actor)
		require.NoError(f.t, err, "action %d", i)
		last = updated
	}
	return last
}

// recvSignal waits for a change signal on the given table, skipping others.
func recvSignal(t *testing.T, sub *notify.Subscription, table string) {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case c, ok := <-sub.C():
			require.True(t, ok, "subscription closed while waiting for %s", table)
			if c.Table == table {
				return
			}
		case <-timeout:
			t.Fatalf("no %s signal arrived", table)
		}
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	f := newFixture(t)

	s := f.createSession(CreateSessionParams{})
	require.Equal(t, "Team 1", s.Team1Name)
	require.Equal(t, "Team 2", s.Team2Name)
	require.Equal(t, domain.ModeNormal, s.DraftMode)
	require.Equal(t, 1, s.PlannedGames)
	require.Equal(t, DefaultPickSeconds, s.PickTimeSeconds)
	require.Equal(t, DefaultBanSeconds, s.BanTimeSeconds)
	require.Equal(t, domain.SessionLobby, s.Status)
	require.Equal(t, 0, s.CurrentGameNumber)
	require.Len(t, s.InviteToken, inviteTokenLength)
	require.Equal(t, f.creator, s.CreatedBy)

	byToken, err := f.ctrl.SessionByInviteToken(f.ctx, s.InviteToken)
	require.NoError(t, err)
	require.Equal(t, s.ID, byToken.ID)

	_, err = f.ctrl.SessionByInviteToken(f.ctx, "NOSUCHTOKEN")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		creator uuid.UUID
		params  CreateSessionParams
	}{
		{"missing creator", uuid.Nil, CreateSessionParams{}},
		{"unknown draft mode", f.creator, CreateSessionParams{DraftMode: "blitz"}},
		{"too many games", f.creator, CreateSessionParams{PlannedGames: MaxPlannedGames + 1}},
		{"negative games", f.creator, CreateSessionParams{PlannedGames: -1}},
		{"pick timer too short", f.creator, CreateSessionParams{PickTimeSeconds: 2}},
		{"ban timer too long", f.creator, CreateSessionParams{BanTimeSeconds: 4000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.ctrl.CreateSession(f.ctx, tc.creator, tc.params)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	s, cap1, _ := f.startedSession(CreateSessionParams{PlannedGames: 2})

	snap, err := f.ctrl.Snapshot(f.ctx, s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, snap.Session.ID)
	require.Len(t, snap.Games, 1)
	require.NotEmpty(t, snap.Participants)

	current := snap.CurrentGame()
	require.NotNil(t, current)
	require.Equal(t, 1, current.GameNumber)
	require.Equal(t, domain.GameDrafting, current.Status)

	role, err := f.ctrl.Resolve(f.ctx, s.ID, cap1)
	require.NoError(t, err)
	require.Equal(t, identity.RoleTeam1Captain, role)

	role, err = f.ctrl.Resolve(f.ctx, s.ID, anonActor("nobody"))
	require.NoError(t, err)
	require.Equal(t, identity.RoleUnaffiliated, role)

	_, err = f.ctrl.Snapshot(f.ctx, uuid.New())
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSessionCreatorOnly(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})

	require.ErrorIs(t, f.ctrl.DeleteSession(f.ctx, s.ID, uuid.New()), ErrNotCreator)

	require.NoError(t, f.ctrl.DeleteSession(f.ctx, s.ID, f.creator))
	_, err := f.ctrl.Snapshot(f.ctx, s.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestChangeSignalsOnLobbyMutations(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})

	sub := f.hub.Subscribe(s.ID)
	defer f.hub.Unsubscribe(sub)

	require.NoError(t, f.ctrl.JoinAsCaptain(f.ctx, s.ID, domain.Team1, authedActor("alex")))
	recvSignal(t, sub, notify.TableSessions)

	_, err := f.ctrl.JoinSpectator(f.ctx, s.ID, anonActor("watcher"))
	require.NoError(t, err)
	recvSignal(t, sub, notify.TableParticipants)

	_, err = f.ctrl.PostMessage(f.ctx, s.ID, anonActor("watcher"), "hello")
	require.NoError(t, err)
	recvSignal(t, sub, notify.TableMessages)
}

func TestRepairMissingGame(t *testing.T) {
	f := newFixture(t)
	s := f.createSession(CreateSessionParams{})
	cap1, cap2 := authedActor("alex"), anonActor("mira")
	f.readyLobby(s, cap1, cap2)

	// Simulate a node that flipped the session and crashed before creating
	// game one.
	now := f.clock.Now()
	require.NoError(t, f.store.Sessions.Update(f.ctx, s.ID, store.Changes{
		"status":              domain.SessionInProgress,
		"started_at":          &now,
		"current_game_number": 1,
	}))

	require.NoError(t, f.ctrl.repairMissingGame(f.ctx, f.reload(s.ID)))

	g := f.game(s.ID, 1)
	require.Equal(t, domain.GameDrafting, g.Status)
	require.Equal(t, domain.Team1, g.BlueSideTeam)

	// With the game present the repair has nothing to do.
	require.ErrorIs(t, f.ctrl.repairMissingGame(f.ctx, f.reload(s.ID)), ErrWrongStatus)
}
