// Package lobby is the service layer for draft sessions: lobby setup,
// captaincy, the pick/ban loop, and participant bookkeeping. The controller
// holds no session state of its own. Every operation loads fresh rows,
// validates, writes through the store's conditional updates, and publishes a
// change signal; two nodes running this code against one database behave as
// one service.
package lobby

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/identity"
	"github.com/draftforge/livedraft-backend/internal/notify"
	"github.com/draftforge/livedraft-backend/internal/store"
)

const (
	DefaultPickSeconds = 30
	DefaultBanSeconds  = 30
	MinTurnSeconds     = 5
	MaxTurnSeconds     = 600
	MaxPlannedGames    = 7
	MaxTeamNameLength  = 100
	MaxDisplayNameLen  = 50

	inviteTokenLength   = 12
	inviteTokenAttempts = 5
)

// inviteTokenCharset avoids characters that read ambiguously when shared by
// voice or handwriting.
const inviteTokenCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Actor is who a request claims to be: an authenticated user id from the
// identity provider, or the display name an anonymous device remembered.
// Claims are trusted as-is; captaincy checks compare them against the
// session row.
type Actor struct {
	UserID      *uuid.UUID
	DisplayName string
}

// Controller implements every session operation.
type Controller struct {
	store    *store.Store
	notifier notify.Notifier
	clock    clockwork.Clock
	log      *zap.Logger
}

func NewController(st *store.Store, n notify.Notifier, clock clockwork.Clock, log *zap.Logger) *Controller {
	return &Controller{store: st, notifier: n, clock: clock, log: log}
}

// Snapshot is the full state a client renders from. Clients re-fetch it
// whole on every change signal instead of patching deltas.
type Snapshot struct {
	Session      domain.Session       `json:"session"`
	Games        []domain.Game        `json:"games"`
	Participants []domain.Participant `json:"participants"`
}

// CurrentGame returns the game the session is on, nil while in the lobby.
func (s *Snapshot) CurrentGame() *domain.Game {
	for i := range s.Games {
		if s.Games[i].GameNumber == s.Session.CurrentGameNumber {
			return &s.Games[i]
		}
	}
	return nil
}

type CreateSessionParams struct {
	Team1Name       string
	Team2Name       string
	DraftMode       domain.DraftMode
	PlannedGames    int
	PickTimeSeconds int
	BanTimeSeconds  int
}

// CreateSession provisions a session in the lobby state and allocates its
// invite token. The creator does not become a captain by creating; they
// claim a slot like anyone else.
func (c *Controller) CreateSession(ctx context.Context, creator uuid.UUID, p CreateSessionParams) (*domain.Session, error) {
	if creator == uuid.Nil {
		return nil, fmt.Errorf("%w: creator required", ErrInvalid)
	}
	if p.Team1Name == "" {
		p.Team1Name = "Team 1"
	}
	if p.Team2Name == "" {
		p.Team2Name = "Team 2"
	}
	if len(p.Team1Name) > MaxTeamNameLength || len(p.Team2Name) > MaxTeamNameLength {
		return nil, fmt.Errorf("%w: team name too long", ErrInvalid)
	}
	if p.DraftMode == "" {
		p.DraftMode = domain.ModeNormal
	}
	if _, ok := domain.ParseDraftMode(string(p.DraftMode)); !ok {
		return nil, fmt.Errorf("%w: unknown draft mode %q", ErrInvalid, p.DraftMode)
	}
	if p.PlannedGames == 0 {
		p.PlannedGames = 1
	}
	if p.PlannedGames < 1 || p.PlannedGames > MaxPlannedGames {
		return nil, fmt.Errorf("%w: planned games must be 1-%d", ErrInvalid, MaxPlannedGames)
	}
	if p.PickTimeSeconds == 0 {
		p.PickTimeSeconds = DefaultPickSeconds
	}
	if p.BanTimeSeconds == 0 {
		p.BanTimeSeconds = DefaultBanSeconds
	}
	if p.PickTimeSeconds < MinTurnSeconds || p.PickTimeSeconds > MaxTurnSeconds ||
		p.BanTimeSeconds < MinTurnSeconds || p.BanTimeSeconds > MaxTurnSeconds {
		return nil, fmt.Errorf("%w: turn timers must be %d-%d seconds", ErrInvalid, MinTurnSeconds, MaxTurnSeconds)
	}

	for attempt := 0; attempt < inviteTokenAttempts; attempt++ {
		token, err := generateInviteToken()
		if err != nil {
			return nil, err
		}
		s := &domain.Session{
			ID:              uuid.New(),
			InviteToken:     token,
			Team1Name:       p.Team1Name,
			Team2Name:       p.Team2Name,
			DraftMode:       p.DraftMode,
			PlannedGames:    p.PlannedGames,
			PickTimeSeconds: p.PickTimeSeconds,
			BanTimeSeconds:  p.BanTimeSeconds,
			Status:          domain.SessionLobby,
			CreatedBy:       creator,
		}
		err = c.store.Sessions.Create(ctx, s)
		if errors.Is(err, store.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		c.log.Info("session created",
			zap.String("session_id", s.ID.String()),
			zap.String("mode", string(s.DraftMode)),
			zap.Int("planned_games", s.PlannedGames))
		return s, nil
	}
	return nil, errors.New("could not allocate a unique invite token")
}

// SessionByInviteToken resolves a shared invite link.
func (c *Controller) SessionByInviteToken(ctx context.Context, token string) (*domain.Session, error) {
	s, err := c.store.Sessions.GetByInviteToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// Session returns the session row alone, without games or participants.
func (c *Controller) Session(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	return c.session(ctx, sessionID)
}

// Snapshot loads everything a client needs in one pass.
func (c *Controller) Snapshot(ctx context.Context, sessionID uuid.UUID) (*Snapshot, error) {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	games, err := c.store.Games.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := c.store.Participants.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Session: *s, Games: games, Participants: participants}, nil
}

// Resolve reports the actor's role in the session.
func (c *Controller) Resolve(ctx context.Context, sessionID uuid.UUID, a Actor) (identity.Role, error) {
	snap, err := c.Snapshot(ctx, sessionID)
	if err != nil {
		return identity.RoleUnaffiliated, err
	}
	cached := identity.Cached{DisplayName: a.DisplayName}
	return identity.Resolve(&snap.Session, snap.Participants, a.UserID, &cached), nil
}

// DeleteSession removes the session and all dependent rows. Creator only.
func (c *Controller) DeleteSession(ctx context.Context, sessionID, userID uuid.UUID) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.CreatedBy != userID {
		return ErrNotCreator
	}
	if err := c.store.Sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	c.log.Info("session deleted", zap.String("session_id", sessionID.String()))
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

func (c *Controller) session(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	s, err := c.store.Sessions.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	return s, err
}

// publish sends a change signal. Failures are logged, not returned: the
// write already happened and clients recover on their next re-fetch.
func (c *Controller) publish(ctx context.Context, table string, sessionID uuid.UUID) {
	if err := c.notifier.Publish(ctx, notify.Change{Table: table, SessionID: sessionID}); err != nil {
		c.log.Warn("change signal dropped",
			zap.String("table", table),
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
	}
}

func generateInviteToken() (string, error) {
	buf := make([]byte, inviteTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteTokenCharset[int(b)%len(inviteTokenCharset)]
	}
	return string(buf), nil
}

func captainIDColumn(t domain.Team) string {
	if t == domain.Team1 {
		return "team1_captain_id"
	}
	return "team2_captain_id"
}

func captainNameColumn(t domain.Team) string {
	if t == domain.Team1 {
		return "team1_captain_name"
	}
	return "team2_captain_name"
}

func sideColumn(t domain.Team) string {
	if t == domain.Team1 {
		return "team1_side"
	}
	return "team2_side"
}

func readyColumn(t domain.Team) string {
	if t == domain.Team1 {
		return "team1_ready"
	}
	return "team2_ready"
}
