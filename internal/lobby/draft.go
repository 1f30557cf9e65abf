package lobby

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/engine"
	"github.com/draftforge/livedraft-backend/internal/identity"
	"github.com/draftforge/livedraft-backend/internal/notify"
	"github.com/draftforge/livedraft-backend/internal/store"
)

// StartSession moves a fully ready lobby into game one. The transition is
// guarded on every start condition, so concurrent start clicks produce one
// winner; the loser finds the session already in progress. Game one drafts
// from the sides chosen in the lobby.
func (c *Controller) StartSession(ctx context.Context, sessionID uuid.UUID, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Status != domain.SessionLobby {
		return ErrWrongStatus
	}
	if !identity.IsCaptain(s, domain.Team1, a.UserID, a.DisplayName) &&
		!identity.IsCaptain(s, domain.Team2, a.UserID, a.DisplayName) {
		return ErrNotCaptain
	}
	if blockers := startBlockers(s); len(blockers) > 0 {
		return fmt.Errorf("%w: %s", ErrStartConditions, strings.Join(blockers, ", "))
	}

	now := c.clock.Now()
	err = c.store.Sessions.Update(ctx, sessionID, store.Changes{
		"status":              domain.SessionInProgress,
		"started_at":          &now,
		"current_game_number": 1,
	},
		store.Eq("status", domain.SessionLobby),
		store.Eq("team1_ready", true),
		store.Eq("team2_ready", true),
		store.Neq("team1_side", ""),
		store.Neq("team2_side", ""),
	)
	if errors.Is(err, store.ErrConditionFailed) {
		fresh, err := c.session(ctx, sessionID)
		if err != nil {
			return err
		}
		if fresh.Status != domain.SessionLobby {
			return c.repairMissingGame(ctx, fresh)
		}
		return fmt.Errorf("%w: %s", ErrStartConditions, strings.Join(startBlockers(fresh), ", "))
	}
	if err != nil {
		return err
	}

	blueTeam, ok := s.TeamOnSide(domain.SideBlue)
	if !ok {
		blueTeam = domain.Team1
	}
	if err := c.createGame(ctx, s.ID, 1, blueTeam); err != nil {
		return err
	}
	c.log.Info("session started",
		zap.String("session_id", sessionID.String()),
		zap.String("blue_side_team", string(blueTeam)))
	c.publish(ctx, notify.TableSessions, sessionID)
	c.publish(ctx, notify.TableGames, sessionID)
	return nil
}

func startBlockers(s *domain.Session) []string {
	var blockers []string
	if !s.Claimed(domain.Team1) {
		blockers = append(blockers, "team1 has no captain")
	}
	if !s.Claimed(domain.Team2) {
		blockers = append(blockers, "team2 has no captain")
	}
	if s.Team1Side == "" {
		blockers = append(blockers, "team1 has not chosen a side")
	}
	if s.Team2Side == "" {
		blockers = append(blockers, "team2 has not chosen a side")
	}
	if !s.Team1Ready {
		blockers = append(blockers, "team1 is not ready")
	}
	if !s.Team2Ready {
		blockers = append(blockers, "team2 is not ready")
	}
	return blockers
}

// repairMissingGame finishes a start that crashed between flipping the
// session and creating game one. Called when a start attempt finds the
// session already in progress.
func (c *Controller) repairMissingGame(ctx context.Context, s *domain.Session) error {
	if s.Status != domain.SessionInProgress || s.CurrentGameNumber != 1 {
		return ErrWrongStatus
	}
	if _, err := c.store.Games.GetByNumber(ctx, s.ID, 1); err == nil {
		return ErrWrongStatus
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	blueTeam, ok := s.TeamOnSide(domain.SideBlue)
	if !ok {
		blueTeam = domain.Team1
	}
	if err := c.createGame(ctx, s.ID, 1, blueTeam); err != nil {
		return err
	}
	c.publish(ctx, notify.TableGames, s.ID)
	return nil
}

func (c *Controller) createGame(ctx context.Context, sessionID uuid.UUID, number int, blueTeam domain.Team) error {
	g := domain.Game{
		ID:           uuid.New(),
		SessionID:    sessionID,
		GameNumber:   number,
		BlueSideTeam: blueTeam,
		Status:       domain.GamePending,
		BlueBans:     domain.NewChampionSlots(),
		RedBans:      domain.NewChampionSlots(),
		BluePicks:    domain.NewChampionSlots(),
		RedPicks:     domain.NewChampionSlots(),
	}
	started, err := engine.Start(g, c.clock.Now())
	if err != nil {
		return err
	}
	err = c.store.Games.Create(ctx, &started)
	if errors.Is(err, store.ErrDuplicate) {
		// Another node created it first; same outcome.
		return nil
	}
	return err
}

type SubmitActionParams struct {
	Side     domain.Side
	Action   engine.Action
	Champion string
	// ExpectedIndex, when set, rejects the submission if the draft moved
	// past the action the client thought it was answering.
	ExpectedIndex *int
}

// SubmitAction performs one pick or ban on the session's current game. The
// engine validates turn order and champion legality; persistence is guarded
// on the action index so two concurrent submissions for the same turn write
// exactly once. Timeout auto-picks arrive here like any other submission.
func (c *Controller) SubmitAction(ctx context.Context, sessionID uuid.UUID, p SubmitActionParams, a Actor) (*domain.Game, error) {
	if _, ok := domain.ParseSide(string(p.Side)); !ok {
		return nil, fmt.Errorf("%w: unknown side %q", ErrInvalid, p.Side)
	}
	if _, ok := engine.ParseAction(string(p.Action)); !ok {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalid, p.Action)
	}
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != domain.SessionInProgress {
		return nil, ErrWrongStatus
	}
	g, err := c.store.Games.GetByNumber(ctx, sessionID, s.CurrentGameNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrWrongStatus
	}
	if err != nil {
		return nil, err
	}

	team := g.TeamOnSide(p.Side)
	if !identity.IsCaptain(s, team, a.UserID, a.DisplayName) {
		return nil, ErrNotCaptain
	}
	if p.ExpectedIndex != nil && *p.ExpectedIndex != g.CurrentActionIndex {
		return nil, ErrStaleAction
	}

	carry, err := c.carryoverFor(ctx, s, g.GameNumber)
	if err != nil {
		return nil, err
	}
	updated, res, err := engine.Apply(*g, carry, engine.Submission{
		Side:     p.Side,
		Action:   p.Action,
		Champion: p.Champion,
	}, c.clock.Now())
	if err != nil {
		return nil, err
	}

	changes := store.Changes{
		slotColumn(res.Side, res.Action): slotsOf(&updated, res.Side, res.Action),
		"current_action_index":           updated.CurrentActionIndex,
		"current_phase":                  updated.CurrentPhase,
		"current_turn":                   updated.CurrentTurn,
		"turn_started_at":                updated.TurnStartedAt,
		"status":                         updated.Status,
		"completed_at":                   updated.CompletedAt,
	}
	err = c.store.Games.Update(ctx, g.ID, changes,
		store.Eq("status", domain.GameDrafting),
		store.Eq("current_action_index", g.CurrentActionIndex),
	)
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, ErrStaleAction
	}
	if err != nil {
		return nil, err
	}

	c.log.Info("action submitted",
		zap.String("session_id", sessionID.String()),
		zap.Int("game", g.GameNumber),
		zap.String("side", string(res.Side)),
		zap.String("action", string(res.Action)),
		zap.Int("slot", res.Slot))

	if res.Completed {
		if err := c.advanceSeries(ctx, s, &updated); err != nil {
			return nil, err
		}
	}
	c.publish(ctx, notify.TableGames, sessionID)
	return &updated, nil
}

// SubmitTimeoutAction locks in a random legal champion for the current turn.
// Captains' clients call this when the advisory timer expires; it goes
// through SubmitAction like any other action, pinned to the observed index
// so a turn that moved on fails with ErrStaleAction instead of eating the
// next step.
func (c *Controller) SubmitTimeoutAction(ctx context.Context, sessionID uuid.UUID, pool []string, a Actor) (*domain.Game, error) {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != domain.SessionInProgress {
		return nil, ErrWrongStatus
	}
	g, err := c.store.Games.GetByNumber(ctx, sessionID, s.CurrentGameNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrWrongStatus
	}
	if err != nil {
		return nil, err
	}
	if g.Status != domain.GameDrafting {
		return nil, engine.ErrGameNotDrafting
	}
	step, ok := engine.StepAt(g.CurrentActionIndex)
	if !ok {
		return nil, engine.ErrGameNotDrafting
	}
	carry, err := c.carryoverFor(ctx, s, g.GameNumber)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(c.clock.Now().UnixNano()))
	champion, ok := engine.RandomLegal(g, carry, pool, rng)
	if !ok {
		return nil, engine.ErrChampionUnavailable
	}
	idx := g.CurrentActionIndex
	return c.SubmitAction(ctx, sessionID, SubmitActionParams{
		Side:          step.Side,
		Action:        step.Action,
		Champion:      champion,
		ExpectedIndex: &idx,
	}, a)
}

// carryoverFor derives the mode's champion blocks from every game before the
// given one. Derived fresh per submission; nothing is copied forward into
// game rows, so there is no second copy to fall out of sync.
func (c *Controller) carryoverFor(ctx context.Context, s *domain.Session, gameNumber int) (engine.Carryover, error) {
	if s.DraftMode == domain.ModeNormal {
		return engine.CollectCarryover(s.DraftMode, nil), nil
	}
	all, err := c.store.Games.ListBySession(ctx, s.ID)
	if err != nil {
		return engine.Carryover{}, err
	}
	prior := all[:0:0]
	for _, g := range all {
		if g.GameNumber < gameNumber {
			prior = append(prior, g)
		}
	}
	return engine.CollectCarryover(s.DraftMode, prior), nil
}

// advanceSeries runs after a game completes: either opens the next game with
// sides swapped or completes the session. Guard failures here mean another
// node already advanced, which is success.
func (c *Controller) advanceSeries(ctx context.Context, s *domain.Session, finished *domain.Game) error {
	if finished.GameNumber >= s.PlannedGames {
		now := c.clock.Now()
		err := c.store.Sessions.Update(ctx, s.ID, store.Changes{
			"status":       domain.SessionCompleted,
			"completed_at": &now,
		}, store.Eq("status", domain.SessionInProgress))
		if err != nil && !errors.Is(err, store.ErrConditionFailed) {
			return err
		}
		c.log.Info("series completed", zap.String("session_id", s.ID.String()))
		c.publish(ctx, notify.TableSessions, s.ID)
		return nil
	}

	if err := c.createGame(ctx, s.ID, finished.GameNumber+1, finished.BlueSideTeam.Other()); err != nil {
		return err
	}
	err := c.store.Sessions.Update(ctx, s.ID, store.Changes{
		"current_game_number": finished.GameNumber + 1,
	},
		store.Eq("status", domain.SessionInProgress),
		store.Eq("current_game_number", finished.GameNumber),
	)
	if err != nil && !errors.Is(err, store.ErrConditionFailed) {
		return err
	}
	c.log.Info("next game opened",
		zap.String("session_id", s.ID.String()),
		zap.Int("game", finished.GameNumber+1))
	c.publish(ctx, notify.TableSessions, s.ID)
	return nil
}

// EditPick records a post-hoc correction on a finished game, e.g. fixing a
// misclicked pick after the fact. Allowed to the affected side's captain and
// the session creator.
func (c *Controller) EditPick(ctx context.Context, sessionID uuid.UUID, gameNumber int, side domain.Side, slot int, champion string, a Actor) error {
	s, g, err := c.finishedGame(ctx, sessionID, gameNumber)
	if err != nil {
		return err
	}
	if err := c.requireEditor(s, g, side, a); err != nil {
		return err
	}
	updated, err := engine.EditPick(*g, side, slot, champion)
	if err != nil {
		return err
	}
	err = c.store.Games.Update(ctx, g.ID, store.Changes{
		"edited_picks": updated.EditedPicks,
		"status":       updated.Status,
	}, store.Eq("status", g.Status))
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrStaleAction
	}
	if err != nil {
		return err
	}
	c.publish(ctx, notify.TableGames, sessionID)
	return nil
}

// FinishEditing closes an editing pass and returns the game to completed.
func (c *Controller) FinishEditing(ctx context.Context, sessionID uuid.UUID, gameNumber int, a Actor) error {
	s, g, err := c.finishedGame(ctx, sessionID, gameNumber)
	if err != nil {
		return err
	}
	if err := c.requireAnyCaptainOrCreator(s, a); err != nil {
		return err
	}
	updated, err := engine.FinishEditing(*g)
	if err != nil {
		return err
	}
	err = c.store.Games.Update(ctx, g.ID, store.Changes{"status": updated.Status},
		store.Eq("status", domain.GameEditing))
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrStaleAction
	}
	if err != nil {
		return err
	}
	c.publish(ctx, notify.TableGames, sessionID)
	return nil
}

// SetGameWinner records which side won a finished game.
func (c *Controller) SetGameWinner(ctx context.Context, sessionID uuid.UUID, gameNumber int, winner domain.Side, a Actor) error {
	s, g, err := c.finishedGame(ctx, sessionID, gameNumber)
	if err != nil {
		return err
	}
	if err := c.requireAnyCaptainOrCreator(s, a); err != nil {
		return err
	}
	err = c.store.Games.Update(ctx, g.ID, store.Changes{"winner": winner},
		store.Eq("status", g.Status))
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrStaleAction
	}
	if err != nil {
		return err
	}
	c.publish(ctx, notify.TableGames, sessionID)
	return nil
}

// PauseSession freezes the draft: submissions are rejected until resume.
func (c *Controller) PauseSession(ctx context.Context, sessionID uuid.UUID, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := c.requireAnyCaptainOrCreator(s, a); err != nil {
		return err
	}
	err = c.store.Sessions.Update(ctx, sessionID, store.Changes{"status": domain.SessionPaused},
		store.Eq("status", domain.SessionInProgress))
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrWrongStatus
	}
	if err != nil {
		return err
	}
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

// ResumeSession unfreezes the draft and restarts the current turn's clock so
// the paused time is not charged to the side on turn.
func (c *Controller) ResumeSession(ctx context.Context, sessionID uuid.UUID, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := c.requireAnyCaptainOrCreator(s, a); err != nil {
		return err
	}
	err = c.store.Sessions.Update(ctx, sessionID, store.Changes{"status": domain.SessionInProgress},
		store.Eq("status", domain.SessionPaused))
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrWrongStatus
	}
	if err != nil {
		return err
	}

	if g, err := c.store.Games.GetByNumber(ctx, sessionID, s.CurrentGameNumber); err == nil && g.Status == domain.GameDrafting {
		now := c.clock.Now()
		err := c.store.Games.Update(ctx, g.ID, store.Changes{"turn_started_at": &now},
			store.Eq("status", domain.GameDrafting),
			store.Eq("current_action_index", g.CurrentActionIndex),
		)
		if err != nil && !errors.Is(err, store.ErrConditionFailed) {
			return err
		}
	}
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

// CancelSession abandons the session from any non-terminal state.
func (c *Controller) CancelSession(ctx context.Context, sessionID uuid.UUID, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if !s.Active() {
		return ErrWrongStatus
	}
	if err := c.requireAnyCaptainOrCreator(s, a); err != nil {
		return err
	}
	err = c.store.Sessions.Update(ctx, sessionID, store.Changes{"status": domain.SessionCancelled},
		store.Eq("status", s.Status))
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrWrongStatus
	}
	if err != nil {
		return err
	}
	c.log.Info("session cancelled", zap.String("session_id", sessionID.String()))
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

func (c *Controller) finishedGame(ctx context.Context, sessionID uuid.UUID, gameNumber int) (*domain.Session, *domain.Game, error) {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if s.Status == domain.SessionCancelled {
		return nil, nil, ErrWrongStatus
	}
	g, err := c.store.Games.GetByNumber(ctx, sessionID, gameNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrWrongStatus
	}
	if err != nil {
		return nil, nil, err
	}
	if g.Status != domain.GameCompleted && g.Status != domain.GameEditing {
		return nil, nil, engine.ErrGameNotCompleted
	}
	return s, g, nil
}

func (c *Controller) requireEditor(s *domain.Session, g *domain.Game, side domain.Side, a Actor) error {
	team := g.TeamOnSide(side)
	if identity.IsCaptain(s, team, a.UserID, a.DisplayName) {
		return nil
	}
	if a.UserID != nil && *a.UserID == s.CreatedBy {
		return nil
	}
	return ErrNotCaptain
}

func (c *Controller) requireAnyCaptainOrCreator(s *domain.Session, a Actor) error {
	if identity.IsCaptain(s, domain.Team1, a.UserID, a.DisplayName) ||
		identity.IsCaptain(s, domain.Team2, a.UserID, a.DisplayName) {
		return nil
	}
	if a.UserID != nil && *a.UserID == s.CreatedBy {
		return nil
	}
	return ErrNotCaptain
}

func slotColumn(side domain.Side, action engine.Action) string {
	switch {
	case side == domain.SideBlue && action == engine.ActionBan:
		return "blue_bans"
	case side == domain.SideRed && action == engine.ActionBan:
		return "red_bans"
	case side == domain.SideBlue && action == engine.ActionPick:
		return "blue_picks"
	default:
		return "red_picks"
	}
}

func slotsOf(g *domain.Game, side domain.Side, action engine.Action) domain.ChampionSlots {
	if action == engine.ActionBan {
		return g.Bans(side)
	}
	return g.Picks(side)
}
