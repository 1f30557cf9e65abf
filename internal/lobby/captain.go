package lobby

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/identity"
	"github.com/draftforge/livedraft-backend/internal/notify"
	"github.com/draftforge/livedraft-backend/internal/store"
)

// JoinAsCaptain claims a team's captain slot. The claim is a conditional
// write guarded on the slot being empty, so two racing claimers cannot both
// win; the loser gets ErrSlotTaken. Joining the slot you already hold is a
// no-op.
func (c *Controller) JoinAsCaptain(ctx context.Context, sessionID uuid.UUID, team domain.Team, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if !s.Active() {
		return ErrWrongStatus
	}
	if a.UserID == nil && a.DisplayName == "" {
		return ErrNameRequired
	}
	if len(a.DisplayName) > MaxDisplayNameLen {
		return ErrInvalid
	}
	if identity.IsCaptain(s, team, a.UserID, a.DisplayName) {
		return nil
	}

	changes := store.Changes{
		captainIDColumn(team):   a.UserID,
		captainNameColumn(team): "",
	}
	if a.UserID == nil {
		changes[captainNameColumn(team)] = a.DisplayName
	}
	err = c.store.Sessions.Update(ctx, sessionID, changes,
		store.Eq(captainIDColumn(team), nil),
		store.Eq(captainNameColumn(team), ""),
	)
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrSlotTaken
	}
	if err != nil {
		return err
	}

	if err := c.upsertCaptainParticipant(ctx, s, team, a); err != nil {
		c.log.Warn("captain participant row not recorded", zap.Error(err))
	}
	c.log.Info("captain joined",
		zap.String("session_id", sessionID.String()),
		zap.String("team", string(team)))
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

// LeaveCaptainRole releases a captain slot. The team's side choice survives
// for a replacement captain; readiness does not.
func (c *Controller) LeaveCaptainRole(ctx context.Context, sessionID uuid.UUID, team domain.Team, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if !identity.IsCaptain(s, team, a.UserID, a.DisplayName) {
		return ErrNotCaptain
	}

	var guard store.Cond
	if id := s.CaptainID(team); id != nil {
		guard = store.Eq(captainIDColumn(team), *id)
	} else {
		guard = store.Eq(captainNameColumn(team), s.CaptainName(team))
	}
	err = c.store.Sessions.Update(ctx, sessionID, store.Changes{
		captainIDColumn(team):   nil,
		captainNameColumn(team): "",
		readyColumn(team):       false,
	}, guard)
	if errors.Is(err, store.ErrConditionFailed) {
		return ErrNotCaptain
	}
	if err != nil {
		return err
	}

	if p := c.findCaptainParticipant(ctx, s, a); p != nil {
		if err := c.store.Participants.Delete(ctx, p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			c.log.Warn("captain participant row not removed", zap.Error(err))
		}
		c.publish(ctx, notify.TableParticipants, sessionID)
	}
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

// SwitchTeam moves a captain to the other team slot as a leave followed by a
// join, with no rollback: if the target slot is taken the caller ends up
// captaining neither team and hears ErrSlotTaken.
func (c *Controller) SwitchTeam(ctx context.Context, sessionID uuid.UUID, from, to domain.Team, a Actor) error {
	if from == to {
		return nil
	}
	if err := c.LeaveCaptainRole(ctx, sessionID, from, a); err != nil {
		return err
	}
	return c.JoinAsCaptain(ctx, sessionID, to, a)
}

// SelectSide assigns the team's map side for game one. Guarded on the other
// team not holding that side. Changing side clears the team's readiness.
func (c *Controller) SelectSide(ctx context.Context, sessionID uuid.UUID, team domain.Team, side domain.Side, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Status != domain.SessionLobby {
		return ErrWrongStatus
	}
	if !identity.IsCaptain(s, team, a.UserID, a.DisplayName) {
		return ErrNotCaptain
	}
	if s.SideOf(team) == side {
		return nil
	}

	err = c.store.Sessions.Update(ctx, sessionID, store.Changes{
		sideColumn(team):  side,
		readyColumn(team): false,
	},
		store.Eq("status", domain.SessionLobby),
		store.Neq(sideColumn(team.Other()), side),
	)
	if errors.Is(err, store.ErrConditionFailed) {
		return c.explainSideFailure(ctx, sessionID, team, side)
	}
	if err != nil {
		return err
	}

	if p := c.findCaptainParticipant(ctx, s, a); p != nil {
		if err := c.store.Participants.Update(ctx, p.ID, store.Changes{"team": side}); err != nil {
			c.log.Warn("captain participant side not updated", zap.Error(err))
		}
		c.publish(ctx, notify.TableParticipants, sessionID)
	}
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

func (c *Controller) explainSideFailure(ctx context.Context, sessionID uuid.UUID, team domain.Team, side domain.Side) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.SideOf(team.Other()) == side {
		return ErrSideTaken
	}
	return ErrWrongStatus
}

// SetReady flips the team's ready flag. Requires a chosen side; setting the
// flag to its current value is a no-op.
func (c *Controller) SetReady(ctx context.Context, sessionID uuid.UUID, team domain.Team, ready bool, a Actor) error {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Status != domain.SessionLobby {
		return ErrWrongStatus
	}
	if !identity.IsCaptain(s, team, a.UserID, a.DisplayName) {
		return ErrNotCaptain
	}
	if s.SideOf(team) == "" {
		return ErrNoSideChosen
	}
	if s.ReadyOf(team) == ready {
		return nil
	}

	err = c.store.Sessions.Update(ctx, sessionID, store.Changes{readyColumn(team): ready},
		store.Eq("status", domain.SessionLobby),
		store.Neq(sideColumn(team), ""),
	)
	if errors.Is(err, store.ErrConditionFailed) {
		s, err := c.session(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.SideOf(team) == "" {
			return ErrNoSideChosen
		}
		return ErrWrongStatus
	}
	if err != nil {
		return err
	}
	c.publish(ctx, notify.TableSessions, sessionID)
	return nil
}

func (c *Controller) upsertCaptainParticipant(ctx context.Context, s *domain.Session, team domain.Team, a Actor) error {
	var side *domain.Side
	if chosen := s.SideOf(team); chosen != "" {
		side = &chosen
	}
	name := a.DisplayName
	if name == "" {
		name = s.TeamName(team) + " captain"
	}
	now := c.clock.Now()

	if a.UserID != nil {
		existing, err := c.store.Participants.GetByUser(ctx, s.ID, *a.UserID)
		if err == nil {
			err = c.store.Participants.Update(ctx, existing.ID, store.Changes{
				"participant_type": domain.ParticipantController,
				"team":             side,
				"display_name":     name,
				"is_captain":       true,
				"is_connected":     true,
				"last_seen_at":     now,
			})
			if err != nil {
				return err
			}
			c.publish(ctx, notify.TableParticipants, s.ID)
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	err := c.store.Participants.Create(ctx, &domain.Participant{
		SessionID:       s.ID,
		UserID:          a.UserID,
		ParticipantType: domain.ParticipantController,
		Team:            side,
		DisplayName:     name,
		IsConnected:     true,
		IsCaptain:       true,
		LastSeenAt:      now,
		JoinedAt:        now,
	})
	if err != nil {
		return err
	}
	c.publish(ctx, notify.TableParticipants, s.ID)
	return nil
}

// findCaptainParticipant locates the actor's controller row, by user id when
// authenticated or by display name otherwise. Nil when none exists.
func (c *Controller) findCaptainParticipant(ctx context.Context, s *domain.Session, a Actor) *domain.Participant {
	if a.UserID != nil {
		p, err := c.store.Participants.GetByUser(ctx, s.ID, *a.UserID)
		if err != nil {
			return nil
		}
		return p
	}
	if a.DisplayName == "" {
		return nil
	}
	participants, err := c.store.Participants.ListBySession(ctx, s.ID)
	if err != nil {
		return nil
	}
	for i := range participants {
		p := &participants[i]
		if p.ParticipantType == domain.ParticipantController && p.UserID == nil && p.DisplayName == a.DisplayName {
			return p
		}
	}
	return nil
}
