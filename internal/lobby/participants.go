package lobby

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/notify"
	"github.com/draftforge/livedraft-backend/internal/store"
)

// JoinSpectator records a view-only participant. Authenticated users are
// deduplicated onto their existing row; anonymous spectators get a fresh row
// whose id becomes their credential for leaving and heartbeats.
func (c *Controller) JoinSpectator(ctx context.Context, sessionID uuid.UUID, a Actor) (*domain.Participant, error) {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !s.Active() {
		return nil, ErrWrongStatus
	}
	if a.DisplayName == "" {
		return nil, ErrNameRequired
	}
	if len(a.DisplayName) > MaxDisplayNameLen {
		return nil, ErrInvalid
	}
	now := c.clock.Now()

	if a.UserID != nil {
		existing, err := c.store.Participants.GetByUser(ctx, sessionID, *a.UserID)
		if err == nil {
			err = c.store.Participants.Update(ctx, existing.ID, store.Changes{
				"display_name": a.DisplayName,
				"is_connected": true,
				"last_seen_at": now,
			})
			if err != nil {
				return nil, err
			}
			c.publish(ctx, notify.TableParticipants, sessionID)
			return c.store.Participants.Get(ctx, existing.ID)
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	p := &domain.Participant{
		SessionID:       sessionID,
		UserID:          a.UserID,
		ParticipantType: domain.ParticipantSpectator,
		DisplayName:     a.DisplayName,
		IsConnected:     true,
		LastSeenAt:      now,
		JoinedAt:        now,
	}
	if err := c.store.Participants.Create(ctx, p); err != nil {
		return nil, err
	}
	c.publish(ctx, notify.TableParticipants, sessionID)
	return p, nil
}

// LeaveParticipant removes a participant row. Knowing the participant id is
// the credential; a single fire-and-forget write as clients navigate away.
func (c *Controller) LeaveParticipant(ctx context.Context, sessionID, participantID uuid.UUID) error {
	p, err := c.store.Participants.Get(ctx, participantID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.SessionID != sessionID {
		return ErrSessionNotFound
	}
	if err := c.store.Participants.Delete(ctx, participantID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	c.publish(ctx, notify.TableParticipants, sessionID)
	return nil
}

// Heartbeat refreshes a participant's liveness. Only a reconnect (the
// connected flag flipping back on) is worth a change signal.
func (c *Controller) Heartbeat(ctx context.Context, sessionID, participantID uuid.UUID) error {
	return c.setConnected(ctx, sessionID, participantID, true)
}

// SetConnected flips a participant's connectivity, used by the push layer on
// socket open and close.
func (c *Controller) SetConnected(ctx context.Context, sessionID, participantID uuid.UUID, connected bool) error {
	return c.setConnected(ctx, sessionID, participantID, connected)
}

func (c *Controller) setConnected(ctx context.Context, sessionID, participantID uuid.UUID, connected bool) error {
	p, err := c.store.Participants.Get(ctx, participantID)
	if err != nil {
		return err
	}
	if p.SessionID != sessionID {
		return ErrSessionNotFound
	}
	err = c.store.Participants.Update(ctx, participantID, store.Changes{
		"is_connected": connected,
		"last_seen_at": c.clock.Now(),
	})
	if err != nil {
		return err
	}
	if p.IsConnected != connected {
		c.log.Debug("participant connectivity changed",
			zap.String("participant_id", participantID.String()),
			zap.Bool("connected", connected))
		c.publish(ctx, notify.TableParticipants, sessionID)
	}
	return nil
}
