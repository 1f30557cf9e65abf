package lobby

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/notify"
)

// PostMessage appends a chat line. Messages are append-only; there is no
// edit or delete. New messages announce themselves through the same change
// signal as everything else.
func (c *Controller) PostMessage(ctx context.Context, sessionID uuid.UUID, a Actor, content string) (*domain.Message, error) {
	s, err := c.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status == domain.SessionCancelled {
		return nil, ErrWrongStatus
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: empty message", ErrInvalid)
	}
	if len(content) > domain.MaxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalid, domain.MaxMessageLength)
	}
	if a.DisplayName == "" {
		return nil, ErrNameRequired
	}

	m := &domain.Message{
		SessionID:   sessionID,
		UserID:      a.UserID,
		DisplayName: a.DisplayName,
		Content:     content,
		CreatedAt:   c.clock.Now(),
	}
	if err := c.store.Messages.Create(ctx, m); err != nil {
		return nil, err
	}
	c.publish(ctx, notify.TableMessages, sessionID)
	return m, nil
}

// Messages returns up to limit recent chat lines in chronological order.
func (c *Controller) Messages(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error) {
	if _, err := c.session(ctx, sessionID); err != nil {
		return nil, err
	}
	return c.store.Messages.ListBySession(ctx, sessionID, limit)
}
