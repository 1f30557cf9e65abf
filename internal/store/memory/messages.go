package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

type messages struct {
	d *data
}

func (r *messages) Create(ctx context.Context, m *domain.Message) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	r.d.messages = append(r.d.messages, m.Clone())
	return nil
}

func (r *messages) ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var ms []domain.Message
	for _, m := range r.d.messages {
		if m.SessionID == sessionID {
			ms = append(ms, m.Clone())
		}
	}
	if limit > 0 && len(ms) > limit {
		ms = ms[len(ms)-limit:]
	}
	return ms, nil
}
