package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

type participants struct {
	d *data
}

func (r *participants) Create(ctx context.Context, p *domain.Participant) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	if p.JoinedAt.IsZero() {
		p.JoinedAt = now
	}
	if p.LastSeenAt.IsZero() {
		p.LastSeenAt = now
	}
	r.d.participants[p.ID] = p.Clone()
	return nil
}

func (r *participants) Get(ctx context.Context, id uuid.UUID) (*domain.Participant, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	p, ok := r.d.participants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := p.Clone()
	return &out, nil
}

func (r *participants) GetByUser(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Participant, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, p := range r.d.participants {
		if p.SessionID == sessionID && p.UserID != nil && *p.UserID == userID {
			out := p.Clone()
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *participants) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var ps []domain.Participant
	for _, p := range r.d.participants {
		if p.SessionID == sessionID {
			ps = append(ps, p.Clone())
		}
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].JoinedAt.Before(ps[j].JoinedAt) })
	return ps, nil
}

func (r *participants) Update(ctx context.Context, id uuid.UUID, changes store.Changes, conds ...store.Cond) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	p, ok := r.d.participants[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := checkConds(conds, func(col string) (any, bool) { return participantColumn(&p, col) }); err != nil {
		return err
	}
	for col, v := range changes {
		if err := applyParticipantChange(&p, col, v); err != nil {
			return err
		}
	}
	r.d.participants[id] = p
	return nil
}

func (r *participants) Delete(ctx context.Context, id uuid.UUID) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.participants[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.d.participants, id)
	return nil
}

func participantColumn(p *domain.Participant, col string) (any, bool) {
	switch col {
	case "participant_type":
		return p.ParticipantType, true
	case "is_connected":
		return p.IsConnected, true
	case "is_captain":
		return p.IsCaptain, true
	case "session_id":
		return p.SessionID, true
	}
	return nil, false
}

func applyParticipantChange(p *domain.Participant, col string, v any) error {
	switch col {
	case "user_id":
		p.UserID = asUUIDPtr(v)
	case "participant_type":
		p.ParticipantType = domain.ParticipantType(asString(v))
	case "team":
		p.Team = asSidePtr(v)
	case "display_name":
		p.DisplayName = asString(v)
	case "is_connected":
		p.IsConnected = asBool(v)
	case "last_seen_at":
		p.LastSeenAt = asTime(v)
	case "is_captain":
		p.IsCaptain = asBool(v)
	default:
		return fmt.Errorf("memory: unknown participant column %q", col)
	}
	return nil
}
