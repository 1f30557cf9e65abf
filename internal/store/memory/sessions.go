package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

type sessions struct {
	d *data
}

func (r *sessions) Create(ctx context.Context, s *domain.Session) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if _, ok := r.d.sessions[s.ID]; ok {
		return store.ErrDuplicate
	}
	for _, existing := range r.d.sessions {
		if existing.InviteToken == s.InviteToken {
			return store.ErrDuplicate
		}
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	r.d.sessions[s.ID] = s.Clone()
	return nil
}

func (r *sessions) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	s, ok := r.d.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := s.Clone()
	return &out, nil
}

func (r *sessions) GetByInviteToken(ctx context.Context, token string) (*domain.Session, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, s := range r.d.sessions {
		if s.InviteToken == token {
			out := s.Clone()
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *sessions) Update(ctx context.Context, id uuid.UUID, changes store.Changes, conds ...store.Cond) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	s, ok := r.d.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := checkConds(conds, func(col string) (any, bool) { return sessionColumn(&s, col) }); err != nil {
		return err
	}
	for col, v := range changes {
		if err := applySessionChange(&s, col, v); err != nil {
			return err
		}
	}
	s.UpdatedAt = time.Now()
	r.d.sessions[id] = s
	return nil
}

func (r *sessions) Delete(ctx context.Context, id uuid.UUID) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if _, ok := r.d.sessions[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.d.sessions, id)
	for gid, g := range r.d.games {
		if g.SessionID == id {
			delete(r.d.games, gid)
		}
	}
	for pid, p := range r.d.participants {
		if p.SessionID == id {
			delete(r.d.participants, pid)
		}
	}
	kept := r.d.messages[:0]
	for _, m := range r.d.messages {
		if m.SessionID != id {
			kept = append(kept, m)
		}
	}
	r.d.messages = kept
	return nil
}

func sessionColumn(s *domain.Session, col string) (any, bool) {
	switch col {
	case "status":
		return s.Status, true
	case "invite_token":
		return s.InviteToken, true
	case "team1_captain_id":
		return s.Team1CaptainID, true
	case "team2_captain_id":
		return s.Team2CaptainID, true
	case "team1_captain_name":
		return s.Team1CaptainName, true
	case "team2_captain_name":
		return s.Team2CaptainName, true
	case "team1_side":
		return s.Team1Side, true
	case "team2_side":
		return s.Team2Side, true
	case "team1_ready":
		return s.Team1Ready, true
	case "team2_ready":
		return s.Team2Ready, true
	case "current_game_number":
		return s.CurrentGameNumber, true
	case "created_by":
		return s.CreatedBy, true
	}
	return nil, false
}

func applySessionChange(s *domain.Session, col string, v any) error {
	switch col {
	case "team1_name":
		s.Team1Name = asString(v)
	case "team2_name":
		s.Team2Name = asString(v)
	case "team1_captain_id":
		s.Team1CaptainID = asUUIDPtr(v)
	case "team2_captain_id":
		s.Team2CaptainID = asUUIDPtr(v)
	case "team1_captain_name":
		s.Team1CaptainName = asString(v)
	case "team2_captain_name":
		s.Team2CaptainName = asString(v)
	case "team1_side":
		s.Team1Side = domain.Side(asString(v))
	case "team2_side":
		s.Team2Side = domain.Side(asString(v))
	case "team1_ready":
		s.Team1Ready = asBool(v)
	case "team2_ready":
		s.Team2Ready = asBool(v)
	case "status":
		s.Status = domain.SessionStatus(asString(v))
	case "current_game_number":
		s.CurrentGameNumber = asInt(v)
	case "started_at":
		s.StartedAt = asTimePtr(v)
	case "completed_at":
		s.CompletedAt = asTimePtr(v)
	default:
		return fmt.Errorf("memory: unknown session column %q", col)
	}
	return nil
}
