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

type games struct {
	d *data
}

func (r *games) Create(ctx context.Context, g *domain.Game) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	for _, existing := range r.d.games {
		if existing.SessionID == g.SessionID && existing.GameNumber == g.GameNumber {
			return store.ErrDuplicate
		}
	}
	now := time.Now()
	if g.CreatedAt.IsZero() {
		g.CreatedAt = now
	}
	g.UpdatedAt = now
	r.d.games[g.ID] = g.Clone()
	return nil
}

func (r *games) Get(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	g, ok := r.d.games[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := g.Clone()
	return &out, nil
}

func (r *games) GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*domain.Game, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, g := range r.d.games {
		if g.SessionID == sessionID && g.GameNumber == number {
			out := g.Clone()
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *games) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Game, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var gs []domain.Game
	for _, g := range r.d.games {
		if g.SessionID == sessionID {
			gs = append(gs, g.Clone())
		}
	}
	sort.Slice(gs, func(i, j int) bool { return gs[i].GameNumber < gs[j].GameNumber })
	return gs, nil
}

func (r *games) Update(ctx context.Context, id uuid.UUID, changes store.Changes, conds ...store.Cond) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	g, ok := r.d.games[id]
	if !ok {
		return store.ErrNotFound
	}
	if err := checkConds(conds, func(col string) (any, bool) { return gameColumn(&g, col) }); err != nil {
		return err
	}
	for col, v := range changes {
		if err := applyGameChange(&g, col, v); err != nil {
			return err
		}
	}
	g.UpdatedAt = time.Now()
	r.d.games[id] = g
	return nil
}

func gameColumn(g *domain.Game, col string) (any, bool) {
	switch col {
	case "status":
		return g.Status, true
	case "current_action_index":
		return g.CurrentActionIndex, true
	case "game_number":
		return g.GameNumber, true
	case "winner":
		return g.Winner, true
	}
	return nil, false
}

func applyGameChange(g *domain.Game, col string, v any) error {
	switch col {
	case "status":
		g.Status = domain.GameStatus(asString(v))
	case "current_phase":
		g.CurrentPhase = asPhasePtr(v)
	case "current_turn":
		g.CurrentTurn = asSidePtr(v)
	case "current_action_index":
		g.CurrentActionIndex = asInt(v)
	case "turn_started_at":
		g.TurnStartedAt = asTimePtr(v)
	case "started_at":
		g.StartedAt = asTimePtr(v)
	case "completed_at":
		g.CompletedAt = asTimePtr(v)
	case "blue_bans":
		g.BlueBans = cloneSlots(v.(domain.ChampionSlots))
	case "red_bans":
		g.RedBans = cloneSlots(v.(domain.ChampionSlots))
	case "blue_picks":
		g.BluePicks = cloneSlots(v.(domain.ChampionSlots))
	case "red_picks":
		g.RedPicks = cloneSlots(v.(domain.ChampionSlots))
	case "edited_picks":
		g.EditedPicks = cloneEdits(v.(domain.EditedPicks))
	case "winner":
		g.Winner = asSidePtr(v)
	default:
		return fmt.Errorf("memory: unknown game column %q", col)
	}
	return nil
}
