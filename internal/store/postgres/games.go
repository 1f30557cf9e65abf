package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

type games struct {
	db *gorm.DB
}

func (r *games) Create(ctx context.Context, g *domain.Game) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(g).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.ErrDuplicate
	}
	return err
}

func (r *games) Get(ctx context.Context, id uuid.UUID) (*domain.Game, error) {
	var g domain.Game
	err := r.db.WithContext(ctx).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *games) GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*domain.Game, error) {
	var g domain.Game
	err := r.db.WithContext(ctx).
		First(&g, "session_id = ? AND game_number = ?", sessionID, number).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *games) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Game, error) {
	var gs []domain.Game
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("game_number ASC").
		Find(&gs).Error
	if err != nil {
		return nil, err
	}
	return gs, nil
}

func (r *games) Update(ctx context.Context, id uuid.UUID, changes store.Changes, conds ...store.Cond) error {
	return guardedUpdate(ctx, r.db, &domain.Game{}, id, changes, conds)
}
