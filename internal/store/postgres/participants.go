package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

type participants struct {
	db *gorm.DB
}

func (r *participants) Create(ctx context.Context, p *domain.Participant) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *participants) Get(ctx context.Context, id uuid.UUID) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participants) GetByUser(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Participant, error) {
	var p domain.Participant
	err := r.db.WithContext(ctx).
		First(&p, "session_id = ? AND user_id = ?", sessionID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participants) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error) {
	var ps []domain.Participant
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("joined_at ASC").
		Find(&ps).Error
	if err != nil {
		return nil, err
	}
	return ps, nil
}

func (r *participants) Update(ctx context.Context, id uuid.UUID, changes store.Changes, conds ...store.Cond) error {
	return guardedUpdate(ctx, r.db, &domain.Participant{}, id, changes, conds)
}

func (r *participants) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Participant{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
