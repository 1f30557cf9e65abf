// Package postgres backs the store interfaces with PostgreSQL through GORM.
// Guard conditions compile to WHERE clauses on a single UPDATE, so every
// conditional write is one atomic statement.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/store"
)

// Open connects to the database. TranslateError is on so unique violations
// surface as gorm.ErrDuplicatedKey regardless of driver detail.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// AutoMigrate creates or updates the draft tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Session{},
		&domain.Game{},
		&domain.Participant{},
		&domain.Message{},
	)
}

// New builds a Store over the given connection.
func New(db *gorm.DB) *store.Store {
	return &store.Store{
		Sessions:     &sessions{db: db},
		Games:        &games{db: db},
		Participants: &participants{db: db},
		Messages:     &messages{db: db},
	}
}

func applyConds(tx *gorm.DB, conds []store.Cond) *gorm.DB {
	for _, c := range conds {
		switch {
		case c.Value == nil && c.Op == store.OpEq:
			tx = tx.Where(c.Column + " IS NULL")
		case c.Value == nil && c.Op == store.OpNeq:
			tx = tx.Where(c.Column + " IS NOT NULL")
		default:
			tx = tx.Where(fmt.Sprintf("%s %s ?", c.Column, c.Op), c.Value)
		}
	}
	return tx
}

// guardedUpdate runs a single conditional UPDATE and distinguishes a missing
// row from a failed guard.
func guardedUpdate(ctx context.Context, db *gorm.DB, model any, id uuid.UUID, changes store.Changes, conds []store.Cond) error {
	tx := db.WithContext(ctx).Model(model).Where("id = ?", id)
	res := applyConds(tx, conds).Updates(map[string]any(changes))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var n int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return store.ErrConditionFailed
}
