// Package store defines the persistence interfaces the draft service is
// written against. Implementations must honor the conditional-update
// contract: an Update with guard conditions either applies atomically while
// every condition still holds, or fails with ErrConditionFailed. That
// contract is what lets the service run without transactions.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("record already exists")
	ErrConditionFailed = errors.New("update condition failed")
)

// Op is a guard comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpNeq Op = "<>"
)

// Cond is one guard condition on an Update, expressed against column names.
// A nil Value means SQL NULL: Eq(col, nil) guards "col IS NULL" and
// Neq(col, nil) guards "col IS NOT NULL".
type Cond struct {
	Column string
	Op     Op
	Value  any
}

func Eq(column string, value any) Cond  { return Cond{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value any) Cond { return Cond{Column: column, Op: OpNeq, Value: value} }

// Changes maps column names to new values for a partial update.
type Changes map[string]any

type Sessions interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	GetByInviteToken(ctx context.Context, token string) (*domain.Session, error)
	Update(ctx context.Context, id uuid.UUID, changes Changes, conds ...Cond) error
	// Delete removes the session and everything hanging off it: games,
	// participants, messages.
	Delete(ctx context.Context, id uuid.UUID) error
}

type Games interface {
	Create(ctx context.Context, g *domain.Game) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Game, error)
	GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*domain.Game, error)
	// ListBySession returns games ordered by game number.
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Game, error)
	Update(ctx context.Context, id uuid.UUID, changes Changes, conds ...Cond) error
}

type Participants interface {
	Create(ctx context.Context, p *domain.Participant) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Participant, error)
	GetByUser(ctx context.Context, sessionID, userID uuid.UUID) (*domain.Participant, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Participant, error)
	Update(ctx context.Context, id uuid.UUID, changes Changes, conds ...Cond) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type Messages interface {
	Create(ctx context.Context, m *domain.Message) error
	// ListBySession returns the most recent `limit` messages in ascending
	// order; limit <= 0 returns everything.
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error)
}

// Store bundles the repositories a service needs.
type Store struct {
	Sessions     Sessions
	Games        Games
	Participants Participants
	Messages     Messages
}
