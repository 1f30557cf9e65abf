package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	pgChannel        = "live_draft_changes"
	pgReconnectDelay = 2 * time.Second
)

// PostgresNotifier relays change signals through pg_notify so multiple
// service nodes sharing one database see each other's writes. Signals reach
// local subscribers only through the LISTEN loop; publishing and receiving
// are the same path whether the write happened here or on another node.
type PostgresNotifier struct {
	pool *pgxpool.Pool
	hub  *Hub
	log  *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, log *zap.Logger) *PostgresNotifier {
	return &PostgresNotifier{pool: pool, hub: NewHub(), log: log}
}

func (n *PostgresNotifier) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = n.pool.Exec(ctx, "SELECT pg_notify($1, $2)", pgChannel, string(payload))
	return err
}

func (n *PostgresNotifier) Subscribe(sessionID uuid.UUID) *Subscription {
	return n.hub.Subscribe(sessionID)
}

func (n *PostgresNotifier) Unsubscribe(sub *Subscription) {
	n.hub.Unsubscribe(sub)
}

// Run holds a LISTEN connection open and fans incoming notifications out to
// local subscribers, reconnecting until ctx is cancelled.
func (n *PostgresNotifier) Run(ctx context.Context) error {
	for {
		err := n.listen(ctx)
		if ctx.Err() != nil {
			n.hub.Close()
			return nil
		}
		n.log.Warn("notification listener dropped, reconnecting",
			zap.Error(err),
			zap.Duration("delay", pgReconnectDelay))
		select {
		case <-ctx.Done():
			n.hub.Close()
			return nil
		case <-time.After(pgReconnectDelay):
		}
	}
}

func (n *PostgresNotifier) listen(ctx context.Context) error {
	conn, err := n.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()
	if _, err := conn.Exec(ctx, "LISTEN "+pgChannel); err != nil {
		return err
	}
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var c Change
		if err := json.Unmarshal([]byte(notification.Payload), &c); err != nil {
			n.log.Warn("discarding malformed notification", zap.Error(err))
			continue
		}
		_ = n.hub.Publish(ctx, c)
	}
}
