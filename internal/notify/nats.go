package notify

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const natsSubjectPrefix = "livedraft.changes."

// NATSNotifier relays change signals over NATS, one subject per session.
// Like the postgres notifier, local delivery goes through the broker so
// every node behaves identically.
type NATSNotifier struct {
	nc  *nats.Conn
	sub *nats.Subscription
	hub *Hub
	log *zap.Logger
}

func NewNATS(nc *nats.Conn, log *zap.Logger) (*NATSNotifier, error) {
	n := &NATSNotifier{nc: nc, hub: NewHub(), log: log}
	sub, err := nc.Subscribe(natsSubjectPrefix+"*", n.onMessage)
	if err != nil {
		return nil, err
	}
	n.sub = sub
	return n, nil
}

func (n *NATSNotifier) onMessage(m *nats.Msg) {
	var c Change
	if err := json.Unmarshal(m.Data, &c); err != nil {
		n.log.Warn("discarding malformed notification", zap.Error(err))
		return
	}
	_ = n.hub.Publish(context.Background(), c)
}

func (n *NATSNotifier) Publish(ctx context.Context, c Change) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return n.nc.Publish(natsSubjectPrefix+c.SessionID.String(), payload)
}

func (n *NATSNotifier) Subscribe(sessionID uuid.UUID) *Subscription {
	return n.hub.Subscribe(sessionID)
}

func (n *NATSNotifier) Unsubscribe(sub *Subscription) {
	n.hub.Unsubscribe(sub)
}

// Close stops relaying and shuts local subscriptions down.
func (n *NATSNotifier) Close() {
	if err := n.sub.Unsubscribe(); err != nil {
		n.log.Warn("nats unsubscribe", zap.Error(err))
	}
	n.hub.Close()
}
