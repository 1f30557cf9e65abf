package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// keepAliveInterval keeps the server's idle timer from expiring. The server
// drops connections that send nothing for 60 seconds.
const keepAliveInterval = 25 * time.Second

// SignalStream is a live subscription to one session's change signals.
// Signals carry no payload; receive one, then call Snapshot to catch up.
// Delivery is at-least-once and unordered, and signals are dropped rather
// than buffered when the consumer falls behind, so treat each one as "the
// named table changed at least once".
type SignalStream struct {
	conn   *websocket.Conn
	ch     chan Change
	cancel context.CancelFunc

	done chan struct{}
	err  error
}

// Signals opens the stream for sessionID. Pass a participant ID to have the
// service flip that row's connected flag for the lifetime of the stream, or
// uuid.Nil to watch anonymously. The stream ends when ctx is cancelled,
// Close is called, or the connection drops.
func (c *Client) Signals(ctx context.Context, sessionID, participantID uuid.UUID) (*SignalStream, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("session", sessionID.String())
	if participantID != uuid.Nil {
		q.Set("participant", participantID.String())
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), &websocket.DialOptions{
		HTTPClient: c.http,
	})
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &SignalStream{
		conn:   conn,
		ch:     make(chan Change, 8),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.read(sctx)
	go s.keepAlive(sctx)
	return s, nil
}

// C delivers change signals. It is closed when the stream ends; check Err
// afterwards to distinguish a clean close from a failure.
func (s *SignalStream) C() <-chan Change {
	return s.ch
}

// Err reports why the stream ended. It is only meaningful after C is closed
// and returns nil for a deliberate close.
func (s *SignalStream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close performs the close handshake and ends the stream. The handshake
// comes first so the reader sees a normal closure rather than a cancelled
// context.
func (s *SignalStream) Close() error {
	err := s.conn.Close(websocket.StatusNormalClosure, "")
	s.cancel()
	<-s.done
	if err != nil && errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *SignalStream) read(ctx context.Context) {
	defer close(s.ch)
	defer close(s.done)
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				s.err = err
			}
			return
		}
		var frame struct {
			Type      string    `json:"type"`
			Table     string    `json:"table"`
			SessionID uuid.UUID `json:"sessionId"`
		}
		if err := json.Unmarshal(data, &frame); err != nil || frame.Type != "Changed" {
			// Unknown frame kinds are skipped so old clients survive
			// protocol additions.
			continue
		}
		select {
		case s.ch <- Change{Table: frame.Table, SessionID: frame.SessionID}:
		case <-ctx.Done():
			return
		}
	}
}

// keepAlive writes small data frames on an interval. The server only counts
// data frames against its idle timer, so websocket-level pings are not
// enough.
func (s *SignalStream) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.Write(ctx, websocket.MessageText, []byte(`{"type":"KeepAlive"}`)); err != nil {
				return
			}
		}
	}
}
