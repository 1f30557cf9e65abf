// Package ws pushes change signals to connected clients. The socket carries
// no draft state: each frame is a notify.Change telling the client which
// table moved, and the client re-fetches the snapshot over HTTP. Mutations
// never travel on the socket.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftforge/livedraft-backend/internal/lobby"
	"github.com/draftforge/livedraft-backend/internal/notify"
)

const (
	writeTimeout = 3 * time.Second

	// Clients must send something (anything) at least this often or the
	// server treats the connection as dead.
	readTimeout = 60 * time.Second
)

func Handler(log *zap.Logger, ctrl *lobby.Controller, notifier notify.Notifier, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuid.Parse(r.URL.Query().Get("session"))
		if err != nil {
			http.Error(w, "missing or malformed session id", http.StatusBadRequest)
			return
		}
		if _, err := ctrl.Session(r.Context(), sessionID); err != nil {
			if errors.Is(err, lobby.ErrSessionNotFound) {
				http.Error(w, "session not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		// Optional: tie the connection to a participant row so presence
		// flips with the socket.
		var participantID uuid.UUID
		if raw := r.URL.Query().Get("participant"); raw != "" {
			participantID, err = uuid.Parse(raw)
			if err != nil {
				http.Error(w, "malformed participant id", http.StatusBadRequest)
				return
			}
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Warn("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusInternalError, "closed")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sub := notifier.Subscribe(sessionID)
		defer notifier.Unsubscribe(sub)

		if participantID != uuid.Nil {
			if err := ctrl.SetConnected(ctx, sessionID, participantID, true); err != nil {
				log.Warn("mark connected failed",
					zap.String("participant_id", participantID.String()),
					zap.Error(err))
			}
			defer func() {
				dctx, dcancel := context.WithTimeout(context.Background(), writeTimeout)
				defer dcancel()
				if err := ctrl.SetConnected(dctx, sessionID, participantID, false); err != nil {
					log.Warn("mark disconnected failed",
						zap.String("participant_id", participantID.String()),
						zap.Error(err))
				}
			}()
		}

		log.Debug("websocket open",
			zap.String("session_id", sessionID.String()),
			zap.String("remote", r.RemoteAddr))

		// Writer: one frame per change signal.
		go func() {
			defer cancel()
			for {
				select {
				case <-ctx.Done():
					return
				case change, ok := <-sub.C():
					if !ok {
						conn.Close(websocket.StatusGoingAway, "shutting down")
						return
					}
					if err := writeChange(ctx, conn, change); err != nil {
						return
					}
				}
			}
		}()

		// Reader: consume keepalives, detect close.
		for {
			rctx, rcancel := context.WithTimeout(ctx, readTimeout)
			_, _, err := conn.Read(rctx)
			rcancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.Error(err))
				}
				conn.Close(websocket.StatusNormalClosure, "bye")
				return
			}
		}
	}
}

// signal is the frame pushed to clients. Type discriminates frame kinds so
// the protocol can grow without breaking readers; today only "Changed" exists.
type signal struct {
	Type      string    `json:"type"`
	Table     string    `json:"table"`
	SessionID uuid.UUID `json:"sessionId"`
}

func writeChange(ctx context.Context, conn *websocket.Conn, change notify.Change) error {
	payload, err := json.Marshal(signal{
		Type:      "Changed",
		Table:     change.Table,
		SessionID: change.SessionID,
	})
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, payload)
}
