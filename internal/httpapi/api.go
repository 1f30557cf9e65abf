// Package httpapi exposes the draft service over JSON HTTP. Mutations all
// flow through here; the websocket layer only pushes change signals. Clients
// identify themselves per request with X-User-Id (set by the identity
// gateway) and X-Display-Name (the device's remembered name).
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/engine"
	"github.com/draftforge/livedraft-backend/internal/lobby"
	"github.com/draftforge/livedraft-backend/internal/store"
)

type API struct {
	ctrl     *lobby.Controller
	log      *zap.Logger
	validate *validator.Validate
}

func NewAPI(ctrl *lobby.Controller, log *zap.Logger) *API {
	return &API{ctrl: ctrl, log: log, validate: validator.New()}
}

func actorFrom(r *http.Request) lobby.Actor {
	a := lobby.Actor{DisplayName: strings.TrimSpace(r.Header.Get("X-Display-Name"))}
	if raw := r.Header.Get("X-User-Id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			a.UserID = &id
		}
	}
	return a
}

func (a *API) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: malformed session id", lobby.ErrInvalid))
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) teamParam(w http.ResponseWriter, r *http.Request) (domain.Team, bool) {
	team, ok := domain.ParseTeam(chi.URLParam(r, "team"))
	if !ok {
		a.writeError(w, r, fmt.Errorf("%w: team must be team1 or team2", lobby.ErrInvalid))
		return "", false
	}
	return team, true
}

// decode parses and validates a JSON body.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: malformed json body", lobby.ErrInvalid))
		return false
	}
	return a.check(w, r, dst)
}

// decodeOptional tolerates an absent body, for endpoints whose body only
// carries optional fields.
func (a *API) decodeOptional(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return a.check(w, r, dst)
	}
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: malformed json body", lobby.ErrInvalid))
		return false
	}
	return a.check(w, r, dst)
}

func (a *API) check(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := a.validate.Struct(dst); err != nil {
		a.writeError(w, r, fmt.Errorf("%w: %v", lobby.ErrInvalid, err))
		return false
	}
	return true
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	if v == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Warn("response encoding failed", zap.Error(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		a.writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	a.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, lobby.ErrSessionNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lobby.ErrNotCaptain), errors.Is(err, lobby.ErrNotCreator):
		return http.StatusForbidden
	case errors.Is(err, lobby.ErrInvalid),
		errors.Is(err, lobby.ErrNameRequired),
		errors.Is(err, engine.ErrChampionRequired),
		errors.Is(err, engine.ErrBadSlot):
		return http.StatusBadRequest
	case errors.Is(err, lobby.ErrSlotTaken),
		errors.Is(err, lobby.ErrSideTaken),
		errors.Is(err, lobby.ErrNoSideChosen),
		errors.Is(err, lobby.ErrStartConditions),
		errors.Is(err, lobby.ErrWrongStatus),
		errors.Is(err, lobby.ErrStaleAction),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, engine.ErrWrongTurn),
		errors.Is(err, engine.ErrSlotFilled),
		errors.Is(err, engine.ErrChampionUnavailable),
		errors.Is(err, engine.ErrGameNotDrafting),
		errors.Is(err, engine.ErrGameNotCompleted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
