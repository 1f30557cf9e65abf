package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/draftforge/livedraft-backend/internal/domain"
	"github.com/draftforge/livedraft-backend/internal/engine"
	"github.com/draftforge/livedraft-backend/internal/identity"
	"github.com/draftforge/livedraft-backend/internal/lobby"
)

// requireUser insists on an authenticated caller. Most endpoints accept
// anonymous actors; session creation and deletion do not.
func (a *API) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	actor := actorFrom(r)
	if actor.UserID == nil {
		a.writeError(w, r, fmt.Errorf("%w: X-User-Id header required", lobby.ErrInvalid))
		return uuid.Nil, false
	}
	return *actor.UserID, true
}

func (a *API) CreateSession(w http.ResponseWriter, r *http.Request) {
	creator, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	var req createSessionRequest
	if !a.decodeOptional(w, r, &req) {
		return
	}
	s, err := a.ctrl.CreateSession(r.Context(), creator, lobby.CreateSessionParams{
		Team1Name:       req.Team1Name,
		Team2Name:       req.Team2Name,
		DraftMode:       domain.DraftMode(req.DraftMode),
		PlannedGames:    req.PlannedGames,
		PickTimeSeconds: req.PickTimeSeconds,
		BanTimeSeconds:  req.BanTimeSeconds,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, s)
}

func (a *API) ResolveInvite(w http.ResponseWriter, r *http.Request) {
	s, err := a.ctrl.SessionByInviteToken(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, s)
}

func (a *API) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := a.ctrl.Snapshot(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, snap)
}

func (a *API) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	userID, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.DeleteSession(r.Context(), id, userID); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

type roleResponse struct {
	Role identity.Role `json:"role"`
}

func (a *API) GetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	role, err := a.ctrl.Resolve(r.Context(), id, actorFrom(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, roleResponse{Role: role})
}

func (a *API) JoinCaptain(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	team, ok := a.teamParam(w, r)
	if !ok {
		return
	}
	var req joinCaptainRequest
	if !a.decodeOptional(w, r, &req) {
		return
	}
	actor := actorFrom(r)
	if req.DisplayName != "" {
		actor.DisplayName = req.DisplayName
	}
	if err := a.ctrl.JoinAsCaptain(r.Context(), id, team, actor); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) LeaveCaptain(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	team, ok := a.teamParam(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.LeaveCaptainRole(r.Context(), id, team, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) SwitchTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	team, ok := a.teamParam(w, r)
	if !ok {
		return
	}
	var req switchTeamRequest
	if !a.decode(w, r, &req) {
		return
	}
	to, _ := domain.ParseTeam(req.To)
	if to == team {
		a.writeError(w, r, fmt.Errorf("%w: already on %s", lobby.ErrInvalid, team))
		return
	}
	if err := a.ctrl.SwitchTeam(r.Context(), id, team, to, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) SelectSide(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	team, ok := a.teamParam(w, r)
	if !ok {
		return
	}
	var req selectSideRequest
	if !a.decode(w, r, &req) {
		return
	}
	side, _ := domain.ParseSide(req.Side)
	if err := a.ctrl.SelectSide(r.Context(), id, team, side, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) SetReady(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	team, ok := a.teamParam(w, r)
	if !ok {
		return
	}
	var req setReadyRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := a.ctrl.SetReady(r.Context(), id, team, *req.Ready, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) StartSession(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.StartSession(r.Context(), id, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) SubmitAction(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	var req submitActionRequest
	if !a.decode(w, r, &req) {
		return
	}
	g, err := a.ctrl.SubmitAction(r.Context(), id, lobby.SubmitActionParams{
		Side:          domain.Side(req.Side),
		Action:        engine.Action(req.Action),
		Champion:      req.Champion,
		ExpectedIndex: req.ExpectedIndex,
	}, actorFrom(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, g)
}

func (a *API) SubmitTimeout(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	var req timeoutActionRequest
	if !a.decode(w, r, &req) {
		return
	}
	g, err := a.ctrl.SubmitTimeoutAction(r.Context(), id, req.Pool, actorFrom(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, g)
}

func (a *API) gameNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "gameNumber"))
	if err != nil || n < 1 {
		a.writeError(w, r, fmt.Errorf("%w: malformed game number", lobby.ErrInvalid))
		return 0, false
	}
	return n, true
}

func (a *API) EditPick(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	n, ok := a.gameNumber(w, r)
	if !ok {
		return
	}
	var req editPickRequest
	if !a.decode(w, r, &req) {
		return
	}
	side, _ := domain.ParseSide(req.Side)
	if err := a.ctrl.EditPick(r.Context(), id, n, side, req.Slot, req.Champion, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) FinishEditing(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	n, ok := a.gameNumber(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.FinishEditing(r.Context(), id, n, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) SetWinner(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	n, ok := a.gameNumber(w, r)
	if !ok {
		return
	}
	var req setWinnerRequest
	if !a.decode(w, r, &req) {
		return
	}
	side, _ := domain.ParseSide(req.Winner)
	if err := a.ctrl.SetGameWinner(r.Context(), id, n, side, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) Pause(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.PauseSession(r.Context(), id, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) Resume(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.ResumeSession(r.Context(), id, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.CancelSession(r.Context(), id, actorFrom(r)); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) JoinSpectator(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	var req joinSpectatorRequest
	if !a.decodeOptional(w, r, &req) {
		return
	}
	actor := actorFrom(r)
	if req.DisplayName != "" {
		actor.DisplayName = req.DisplayName
	}
	p, err := a.ctrl.JoinSpectator(r.Context(), id, actor)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, p)
}

func (a *API) participantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "participantID"))
	if err != nil {
		a.writeError(w, r, fmt.Errorf("%w: malformed participant id", lobby.ErrInvalid))
		return uuid.Nil, false
	}
	return id, true
}

func (a *API) LeaveParticipant(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	pid, ok := a.participantID(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.LeaveParticipant(r.Context(), id, pid); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) Heartbeat(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	pid, ok := a.participantID(w, r)
	if !ok {
		return
	}
	if err := a.ctrl.Heartbeat(r.Context(), id, pid); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusNoContent, nil)
}

func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			a.writeError(w, r, fmt.Errorf("%w: limit must be 1..500", lobby.ErrInvalid))
			return
		}
		limit = n
	}
	msgs, err := a.ctrl.Messages(r.Context(), id, limit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusOK, msgs)
}

func (a *API) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	var req postMessageRequest
	if !a.decode(w, r, &req) {
		return
	}
	m, err := a.ctrl.PostMessage(r.Context(), id, actorFrom(r), req.Content)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, m)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
