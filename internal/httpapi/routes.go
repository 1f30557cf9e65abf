package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// SetupRoutes builds the full router. The websocket handler is passed in so
// this package does not depend on the ws package.
func SetupRoutes(api *API, wsHandler http.HandlerFunc, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-Id", "X-Display-Name"},
		MaxAge:         300,
	}).Handler)

	r.Get("/healthz", api.Healthz)
	r.Get("/ws", wsHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/sessions", api.CreateSession)
		r.Get("/invites/{token}", api.ResolveInvite)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", api.GetSnapshot)
			r.Delete("/", api.DeleteSession)
			r.Get("/role", api.GetRole)

			r.Post("/captains/{team}", api.JoinCaptain)
			r.Delete("/captains/{team}", api.LeaveCaptain)
			r.Post("/captains/{team}/switch", api.SwitchTeam)
			r.Put("/captains/{team}/side", api.SelectSide)
			r.Put("/captains/{team}/ready", api.SetReady)

			r.Post("/start", api.StartSession)
			r.Post("/actions", api.SubmitAction)
			r.Post("/actions/timeout", api.SubmitTimeout)
			r.Post("/pause", api.Pause)
			r.Post("/resume", api.Resume)
			r.Post("/cancel", api.Cancel)

			r.Route("/games/{gameNumber}", func(r chi.Router) {
				r.Post("/edits", api.EditPick)
				r.Post("/finish-editing", api.FinishEditing)
				r.Put("/winner", api.SetWinner)
			})

			r.Post("/spectators", api.JoinSpectator)
			r.Delete("/participants/{participantID}", api.LeaveParticipant)
			r.Post("/participants/{participantID}/heartbeat", api.Heartbeat)

			r.Get("/messages", api.ListMessages)
			r.Post("/messages", api.PostMessage)
		})
	})

	return r
}

func (a *API) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
