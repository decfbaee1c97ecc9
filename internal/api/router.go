package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/insectlab/bugradar/internal/metrics"
	"github.com/insectlab/bugradar/internal/middleware"
	"github.com/insectlab/bugradar/internal/ratelimit"
)

// Deps carries the constructed handlers into the router.
type Deps struct {
	Sessions   *SessionHandler
	Auth       *AuthHandler
	Chat       *ChatHandler
	Live       *LiveHandler
	Recordings *RecordingHandler
	Health     *HealthHandler

	JWT         *middleware.JWTAuth
	ChatLimiter *ratelimit.Limiter // nil disables throttling
}

var chatLimit = ratelimit.LimitConfig{Rate: 10, Window: time.Minute}

// NewRouter wires every endpoint of the browse server. Everything under
// /api/v1 except login requires a valid operator token.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger)
	r.Use(middleware.CORS)

	r.Get("/health", d.Health.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", instrument("/auth/login", d.Auth.Login))

		// Websocket auth rides the query string, not the Authorization
		// header, so it sits outside the JWT middleware.
		r.Get("/live/ws", d.Live.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(d.JWT.Middleware)

			r.Post("/auth/logout", instrument("/auth/logout", d.Auth.Logout))

			r.Get("/sessions", instrument("/sessions", d.Sessions.ListSessions))
			r.Get("/sessions/{id}", instrument("/sessions/{id}", d.Sessions.GetSession))
			r.Get("/sessions/{id}/radar", instrument("/sessions/{id}/radar", d.Sessions.GetRadar))
			r.Get("/sessions/{id}/proportions", instrument("/sessions/{id}/proportions", d.Sessions.GetProportions))
			r.Get("/summary", instrument("/summary", d.Sessions.GetOverallSummary))
			r.Get("/nearest-encounter", instrument("/nearest-encounter", d.Sessions.GetNearestEncounter))

			r.Get("/recordings", instrument("/recordings", d.Recordings.ListRecordings))
			r.Get("/recordings/{name}", instrument("/recordings/{name}", d.Recordings.GetRecording))

			r.Get("/live/latest", instrument("/live/latest", d.Live.Latest))

			r.With(middleware.RateLimit(d.ChatLimiter, "chat", chatLimit)).
				Post("/chat", instrument("/chat", d.Chat.Ask))
		})
	})

	return r
}

func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	wrapped := metrics.Instrument(route, h)
	return wrapped.ServeHTTP
}
