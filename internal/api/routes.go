// Package api exposes the engine over a JSON HTTP interface.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"championship-engine/internal/engine"
	"championship-engine/internal/observability"
)

// NewRouter builds the HTTP handler for the engine API, /health and /metrics.
func NewRouter(eng *engine.Engine, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = observability.Discard()
	}
	h := NewHandlers(eng, logger)

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Recoverer,
		requestLogger(logger),
	)

	r.Get("/health", h.Health)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/championships/{id}", func(r chi.Router) {
			r.Get("/standings", h.GetStandings)
			r.Get("/standings/breakdown", h.GetBreakdown)
			r.Get("/driver-standings", h.GetDriverStandings)
			r.Get("/dsq-audit", h.VerifyDSQ)
			r.Post("/dsq-audit/repair", h.RepairDSQ)
		})

		r.Route("/races/{id}", func(r chi.Router) {
			r.Get("/results", h.ListRaceResults)
			r.Post("/results", h.CreateResult)
			r.Get("/penalties", h.ListRacePenalties)
			r.Post("/penalties", h.CreatePenalty)
		})

		r.Route("/results/{id}", func(r chi.Router) {
			r.Get("/", h.GetResult)
			r.Patch("/", h.UpdateResult)
			r.Delete("/", h.DeleteResult)
		})

		r.Route("/penalties/{id}", func(r chi.Router) {
			r.Get("/", h.GetPenalty)
			r.Patch("/", h.UpdatePenalty)
			r.Delete("/", h.DeletePenalty)
		})
	})

	return r
}

// requestLogger logs each request and counts it by route pattern.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			observability.RecordHTTPRequest(route, status)

			logger.Debug("http_request",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
