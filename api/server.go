/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog access log (method, path, status, duration, id)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests from the dashboard

ROUTE GROUPS:
  /api/total_emissions, /api/activity/*   Emissions feed
  /api/offset/*                           Offset planner
  /api/export_offset_report               Document rendering
  /api/scenarios/*                        Demo strategy mixes
  /healthz                                Liveness

Report routes sit behind a per-IP rate limiter.

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/skyzero/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	// ExportLimiter guards report routes; nil disables limiting.
	ExportLimiter *ExportRateLimiter
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	limited := func(r chi.Router) chi.Router {
		if opts.ExportLimiter == nil {
			return r
		}
		return r.With(opts.ExportLimiter.Middleware)
	}

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Emissions feed
		r.Get("/total_emissions", h.GetTotalEmissions)
		r.Put("/activity/{source}", h.UpdateActivity)

		// Document service
		limited(r).Post("/export_offset_report", h.RenderReport)

		// Offset planner
		r.Route("/offset", func(r chi.Router) {
			r.Get("/types", h.ListOffsetTypes)
			r.Get("/summary", h.GetSummary)

			r.Route("/strategies", func(r chi.Router) {
				r.Get("/", h.ListStrategies)
				r.Post("/", h.AddStrategy)
				r.Patch("/{id}", h.UpdateStrategy)
				r.Delete("/{id}", h.RemoveStrategy)
			})

			limited(r).Post("/report", h.ExportReport)
			r.Get("/reports", h.ListReports)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger writes one zerolog line per request.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				event := logger.Info()
				if status >= http.StatusInternalServerError {
					event = logger.Error()
				}
				event.
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("http request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
