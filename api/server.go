/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, echoed in the access log
  2. RealIP:     Client address behind a proxy
  3. Logger:     Structured access log through logrus
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for a browser client

ROUTE GROUPS:
  /api/days/*           Punches, day context, classification
  /api/punches/*        Punch removal
  /api/overtime/*       Overtime removal
  /api/ledger/*         Yearly balances
  /api/settings         Work settings
  /api/benefit-codes    Catalog
  /api/scenarios/*      Demo data
  /metrics              Prometheus scrape endpoint (when a gatherer is given)
  /healthz              Liveness

SECURITY NOTE:
  No authentication middleware. Run behind a gateway that provides it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/warp/attendance-engine/metrics"
)

// NewRouter creates a new router with all routes configured. A nil gatherer
// leaves /metrics unmounted.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)
	if gatherer != nil {
		r.Handle("/metrics", metrics.Handler(gatherer))
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Day routes
		r.Route("/days", func(r chi.Router) {
			r.Get("/", h.ListDays)
			r.Get("/{date}", h.GetDay)
			r.Post("/{date}/punches", h.CreatePunch)
			r.Put("/{date}/info", h.PutDayInfo)
			r.Post("/{date}/overtime", h.CreateOvertime)
		})

		r.Delete("/punches/{id}", h.DeletePunch)
		r.Delete("/overtime/{id}", h.DeleteOvertime)

		r.Get("/ledger/{year}", h.GetLedger)

		// Configuration routes
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.PutSettings)
		r.Route("/benefit-codes", func(r chi.Router) {
			r.Get("/", h.ListCodes)
			r.Post("/", h.SaveCode)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// requestLogger writes one access-log entry per request.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"remote":     r.RemoteAddr,
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Info("request")
		})
	}
}
