package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-event-notifier/internal/config"
	"github.com/go-event-notifier/internal/transport/http/handler"
	appmiddleware "github.com/go-event-notifier/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	if cfg.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// A run scans every user; keep triggers rare per caller.
	triggerRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.Trigger.RatePerSecond), cfg.Trigger.Burst)

	healthH := handler.NewHealthHandler()
	runH := handler.NewRunHandler(deps.Notifier, deps.Location, deps.Logger)
	districtH := handler.NewDistrictHandler(deps.Notifier)
	notifH := handler.NewNotificationHandler(deps.Notifier)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.With(triggerRL.Limit).Post("/event-notifications/run", runH.Trigger)
		r.Get("/districts", districtH.List)
		r.Get("/users/{id}/notifications", notifH.ListForUser)
	})

	return r
}
