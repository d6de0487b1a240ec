package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GonzaloEspina/barbatero-landing/internal/http/handlers"
	httpmiddleware "github.com/GonzaloEspina/barbatero-landing/internal/http/middleware"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Availability       *handlers.AvailabilityHandler
	Booking            *handlers.BookingHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	WriteRateLimiter   *httpmiddleware.RateLimiter
	RequestTimeout     time.Duration
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.WriteRateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.WriteRateLimiter))
		}
		if cfg.Availability != nil {
			api.Get("/availability", cfg.Availability.Get)
		}
		if b := cfg.Booking; b != nil {
			api.Get("/clients", b.FindClient)
			api.Post("/clients", b.CreateClient)
			api.Get("/services", b.ListServices)
			api.Post("/appointments", b.CreateAppointment)
			api.Get("/appointments/{id}", b.GetAppointment)
			api.Post("/appointments/{id}/cancel", b.CancelAppointment)
			api.Post("/appointments/{id}/confirm", b.ConfirmAppointment)
			api.Post("/memberships", b.ReserveMembership)
		}
	})

	return r
}
