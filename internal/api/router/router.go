package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andesfit/whatsapp-scheduler/internal/http/handlers"
	httpmiddleware "github.com/andesfit/whatsapp-scheduler/internal/http/middleware"
	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	WhatsAppWebhooks   *handlers.WhatsAppWebhookHandler
	AdminBookings      *handlers.AdminBookingsHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints: health, the WhatsApp webhook and metrics.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.WhatsAppWebhooks != nil {
			public.Get("/webhook", cfg.WhatsAppWebhooks.Verify)
			public.Post("/webhook", cfg.WhatsAppWebhooks.Receive)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin endpoints behind JWT auth.
	if cfg.AdminBookings != nil {
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/admin/bookings", cfg.AdminBookings.List)
			admin.Post("/admin/bookings", cfg.AdminBookings.Create)
			admin.Delete("/admin/bookings/{bookingID}", cfg.AdminBookings.Cancel)
			admin.Get("/admin/availability", cfg.AdminBookings.Availability)
		})
	}

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
