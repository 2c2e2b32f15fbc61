package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orentclinic/booking-bot/internal/http/handlers"
	httpmiddleware "github.com/orentclinic/booking-bot/internal/http/middleware"
	"github.com/orentclinic/booking-bot/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger            *logging.Logger
	WhatsAppWebhook   *handlers.WhatsAppWebhookHandler
	AdminAppointments *handlers.AdminAppointmentsHandler
	AdminAuthSecret   string
	MetricsHandler    http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if cfg.WhatsAppWebhook != nil {
		r.Get("/webhooks/whatsapp", cfg.WhatsAppWebhook.Verify)
		r.Post("/webhooks/whatsapp", cfg.WhatsAppWebhook.Receive)
	}

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.AdminAppointments != nil {
		r.Route("/appointments", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminAuth(cfg.AdminAuthSecret, cfg.Logger))
			admin.Post("/", cfg.AdminAppointments.Create)
			admin.Get("/", cfg.AdminAppointments.List)
			admin.Get("/{id}", cfg.AdminAppointments.Get)
			admin.Put("/{id}", cfg.AdminAppointments.Update)
			admin.Delete("/{id}", cfg.AdminAppointments.Delete)
		})
	}

	return r
}
