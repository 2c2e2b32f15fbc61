package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orentclinic/booking-bot/internal/http/handlers"
)

func TestRouterHealth(t *testing.T) {
	r := New(&Config{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouterWebhookRoutes(t *testing.T) {
	r := New(&Config{
		WhatsAppWebhook: handlers.NewWhatsAppWebhookHandler(handlers.WhatsAppWebhookConfig{VerifyToken: "tok"}),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=tok&hub.challenge=c1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", rec.Body.String())
}

func TestRouterAdminRequiresAuth(t *testing.T) {
	r := New(&Config{
		AdminAppointments: handlers.NewAdminAppointmentsHandler(nil, nil),
		AdminAuthSecret:   "secret",
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	r := New(&Config{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
