package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orentclinic/booking-bot/internal/booking"
)

func TestWhatsAppSenderTextPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWhatsAppSender("token-abc", "12345", nil).WithBaseURL(server.URL)
	err := sender.Send(context.Background(), booking.OutboundMessage{To: "919876543210", Body: "hello"})
	require.NoError(t, err)

	assert.Equal(t, "whatsapp", captured["messaging_product"])
	assert.Equal(t, "text", captured["type"])
	assert.Equal(t, "919876543210", captured["to"])
	text := captured["text"].(map[string]any)
	assert.Equal(t, "hello", text["body"])
}

func TestWhatsAppSenderInteractivePayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWhatsAppSender("token-abc", "12345", nil).WithBaseURL(server.URL)
	err := sender.Send(context.Background(), booking.OutboundMessage{
		To:   "919876543210",
		Body: "Pick a department",
		Buttons: []booking.Button{
			{ID: "1", Title: "Orthopedics"},
			{ID: "2", Title: "ENT"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "interactive", captured["type"])
	interactive := captured["interactive"].(map[string]any)
	assert.Equal(t, "button", interactive["type"])
	action := interactive["action"].(map[string]any)
	buttons := action["buttons"].([]any)
	require.Len(t, buttons, 2)
	first := buttons[0].(map[string]any)
	assert.Equal(t, "reply", first["type"])
	reply := first["reply"].(map[string]any)
	assert.Equal(t, "Orthopedics", reply["title"])
}

func TestWhatsAppSenderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewWhatsAppSender("token-abc", "12345", nil).WithBaseURL(server.URL)
	err := sender.Send(context.Background(), booking.OutboundMessage{To: "919876543210", Body: "hello"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWhatsAppSenderDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	sender := NewWhatsAppSender("token-abc", "12345", nil).WithBaseURL(server.URL)
	err := sender.Send(context.Background(), booking.OutboundMessage{To: "919876543210", Body: "hello"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWhatsAppSenderValidation(t *testing.T) {
	sender := NewWhatsAppSender("", "12345", nil)
	err := sender.Send(context.Background(), booking.OutboundMessage{To: "1", Body: "x"})
	assert.ErrorContains(t, err, "access token")

	sender = NewWhatsAppSender("token", "12345", nil)
	err = sender.Send(context.Background(), booking.OutboundMessage{Body: "x"})
	assert.ErrorContains(t, err, "to required")

	err = sender.Send(context.Background(), booking.OutboundMessage{To: "1", Body: "  "})
	assert.ErrorContains(t, err, "body required")
}
