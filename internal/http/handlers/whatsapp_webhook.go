package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/orentclinic/booking-bot/internal/observability/metrics"
	"github.com/orentclinic/booking-bot/pkg/logging"
)

const maxWebhookBody = 1 << 20

// MessageHandler consumes one inbound user message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, userID, text string)
}

// WhatsAppWebhookConfig collects the collaborators for the webhook handler.
type WhatsAppWebhookConfig struct {
	Flow        MessageHandler
	VerifyToken string
	AppSecret   string
	Logger      *logging.Logger
	Metrics     *metrics.BookingMetrics
}

// WhatsAppWebhookHandler receives Meta webhook callbacks for the WhatsApp
// Cloud API: the GET subscription handshake and POSTed message notifications.
type WhatsAppWebhookHandler struct {
	flow        MessageHandler
	verifyToken string
	appSecret   string
	logger      *logging.Logger
	metrics     *metrics.BookingMetrics
}

func NewWhatsAppWebhookHandler(cfg WhatsAppWebhookConfig) *WhatsAppWebhookHandler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		flow:        cfg.Flow,
		verifyToken: cfg.VerifyToken,
		appSecret:   cfg.AppSecret,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Verify answers Meta's subscription handshake.
// Route: GET /webhooks/whatsapp
func (h *WhatsAppWebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == h.verifyToken && h.verifyToken != "" {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	h.logger.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
	http.Error(w, "verification failed", http.StatusForbidden)
}

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive struct {
		Type        string `json:"type"`
		ButtonReply struct {
			ID string `json:"id"`
		} `json:"button_reply"`
	} `json:"interactive"`
}

// Receive handles POSTed message notifications. It always answers 200 for
// parseable payloads so Meta does not retry messages the bot chose to skip.
// Route: POST /webhooks/whatsapp
func (h *WhatsAppWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.metrics.ObserveInbound("message", "read_error")
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if h.appSecret != "" && !h.verifySignature(r.Header.Get("X-Hub-Signature-256"), body) {
		h.metrics.ObserveInbound("message", "bad_signature")
		h.logger.Warn("webhook signature verification failed", "remote_ip", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.metrics.ObserveInbound("message", "bad_payload")
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	handled := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				text, ok := messageText(msg)
				if !ok {
					h.metrics.ObserveInbound(msg.Type, "skipped")
					continue
				}
				h.flow.HandleMessage(r.Context(), msg.From, text)
				h.metrics.ObserveInbound(msg.Type, "handled")
				handled++
			}
		}
	}

	h.metrics.ObserveWebhookLatency("message", time.Since(start).Seconds())
	if handled == 0 {
		h.logger.Debug("webhook carried no handleable messages")
	}
	w.WriteHeader(http.StatusOK)
}

// messageText extracts the user's input from a text message or an interactive
// button reply; other message types (media, reactions) are skipped.
func messageText(msg inboundMessage) (string, bool) {
	switch msg.Type {
	case "text":
		text := strings.TrimSpace(msg.Text.Body)
		return text, text != "" && msg.From != ""
	case "interactive":
		id := strings.TrimSpace(msg.Interactive.ButtonReply.ID)
		return id, msg.Interactive.Type == "button_reply" && id != "" && msg.From != ""
	default:
		return "", false
	}
}

func (h *WhatsAppWebhookHandler) verifySignature(header string, body []byte) bool {
	const prefix = "sha256="
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimPrefix(header, prefix)))
}
