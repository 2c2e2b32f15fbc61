package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orentclinic/booking-bot/internal/booking"
	"github.com/orentclinic/booking-bot/pkg/logging"
)

var whatsappSendTracer = otel.Tracer("orent.internal.messaging.whatsapp_send")

const defaultGraphBaseURL = "https://graph.facebook.com/v21.0"

// WhatsAppSender posts messages through the WhatsApp Cloud API.
type WhatsAppSender struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
}

// NewWhatsAppSender builds a sender for the WhatsApp Cloud API.
func NewWhatsAppSender(accessToken, phoneNumberID string, logger *logging.Logger) *WhatsAppSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppSender{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		baseURL:       defaultGraphBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// WithBaseURL overrides the Graph API endpoint, used by tests.
func (s *WhatsAppSender) WithBaseURL(baseURL string) *WhatsAppSender {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

var _ booking.Messenger = (*WhatsAppSender)(nil)

type whatsappButton struct {
	Type  string `json:"type"`
	Reply struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"reply"`
}

func (s *WhatsAppSender) buildPayload(msg booking.OutboundMessage) map[string]any {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                msg.To,
	}
	if len(msg.Buttons) == 0 {
		payload["type"] = "text"
		payload["text"] = map[string]any{"body": msg.Body}
		return payload
	}
	buttons := make([]whatsappButton, 0, len(msg.Buttons))
	for _, b := range msg.Buttons {
		var wb whatsappButton
		wb.Type = "reply"
		wb.Reply.ID = b.ID
		wb.Reply.Title = b.Title
		buttons = append(buttons, wb)
	}
	payload["type"] = "interactive"
	payload["interactive"] = map[string]any{
		"type":   "button",
		"body":   map[string]any{"text": msg.Body},
		"action": map[string]any{"buttons": buttons},
	}
	return payload
}

// Send dispatches one message via the Cloud API, retrying transient failures.
func (s *WhatsAppSender) Send(ctx context.Context, msg booking.OutboundMessage) error {
	if s.accessToken == "" {
		return errors.New("messaging: whatsapp access token missing")
	}
	if s.phoneNumberID == "" {
		return errors.New("messaging: whatsapp phone number id missing")
	}
	if msg.To == "" {
		return errors.New("messaging: to required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return errors.New("messaging: body required")
	}

	ctx, span := whatsappSendTracer.Start(ctx, "messaging.whatsapp.send")
	defer span.End()
	span.SetAttributes(
		attribute.String("orent.to", msg.To),
		attribute.Int("orent.buttons", len(msg.Buttons)),
	)

	bodyBytes, err := json.Marshal(s.buildPayload(msg))
	if err != nil {
		return fmt.Errorf("messaging: failed to marshal whatsapp payload: %w", err)
	}
	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneNumberID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Info("whatsapp message sent", "to", msg.To, "interactive", len(msg.Buttons) > 0)
				return nil
			}
			lastErr = fmt.Errorf("whatsapp send failed: status %d, body: %s", resp.StatusCode, strings.TrimSpace(string(body)))
			// Client errors will not succeed on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				break
			}
		}

		if attempt < 3 {
			sleep := time.Duration(200+rand.Intn(300)) * time.Millisecond
			time.Sleep(sleep)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		s.logger.Error("failed to send whatsapp message", "error", lastErr, "to", msg.To)
	}
	return lastErr
}
