package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/andesfit/whatsapp-scheduler/internal/conversation"
	"github.com/andesfit/whatsapp-scheduler/internal/observability/metrics"
	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

var webhookTracer = otel.Tracer("scheduler.internal.http.handlers.whatsapp_webhooks")

const maxWebhookBody = 1 << 20

// WhatsAppWebhookHandler terminates Meta's webhook callbacks: subscription
// verification on GET and message delivery on POST.
type WhatsAppWebhookHandler struct {
	conv        *conversation.Handler
	metrics     *metrics.SchedulerMetrics
	logger      *logging.Logger
	verifyToken string
	appSecret   string
	development bool
}

// NewWhatsAppWebhookHandler builds the webhook handler. In development mode
// signature verification is skipped; everywhere else an empty appSecret
// rejects all deliveries.
func NewWhatsAppWebhookHandler(conv *conversation.Handler, m *metrics.SchedulerMetrics, logger *logging.Logger, verifyToken, appSecret string, development bool) *WhatsAppWebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		conv:        conv,
		metrics:     m,
		logger:      logger,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		development: development,
	}
}

// Verify answers Meta's subscription handshake: echo hub.challenge when the
// verify token matches.
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

// webhookPayload mirrors the subset of Meta's webhook envelope we consume.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string       `json:"field"`
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []struct {
		From      string `json:"from"`
		ID        string `json:"id"`
		Timestamp string `json:"timestamp"`
		Type      string `json:"type"`
		Text      struct {
			Body string `json:"body"`
		} `json:"text"`
	} `json:"messages"`
}

// Receive ingests a webhook delivery. Meta retries non-2xx responses, so
// processing failures after signature and parse checks still return 200.
func (h *WhatsAppWebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "http.webhook.receive")
	defer span.End()
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unable to read body")
		return
	}

	if !h.development {
		if !h.validSignature(r.Header.Get("X-Hub-Signature-256"), body) {
			h.logger.Warn("webhook signature rejected")
			h.metrics.ObserveInbound("unknown", "bad_signature")
			respondError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.metrics.ObserveInbound("unknown", "bad_payload")
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// The latency label reflects what the delivery actually carried: the
	// first message type seen, or "none" for message-free deliveries.
	messageType := "none"
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if t := h.processValue(ctx, change.Value); t != "" && messageType == "none" {
				messageType = t
			}
		}
	}

	span.SetAttributes(attribute.Int("scheduler.entries", len(payload.Entry)))
	h.metrics.ObserveWebhookLatency(messageType, time.Since(start).Seconds())
	respondJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

// processValue handles one change value and returns the type of its first
// message, or "" when it carried none.
func (h *WhatsAppWebhookHandler) processValue(ctx context.Context, value webhookValue) string {
	names := make(map[string]string, len(value.Contacts))
	for _, c := range value.Contacts {
		names[c.WaID] = c.Profile.Name
	}

	firstType := ""
	for _, msg := range value.Messages {
		if firstType == "" {
			firstType = msg.Type
		}
		inbound := conversation.InboundMessage{
			From:        msg.From,
			ContactName: names[msg.From],
			Body:        msg.Text.Body,
			MessageType: msg.Type,
			MessageID:   msg.ID,
			Timestamp:   parseEpoch(msg.Timestamp),
		}
		if err := h.conv.HandleInbound(ctx, inbound); err != nil {
			h.metrics.ObserveInbound(msg.Type, "error")
			h.logger.Error("inbound message processing failed", "error", err, "message_id", msg.ID)
			continue
		}
		h.metrics.ObserveInbound(msg.Type, "processed")
	}
	return firstType
}

// validSignature checks Meta's sha256= HMAC header over the raw body.
func (h *WhatsAppWebhookHandler) validSignature(header string, body []byte) bool {
	if h.appSecret == "" {
		return false
	}
	provided, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(h.appSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(provided), []byte(expected))
}

func parseEpoch(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}
