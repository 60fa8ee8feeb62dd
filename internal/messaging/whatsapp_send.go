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

	"github.com/andesfit/whatsapp-scheduler/internal/conversation"
	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

var whatsappSendTracer = otel.Tracer("scheduler.internal.messaging.whatsapp_send")

// ErrDelivery marks failures to hand a reply to the WhatsApp API.
var ErrDelivery = errors.New("messaging: delivery failed")

// DeliveryError wraps a send failure with the recipient for context.
type DeliveryError struct {
	To  string
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("messaging: delivery to %s failed: %v", e.To, e.Err)
}

func (e *DeliveryError) Unwrap() error { return ErrDelivery }

// WhatsAppSender posts text messages using the Meta Graph API.
type WhatsAppSender struct {
	apiKey     string
	phoneID    string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewWhatsAppSender builds a sender for the WhatsApp Cloud API. baseURL is the
// Graph API root, e.g. https://graph.facebook.com/v18.0.
func NewWhatsAppSender(apiKey, phoneID, baseURL string, logger *logging.Logger) *WhatsAppSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppSender{
		apiKey:  apiKey,
		phoneID: phoneID,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ conversation.ReplyMessenger = (*WhatsAppSender)(nil)

// SendReply dispatches a single text message, retrying transient failures.
// It returns the provider message id on success.
func (s *WhatsAppSender) SendReply(ctx context.Context, msg conversation.OutboundReply) (string, error) {
	if s.apiKey == "" {
		return "", errors.New("messaging: whatsapp api key missing")
	}
	if s.phoneID == "" {
		return "", errors.New("messaging: whatsapp phone id missing")
	}
	if msg.To == "" {
		return "", errors.New("messaging: to required")
	}
	if strings.TrimSpace(msg.Body) == "" {
		return "", errors.New("messaging: body required")
	}

	ctx, span := whatsappSendTracer.Start(ctx, "messaging.whatsapp.send")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.to", msg.To))

	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                msg.To,
		"type":              "text",
		"text": map[string]string{
			"body": msg.Body,
		},
	}
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("messaging: failed to marshal whatsapp payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneID)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				deliveryID := parseMessageID(body)
				if msg.Metadata != nil && deliveryID != "" {
					msg.Metadata["provider_message_id"] = deliveryID
				}
				s.logger.Info("whatsapp message sent", "to", msg.To, "message_id", deliveryID)
				return deliveryID, nil
			}
			var errorBody map[string]interface{}
			if len(body) > 0 && json.Unmarshal(body, &errorBody) == nil {
				lastErr = fmt.Errorf("whatsapp send failed: status %d, body: %v", resp.StatusCode, errorBody)
			} else {
				lastErr = fmt.Errorf("whatsapp send failed: status %d", resp.StatusCode)
			}
			// Client errors other than rate limiting will not succeed on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				break
			}
		}

		if attempt < 3 {
			sleep := time.Duration(200+rand.Intn(300)) * time.Millisecond
			time.Sleep(sleep)
		}
	}

	span.RecordError(lastErr)
	s.logger.Error("failed to send whatsapp message", "error", lastErr, "to", msg.To)
	return "", &DeliveryError{To: msg.To, Err: lastErr}
}

func parseMessageID(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if len(parsed.Messages) == 0 {
		return ""
	}
	return parsed.Messages[0].ID
}
