package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andesfit/whatsapp-scheduler/internal/conversation"
	"github.com/andesfit/whatsapp-scheduler/internal/observability/metrics"
)

type echoResponder struct{ calls int }

func (e *echoResponder) Respond(_ context.Context, msg conversation.InboundMessage) (string, error) {
	e.calls++
	return "echo: " + msg.Body, nil
}

type recordingMessenger struct{ sent []conversation.OutboundReply }

func (m *recordingMessenger) SendReply(_ context.Context, msg conversation.OutboundReply) (string, error) {
	m.sent = append(m.sent, msg)
	return "wamid.out", nil
}

const sampleDelivery = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "123",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "contacts": [{"wa_id": "573001112233", "profile": {"name": "Maria"}}],
        "messages": [{
          "from": "573001112233",
          "id": "wamid.in1",
          "timestamp": "1705312800",
          "type": "text",
          "text": {"body": "book yoga tomorrow at 2pm"}
        }]
      }
    }]
  }]
}`

func newWebhookFixture(development bool, secret string) (*WhatsAppWebhookHandler, *echoResponder, *recordingMessenger) {
	responder := &echoResponder{}
	messenger := &recordingMessenger{}
	conv := conversation.NewHandler(responder, messenger, nil)
	h := NewWhatsAppWebhookHandler(conv, nil, nil, "verify-me", secret, development)
	return h, responder, messenger
}

func TestVerifyEchoesChallenge(t *testing.T) {
	h, _, _ := newWebhookFixture(true, "")
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=challenge-42", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "challenge-42", rec.Body.String())
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	h, _, _ := newWebhookFixture(true, "")
	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=x", nil)
	rec := httptest.NewRecorder()
	h.Verify(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestReceiveDispatchesTextMessage(t *testing.T) {
	h, responder, messenger := newWebhookFixture(true, "")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(sampleDelivery))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, responder.calls)
	require.Len(t, messenger.sent, 1)
	assert.Equal(t, "573001112233", messenger.sent[0].To)
	assert.Equal(t, "echo: book yoga tomorrow at 2pm", messenger.sent[0].Body)
}

func TestReceiveIgnoresNonTextMessages(t *testing.T) {
	h, responder, messenger := newWebhookFixture(true, "")
	payload := `{"entry":[{"changes":[{"value":{"messages":[{"from":"1","id":"m1","type":"image","timestamp":"0"}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(payload))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, responder.calls)
	assert.Empty(t, messenger.sent)
}

func TestReceiveEnforcesSignatureOutsideDevelopment(t *testing.T) {
	h, responder, _ := newWebhookFixture(false, "app-secret")

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(sampleDelivery))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "missing signature must be rejected")
	assert.Equal(t, 0, responder.calls)

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte(sampleDelivery))
	req = httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(sampleDelivery))
	req.Header.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	rec = httptest.NewRecorder()
	h.Receive(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, responder.calls)
}

func TestReceiveLatencyLabelMatchesDelivery(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewSchedulerMetrics(reg)
	conv := conversation.NewHandler(&echoResponder{}, &recordingMessenger{}, nil)
	h := NewWhatsAppWebhookHandler(conv, m, nil, "verify-me", "", true)

	rec := httptest.NewRecorder()
	h.Receive(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(`{"entry":[]}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.Receive(rec, httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(sampleDelivery)))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.ElementsMatch(t, []string{"none", "text"}, webhookLatencyLabels(t, reg),
		"message-free deliveries must not be labeled as text")
}

func webhookLatencyLabels(t *testing.T, reg *prometheus.Registry) []string {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "scheduler_messaging_webhook_latency_seconds" {
			continue
		}
		var out []string
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "message_type" {
					out = append(out, label.GetValue())
				}
			}
		}
		return out
	}
	t.Fatal("webhook latency metric not found")
	return nil
}

func TestReceiveRejectsMalformedJSON(t *testing.T) {
	h, _, _ := newWebhookFixture(true, "")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Receive(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
