package conversation

import (
	"context"
	"strings"

	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

// apologyReply is sent when the responder fails. User-facing errors stay
// apology-toned and free of internal detail.
const apologyReply = "I apologize, but I'm having trouble processing your request right now. Please try again or contact our staff directly."

// Handler routes inbound messages to the responder and delivers the reply.
type Handler struct {
	responder Responder
	messenger ReplyMessenger
	logger    *logging.Logger
}

// NewHandler builds a conversation handler. The messenger may be nil, in
// which case replies are logged and dropped (local/dev mode).
func NewHandler(responder Responder, messenger ReplyMessenger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{responder: responder, messenger: messenger, logger: logger}
}

// HandleInbound processes one inbound message. Non-text messages and empty
// bodies are explicitly ignored, not errors.
func (h *Handler) HandleInbound(ctx context.Context, msg InboundMessage) error {
	if msg.MessageType != MessageTypeText || strings.TrimSpace(msg.Body) == "" {
		h.logger.Info("skipping non-text or empty message",
			"message_type", msg.MessageType,
			"message_id", msg.MessageID,
		)
		return nil
	}

	h.logger.Info("processing inbound message",
		"from", msg.From,
		"contact", msg.ContactName,
		"message_id", msg.MessageID,
	)

	reply, err := h.responder.Respond(ctx, msg)
	if err != nil {
		h.logger.Error("responder failed", "error", err, "from", msg.From)
		reply = apologyReply
	}
	if reply == "" {
		return nil
	}

	if h.messenger == nil {
		h.logger.Warn("no messenger configured, dropping reply", "to", msg.From)
		return nil
	}
	deliveryID, err := h.messenger.SendReply(ctx, OutboundReply{To: msg.From, Body: reply})
	if err != nil {
		h.logger.Error("reply delivery failed", "error", err, "to", msg.From)
		return err
	}
	h.logger.Info("reply delivered", "to", msg.From, "delivery_id", deliveryID)
	return nil
}
