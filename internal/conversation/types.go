package conversation

import (
	"context"
	"time"
)

// MessageTypeText is the only inbound message type the core processes.
const MessageTypeText = "text"

// InboundMessage is a single message event from the inbound source.
type InboundMessage struct {
	From        string
	ContactName string
	Body        string
	MessageType string
	MessageID   string
	Timestamp   time.Time
}

// OutboundReply is a text message addressed to a client.
type OutboundReply struct {
	To       string
	Body     string
	Metadata map[string]string
}

// ReplyMessenger delivers outbound replies. Implementations return the
// provider's delivery id on success.
type ReplyMessenger interface {
	SendReply(ctx context.Context, msg OutboundReply) (string, error)
}

// Responder produces the reply text for an inbound message. This is the seam
// where an agent/LLM layer plugs in; the core does not prescribe one.
type Responder interface {
	Respond(ctx context.Context, msg InboundMessage) (string, error)
}
