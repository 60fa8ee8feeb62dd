package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/andesfit/whatsapp-scheduler/internal/schedule"
)

// GuideResponder is the default responder when no agent layer is wired. It
// greets the client and points them at phrasings the resolver understands.
type GuideResponder struct{}

var _ Responder = (*GuideResponder)(nil)

func (GuideResponder) Respond(_ context.Context, msg InboundMessage) (string, error) {
	name := msg.ContactName
	if name == "" || name == "Unknown" {
		name = "there"
	}
	return fmt.Sprintf(
		"Hi %s! I can help you book a class (%s). "+
			"Tell me what you'd like and when, for example: "+
			"\"Yoga tomorrow at 2pm\" or \"Pilates el próximo viernes a las 8am\".",
		name, strings.Join(schedule.KnownClassTypes(), ", "),
	), nil
}
