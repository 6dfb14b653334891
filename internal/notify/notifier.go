package notify

import (
	"context"

	"github.com/nholik/progress-sentinel/internal/whatsapp"
)

// Sender delivers one template message to the messaging provider.
type Sender interface {
	Send(ctx context.Context, msg whatsapp.TemplateMessage) (*whatsapp.Response, error)
}

var _ Sender = (*whatsapp.Client)(nil)
