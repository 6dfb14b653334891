package notify

import (
	"context"
	"net/http"

	"github.com/nholik/progress-sentinel/internal/whatsapp"
	"github.com/rs/zerolog"
)

const dryRunBody = `{"dry_run":true}`

// DryRunSender logs messages without contacting the provider.
type DryRunSender struct {
	logger zerolog.Logger
}

// NewDryRunSender returns a sender that suppresses delivery and logs instead.
func NewDryRunSender(logger zerolog.Logger) *DryRunSender {
	return &DryRunSender{logger: logger}
}

// Send implements Sender.
func (s *DryRunSender) Send(_ context.Context, msg whatsapp.TemplateMessage) (*whatsapp.Response, error) {
	s.logger.Info().
		Str("recipient", msg.To).
		Str("template", msg.Template.Name).
		Str("language", msg.Template.Language.Code).
		Strs("parameters", msg.BodyTexts()).
		Msg("[DRY-RUN] Would send whatsapp message")
	return &whatsapp.Response{StatusCode: http.StatusOK, Body: dryRunBody}, nil
}
