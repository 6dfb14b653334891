package notify

import (
	"time"

	"github.com/nholik/progress-sentinel/internal/config"
	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/nholik/progress-sentinel/internal/whatsapp"
)

// BuildMessage fills the progress template. Body parameters are, in order:
// item name, today's progress, cumulative progress, last update, user id.
func BuildMessage(recipient string, tmpl config.Template, key progress.Key, record progress.Record, loc *time.Location) whatsapp.TemplateMessage {
	return whatsapp.NewTemplateMessage(recipient, tmpl.Name, tmpl.Language,
		key.ItemName,
		record.TodayText(loc),
		record.CumulativeText(loc),
		record.LastUpdatedText(loc),
		key.UserID,
	)
}
