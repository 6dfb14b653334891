package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nholik/progress-sentinel/internal/config"
	"github.com/nholik/progress-sentinel/internal/healthcheck"
	"github.com/nholik/progress-sentinel/internal/metrics"
	"github.com/nholik/progress-sentinel/internal/progress"
	"github.com/nholik/progress-sentinel/internal/trigger"
	"github.com/nholik/progress-sentinel/internal/whatsapp"
	"github.com/rs/zerolog"
)

// Outcome classifies a dispatch.
type Outcome string

const (
	OutcomeSent           Outcome = "sent"
	OutcomeConfigMissing  Outcome = "config_missing"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

// Result reports what a dispatch did. It is informational only; dispatch
// failures are never returned to the trigger.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

// ConfigMissingError lists the credential settings that were empty.
type ConfigMissingError struct {
	Keys []string
}

func (e *ConfigMissingError) Error() string {
	return fmt.Sprintf("missing whatsapp configuration: %s", strings.Join(e.Keys, ", "))
}

// Dispatcher turns progress updates into WhatsApp template messages.
type Dispatcher struct {
	logger      zerolog.Logger
	credentials config.WhatsApp
	template    config.Template
	location    *time.Location
	sender      Sender
	metrics     *metrics.Metrics
	tracker     *healthcheck.Tracker
	now         func() time.Time
}

// Option customizes Dispatcher behavior.
type Option func(*Dispatcher)

// WithMetrics records dispatch outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTracker records dispatch outcomes for health endpoints.
func WithTracker(tracker *healthcheck.Tracker) Option {
	return func(d *Dispatcher) {
		d.tracker = tracker
	}
}

// NewDispatcher constructs a Dispatcher. Credentials are validated on every
// dispatch rather than here, so a misconfigured process still runs and reports.
func NewDispatcher(logger zerolog.Logger, credentials config.WhatsApp, tmpl config.Template, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		logger:      logger,
		credentials: credentials,
		template:    tmpl,
		location:    tmpl.Location(),
		sender:      sender,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle implements trigger.Handler.
func (d *Dispatcher) Handle(ctx context.Context, event trigger.Event) {
	logger := d.logger.With().
		Str("event_id", event.ID).
		Str("source", event.Source).
		Logger()
	d.dispatch(ctx, logger, event.Key, event.After)
}

// Dispatch sends one notification for the post-update state of key.
func (d *Dispatcher) Dispatch(ctx context.Context, key progress.Key, after map[string]any) Result {
	return d.dispatch(ctx, d.logger, key, after)
}

func (d *Dispatcher) dispatch(ctx context.Context, logger zerolog.Logger, key progress.Key, after map[string]any) Result {
	record := progress.FromFields(after)

	logger = logger.With().
		Str("user_id", key.UserID).
		Str("item_name", key.ItemName).
		Logger()
	logger.Info().
		Str("today_progress", record.TodayText(d.location)).
		Str("cumulative_progress", record.CumulativeText(d.location)).
		Msg("processing progress update")

	if missing := d.credentials.Missing(); len(missing) > 0 {
		err := &ConfigMissingError{Keys: missing}
		logger.Error().
			Strs("missing", missing).
			Msg("missing whatsapp configuration; notification not sent")
		return d.finish(Result{Outcome: OutcomeConfigMissing, Err: err})
	}

	recipient := d.credentials.RecipientID
	msg := BuildMessage(recipient, d.template, key, record, d.location)

	start := d.now()
	resp, err := d.sender.Send(ctx, msg)
	d.metrics.ObserveSendDuration(d.now().Sub(start))

	if err != nil {
		event := logger.Error().Err(err).Str("recipient", recipient)
		result := Result{Outcome: OutcomeDeliveryFailed, Err: err}
		var apiErr *whatsapp.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode != 0 {
			result.StatusCode = apiErr.StatusCode
			event = event.Int("response_status", apiErr.StatusCode)
			event = withBody(event, "response_body", apiErr.Body)
			if len(apiErr.Header) > 0 {
				event = event.Interface("response_headers", apiErr.Header)
			}
		}
		event.Msg("failed to send whatsapp message")
		return d.finish(result)
	}

	event := logger.Info().
		Int("response_status", resp.StatusCode).
		Str("recipient", recipient)
	event = withBody(event, "response_body", resp.Body)
	event.Msg("whatsapp message sent")

	d.metrics.SetLastSuccessfulSendTimestamp(d.now())
	return d.finish(Result{Outcome: OutcomeSent, StatusCode: resp.StatusCode})
}

func (d *Dispatcher) finish(result Result) Result {
	d.metrics.IncDispatches(string(result.Outcome))
	d.tracker.RecordDispatch(string(result.Outcome))
	return result
}

// withBody attaches a response body, inline when it is JSON.
func withBody(event *zerolog.Event, key, body string) *zerolog.Event {
	if body == "" {
		return event
	}
	if json.Valid([]byte(body)) {
		return event.RawJSON(key, []byte(body))
	}
	return event.Str(key, body)
}
