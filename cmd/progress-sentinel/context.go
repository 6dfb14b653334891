package main

import (
	"github.com/nholik/progress-sentinel/internal/config"
	"github.com/nholik/progress-sentinel/internal/healthcheck"
	"github.com/nholik/progress-sentinel/internal/logging"
	"github.com/nholik/progress-sentinel/internal/metrics"
	"github.com/nholik/progress-sentinel/internal/notify"
	"github.com/nholik/progress-sentinel/internal/whatsapp"
	"github.com/rs/zerolog"
)

type commandContext struct {
	logLevelFlag *string
	cfg          *config.Config
}

func newCommandContext(logLevelFlag *string) *commandContext {
	return &commandContext{logLevelFlag: logLevelFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if c.logLevelFlag != nil && *c.logLevelFlag != "" {
		cfg.LogLevel = *c.logLevelFlag
	}
	c.cfg = &cfg
	return c.cfg, nil
}

func (c *commandContext) logger() zerolog.Logger {
	level := ""
	if c.cfg != nil {
		level = c.cfg.LogLevel
	}
	return logging.NewWithLevel(level).With().Str("app", "progress-sentinel").Logger()
}

func newSender(cfg *config.Config, logger zerolog.Logger) notify.Sender {
	if cfg.DryRun {
		return notify.NewDryRunSender(logger)
	}
	return whatsapp.NewClient(
		cfg.WhatsApp.BaseURL,
		cfg.WhatsApp.AccessToken,
		cfg.WhatsApp.PhoneNumberID,
		whatsapp.WithTimeout(cfg.HTTPTimeout),
	)
}

func newDispatcher(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics, tracker *healthcheck.Tracker) *notify.Dispatcher {
	return notify.NewDispatcher(
		logger,
		cfg.WhatsApp,
		cfg.Template,
		newSender(cfg, logger),
		notify.WithMetrics(m),
		notify.WithTracker(tracker),
	)
}
