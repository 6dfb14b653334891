package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nholik/progress-sentinel/internal/config"
	"github.com/nholik/progress-sentinel/internal/healthcheck"
	"github.com/nholik/progress-sentinel/internal/metrics"
	"github.com/nholik/progress-sentinel/internal/server"
	"github.com/nholik/progress-sentinel/internal/trigger"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Listen for progress updates and send notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(runCtx, ctx, cfg)
		},
	}
}

func runServe(ctx context.Context, cmdCtx *commandContext, cfg *config.Config) error {
	logger := cmdCtx.logger()
	logger.Info().Str("source", cfg.Source).Msg("progress-sentinel starting")

	pattern, err := cfg.Template.Pattern()
	if err != nil {
		return err
	}

	m := metrics.New()
	tracker := healthcheck.NewTracker()
	dispatcher := newDispatcher(cfg, logger, m, tracker)

	var (
		source trigger.Source
		events http.Handler
	)
	onStarted := trigger.WithOnStarted(func() { tracker.MarkStarted(cfg.Source) })
	switch cfg.Source {
	case config.SourceFirestore:
		source = trigger.NewFirestoreSource(logger, cfg.FirestoreProjectID, pattern, m, onStarted)
	case config.SourceHTTP:
		httpSource := trigger.NewHTTPSource(logger, pattern, m, onStarted)
		source = httpSource
		events = httpSource.Routes()
	default:
		return fmt.Errorf("unsupported source %q", cfg.Source)
	}

	if missing := cfg.WhatsApp.Missing(); len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("whatsapp configuration incomplete; updates will be logged and skipped")
	}
	if cfg.DryRun {
		logger.Warn().Msg("dry-run enabled; messages will not be sent")
	}

	routes := server.Routes{Events: events, Tracker: tracker}
	separateMetrics := cfg.MetricsPort > 0 && cfg.MetricsPort != cfg.ListenPort
	if !separateMetrics {
		routes.Metrics = m
	}

	serverCtx, stopServers := context.WithCancel(context.Background())
	defer stopServers()
	stopped := []<-chan struct{}{
		server.Start(serverCtx, logger, server.NewRouter(routes), cfg.ListenPort, "events"),
	}
	if separateMetrics {
		stopped = append(stopped, server.Start(serverCtx, logger, server.NewMetricsRouter(m), cfg.MetricsPort, "metrics"))
	}

	runErr := source.Run(ctx, dispatcher.Handle)
	tracker.MarkStopped()

	if runErr != nil {
		logger.Error().Err(runErr).Str("source", source.Name()).Msg("change source exited with error")
	}

	stopServers()
	for _, done := range stopped {
		<-done
	}
	logger.Info().Msg("progress-sentinel stopped")

	return runErr
}
