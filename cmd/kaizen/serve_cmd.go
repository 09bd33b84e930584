package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brewandbeans/kaizen/internal/config"
	"github.com/brewandbeans/kaizen/internal/integrations"
	"github.com/brewandbeans/kaizen/internal/logs"
	"github.com/brewandbeans/kaizen/internal/observability"
	"github.com/brewandbeans/kaizen/internal/storage"
	"github.com/brewandbeans/kaizen/internal/web"
)

const (
	envOTLPEndpoint = "OTEL_EXPORTER_OTLP_ENDPOINT"

	emailEventRetention = 30 * 24 * time.Hour
	pruneInterval       = 6 * time.Hour
	shutdownGrace       = 5 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server (default)",
		Long: `Start the web server.

Startup runs in a fixed order: load the configuration, publish the feature
flags to the environment, validate, open the store, then serve. In
production an invalid configuration stops the process before it listens.

Examples:
  kaizen serve --preset full-saas
  kaizen --listen :8080 --env-file .env.production`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}

	logger, sanitizer, err := logs.SetupLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logs.RegisterConfigSecrets(sanitizer, cfg)
	sugar := logger.Sugar()

	if err := config.Initialize(cfg, config.OSEnv{}, sugar); err != nil {
		return err
	}

	logger.Info("Starting kaizen",
		zap.String("version", version),
		zap.String("listen", cfg.Listen),
		zap.String("data_dir", cfg.DataDir),
		zap.String("preset", cfg.Preset),
		zap.Strings("features", cfg.EnabledFeatures()),
		zap.Strings("services", cfg.EnabledServices()))

	store, err := storage.NewManager(cfg.DataDir, sugar)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}()

	otlpEndpoint, _ := env.Lookup(envOTLPEndpoint)
	obs, err := observability.NewManager(sugar, observability.ConfigFor(cfg, version, otlpEndpoint))
	if err != nil {
		return fmt.Errorf("failed to setup observability: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := obs.Close(ctx); err != nil {
			logger.Warn("Failed to flush telemetry", zap.Error(err))
		}
	}()
	obs.PublishConfig(cfg)
	obs.RegisterHealthChecker(observability.PingCheck("storage", store))
	obs.RegisterReadinessChecker(observability.PingCheck("storage", store))

	accessLog, err := logs.SetupAccessLogger(cfg.Logging, logger)
	if err != nil {
		return err
	}

	deps := buildDeps(cfg, logger, obs)
	deps.Store = store
	deps.Observability = obs
	deps.AccessLog = accessLog
	deps.Version = version

	srv, err := web.NewServer(cfg, sugar, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pruned := make(chan struct{})
	go func() {
		defer close(pruned)
		pruneEmailEvents(ctx, store, sugar)
	}()

	err = srv.ListenAndServe(ctx)
	stop()
	<-pruned
	if err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// buildDeps creates a client for every enabled service. Disabled services
// stay nil and their gates never call them.
func buildDeps(cfg *config.Config, logger *zap.Logger, observer integrations.CallObserver) web.Deps {
	base := []integrations.Option{integrations.WithLogger(logger)}
	if observer != nil {
		base = append(base, integrations.WithObserver(observer))
	}
	opts := func(extra ...integrations.Option) []integrations.Option {
		return slices.Concat(base, extra)
	}

	var deps web.Deps
	if cfg.IsServiceEnabled(config.ServicePolar) {
		deps.Billing = integrations.NewPolar(cfg.Services.Polar, opts()...)
	}
	if cfg.IsServiceEnabled(config.ServiceResend) {
		// the email API allows 2 requests per second
		deps.Mailer = integrations.NewResend(cfg.Services.Resend, opts(integrations.WithRateLimit(rate.Limit(2), 2))...)
	}
	if cfg.IsServiceEnabled(config.ServiceOpenAI) {
		deps.Chat = integrations.NewOpenAI(cfg.Services.OpenAI, opts(integrations.WithRateLimit(rate.Limit(5), 10))...)
	}
	if cfg.IsServiceEnabled(config.ServiceOpenStatus) {
		deps.Monitors = integrations.NewOpenStatus(cfg.Services.OpenStatus, opts()...)
	}
	if cfg.AuthActive() {
		var parties []string
		if cfg.FrontendURL != "" {
			parties = append(parties, cfg.FrontendURL)
		}
		verifier, err := integrations.NewClerkVerifier(cfg.Services.Clerk, parties...)
		if err != nil {
			logger.Warn("Session verification unavailable, every visitor is signed out", zap.Error(err))
		} else {
			deps.Sessions = verifier
		}
	}
	return deps
}

// pruneEmailEvents drops stored email events older than the retention window
func pruneEmailEvents(ctx context.Context, store *storage.Manager, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		if _, err := store.PruneEmailEvents(emailEventRetention); err != nil {
			logger.Warnw("Failed to prune email events", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
