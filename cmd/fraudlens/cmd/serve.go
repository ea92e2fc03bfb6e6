package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/secondhand-labs/fraudlens/api/openapi"
	"github.com/secondhand-labs/fraudlens/internal/api/handlers"
	"github.com/secondhand-labs/fraudlens/internal/api/middleware"
	"github.com/secondhand-labs/fraudlens/internal/config"
	"github.com/secondhand-labs/fraudlens/internal/engine"
	"github.com/secondhand-labs/fraudlens/internal/marketplace"
	"github.com/secondhand-labs/fraudlens/internal/notify"
	"github.com/secondhand-labs/fraudlens/internal/store"
	"github.com/secondhand-labs/fraudlens/internal/telemetry"
	"github.com/secondhand-labs/fraudlens/pkg/logger"
	"github.com/secondhand-labs/fraudlens/pkg/riskscore"
)

// Jobs that started but never completed before this age are marked failed
// on startup, so a crashed replica doesn't leave them running forever.
const staleJobAge = time.Hour

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server and scheduler",
		RunE:  runServe,
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, version)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	if n, err := st.RecoverStaleJobRuns(ctx, staleJobAge); err != nil {
		log.Warn("recovering stale job runs failed", "err", err)
	} else if n > 0 {
		log.Info("stale job runs marked failed", "runs", n)
	}

	eng := buildEngine(cfg, st, log)
	if err := eng.LoadStats(ctx); err != nil {
		log.Warn("loading stats table failed", "err", err)
	}

	sched, err := engine.NewScheduler(
		eng, cfg.Schedule.PollInterval, cfg.Schedule.RebuildInterval, log,
	)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	sched.Start()

	e := buildServer(cfg, st, eng, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	// Wait for interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	stopCtx := sched.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		log.Warn("scheduler jobs still running, abandoning")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("flushing traces failed", "err", err)
	}

	log.Info("server stopped")
	return nil
}

func buildEngine(cfg *config.Config, st *store.PostgresStore, log *slog.Logger) *engine.Engine {
	mc := &cfg.Marketplace

	market := marketplace.NewHTTPClient(mc.SearchURL, mc.ItemURL, mc.UserURL,
		marketplace.WithLogger(log),
		marketplace.WithLimiter(marketplace.NewLimiter(mc.RateLimit.PerSecond, mc.RateLimit.Burst)),
		marketplace.WithUserAgent(mc.UserAgent),
		marketplace.WithRetries(mc.MaxRetries, mc.RetryDelay),
		marketplace.WithCooldown(mc.CooldownOn, mc.Cooldown),
		marketplace.WithHTTPClient(&http.Client{Timeout: mc.HTTPTimeout}),
	)

	paginator := marketplace.NewPaginator(market, st,
		marketplace.WithMaxPages(mc.MaxPages),
		marketplace.WithPaginatorLogger(log),
	)

	var notifier notify.Notifier
	if cfg.Notifications.Discord.Enabled {
		notifier = notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
	} else {
		notifier = notify.NewNoOpNotifier(log)
	}

	w := cfg.Scoring.Weights
	return engine.NewEngine(st, market, notifier,
		engine.WithLogger(log),
		engine.WithKeywords(mc.Keywords),
		engine.WithPaginator(paginator),
		engine.WithDeepFetch(mc.DeepFetch),
		engine.WithReputationEnrichment(cfg.Scoring.EnrichReputation),
		engine.WithWeights(riskscore.Weights{
			CPU:      w.CPU,
			GPU:      w.GPU,
			RAM:      w.RAM,
			Category: w.Category,
		}),
		engine.WithSuspiciousZ(cfg.Scoring.SuspiciousZ),
		engine.WithRiskThreshold(cfg.Alerts.RiskThreshold),
		engine.WithReAlerts(cfg.Alerts.ReAlertsEnabled, cfg.Alerts.ReAlertsCooldown),
		engine.WithStaggerOffset(cfg.Schedule.StaggerOffset),
		engine.WithStatsPath(cfg.Stats.TablePath),
		engine.WithListingURLBase(cfg.Notifications.ListingURLBase),
	)
}

func buildServer(cfg *config.Config, st *store.PostgresStore, eng *engine.Engine, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(
		middleware.Recovery(log),
		middleware.RequestLog(log),
		middleware.Metrics(),
	)

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("FraudLens API", version))

	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(st))
	handlers.RegisterScoreRoutes(api, handlers.NewScoreHandler(eng))
	handlers.RegisterStatusRoutes(api, handlers.NewStatusHandler(st, cfg.Alerts.RiskThreshold))
	handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(st))
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(st))
	handlers.RegisterTriggerRoutes(api,
		handlers.NewPollHandler(eng),
		handlers.NewRebuildHandler(eng),
		handlers.NewRescoreHandler(eng),
	)

	openapi.RegisterRoutes(e)

	return e
}
