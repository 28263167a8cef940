package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marisolvega/funnelmail-backend/internal/deliverylog"
	"github.com/marisolvega/funnelmail-backend/internal/mailer"
	"github.com/marisolvega/funnelmail-backend/internal/queue"
	"github.com/marisolvega/funnelmail-backend/internal/tracking"
	"github.com/marisolvega/funnelmail-backend/internal/unsubscribes"
	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/db"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
	"github.com/marisolvega/funnelmail-backend/pkg/metrics"
	"github.com/marisolvega/funnelmail-backend/pkg/migrate"
	"github.com/marisolvega/funnelmail-backend/pkg/token"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "queue-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "queue-worker"

	logg = logger.New(logger.Options{
		ServiceName: "queue-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	signer, err := token.NewSigner(cfg.Tracking.SigningSecret, cfg.Tracking.TokenTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create token signer", err)
		os.Exit(1)
	}
	links, err := tracking.NewLinkBuilder(signer, cfg.Tracking.PublicBaseURL)
	if err != nil {
		logg.Error(context.Background(), "failed to create link builder", err)
		os.Exit(1)
	}

	queueRepo := queue.NewRepository(dbClient.DB())
	unsubRepo := unsubscribes.NewRepository(dbClient.DB())
	deliveryRepo := deliverylog.NewRepository(dbClient.DB())
	queueMetrics := metrics.NewQueueMetrics(prometheus.DefaultRegisterer)

	processor, err := queue.NewProcessor(queue.ProcessorParams{
		Repo:       queueRepo,
		Deliveries: deliveryRepo,
		Registry:   unsubRepo,
		Sender:     mailer.NewSMTPSender(cfg.SMTP),
		Links:      links,
		Config:     cfg.Queue,
		Metrics:    queueMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue processor", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Processor: processor,
		Repo:      queueRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue worker", err)
		os.Exit(1)
	}

	go serveMetrics(cfg, logg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting queue worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "queue worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "queue worker shutting down gracefully")
}

func serveMetrics(cfg *config.Config, logg *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := ":" + cfg.App.MetricsPort
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logg.Error(context.Background(), "metrics server stopped unexpectedly", err)
	}
}
