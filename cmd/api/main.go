package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/marisolvega/funnelmail-backend/api/routes"
	"github.com/marisolvega/funnelmail-backend/internal/deliverylog"
	"github.com/marisolvega/funnelmail-backend/internal/mailer"
	"github.com/marisolvega/funnelmail-backend/internal/queue"
	"github.com/marisolvega/funnelmail-backend/internal/tracking"
	"github.com/marisolvega/funnelmail-backend/internal/unsubscribes"
	"github.com/marisolvega/funnelmail-backend/pkg/config"
	"github.com/marisolvega/funnelmail-backend/pkg/db"
	"github.com/marisolvega/funnelmail-backend/pkg/logger"
	"github.com/marisolvega/funnelmail-backend/pkg/migrate"
	"github.com/marisolvega/funnelmail-backend/pkg/redis"
	"github.com/marisolvega/funnelmail-backend/pkg/token"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

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

	unsubService, err := unsubscribes.NewService(unsubscribes.ServiceParams{
		Repo:   unsubRepo,
		Jobs:   queueRepo,
		Tx:     dbClient,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create unsubscribe service", err)
		os.Exit(1)
	}

	queueService, err := queue.NewService(queue.ServiceParams{
		Repo:     queueRepo,
		Registry: unsubRepo,
		Config:   cfg.Queue,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue service", err)
		os.Exit(1)
	}

	processor, err := queue.NewProcessor(queue.ProcessorParams{
		Repo:       queueRepo,
		Deliveries: deliveryRepo,
		Registry:   unsubRepo,
		Sender:     mailer.NewSMTPSender(cfg.SMTP),
		Links:      links,
		Config:     cfg.Queue,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create queue processor", err)
		os.Exit(1)
	}

	trackingService, err := tracking.NewService(tracking.ServiceParams{
		Signer:       signer,
		Events:       deliveryRepo,
		Unsubscribes: unsubService,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tracking service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Queue:        queueService,
			Processor:    processor,
			Deliveries:   deliveryRepo,
			Unsubscribes: unsubService,
			Tracking:     trackingService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
