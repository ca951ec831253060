package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/renovahub/renewal-api/internal/config"
	integrationPkg "github.com/renovahub/renewal-api/internal/integration"
	"github.com/renovahub/renewal-api/internal/push"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
	directoryService "github.com/renovahub/renewal-api/internal/service/directory"
	notifierService "github.com/renovahub/renewal-api/internal/service/notifier"
	"github.com/renovahub/renewal-api/internal/worker"
	"github.com/renovahub/renewal-api/pkg/logger"
	"github.com/renovahub/renewal-api/pkg/metrics"
)

func setupHealthCheck(registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	go func() {
		if err := http.ListenAndServe(":8081", mux); err != nil {
			log.Error().Err(err).Msg("health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(nil)
	log.Logger = appLogger.ZL

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var deduper notifierService.Deduper = notifierService.NewNoopDeduper()
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		deduper = notifierService.NewRedisDeduper(redisClient, appLogger.ZL)
	} else {
		log.Warn().Msg("redis not configured, notification dedup disabled")
	}

	registry := prometheus.NewRegistry()
	m := metrics.New("renovahub_worker", registry)

	licenseRepo := postgres.NewLicenseRepository(db)
	userRepo := postgres.NewUserRepository(db)
	integrationRepo := postgres.NewIntegrationRepository(db)
	emailSettingsRepo := postgres.NewEmailSettingsRepository(db)
	notificationLogRepo := postgres.NewNotificationLogRepository(db)

	directorySvc := directoryService.NewService(userRepo)
	pusher := push.NewClient(cfg.Push.Endpoint, cfg.Push.ServerKey, cfg.Push.Timeout)
	dispatcher := integrationPkg.NewDispatcher(appLogger.ZL,
		cfg.Integrations.TrelloAPIKey, cfg.Integrations.TrelloAPIToken,
		cfg.Integrations.Timeout)

	notifierSvc := notifierService.NewService(
		licenseRepo, userRepo, notificationLogRepo, integrationRepo,
		emailSettingsRepo, directorySvc, pusher, dispatcher, deduper,
		m, appLogger.ZL,
		notifierService.Config{
			WindowDays: cfg.Sweep.WindowDays,
			BatchLimit: cfg.Sweep.BatchLimit,
		},
	)

	setupHealthCheck(registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info().Msg("shutting down...")
		cancel()
	}()

	sweepWorker := worker.NewSweepWorker(notifierSvc, appLogger.ZL, worker.Config{
		Schedule:         cfg.Sweep.Schedule,
		FallbackInterval: cfg.Sweep.FallbackInterval,
	})
	sweepWorker.Start(ctx)
}
