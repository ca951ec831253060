package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/renovahub/renewal-api/internal/config"
	authHandler "github.com/renovahub/renewal-api/internal/handler/auth"
	emailcfgHandler "github.com/renovahub/renewal-api/internal/handler/emailcfg"
	integrationHandler "github.com/renovahub/renewal-api/internal/handler/integration"
	licenseHandler "github.com/renovahub/renewal-api/internal/handler/license"
	notificationHandler "github.com/renovahub/renewal-api/internal/handler/notification"
	userHandler "github.com/renovahub/renewal-api/internal/handler/user"
	integrationPkg "github.com/renovahub/renewal-api/internal/integration"
	"github.com/renovahub/renewal-api/internal/middleware"
	"github.com/renovahub/renewal-api/internal/push"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
	"github.com/renovahub/renewal-api/internal/router"
	authService "github.com/renovahub/renewal-api/internal/service/auth"
	directoryService "github.com/renovahub/renewal-api/internal/service/directory"
	emailcfgService "github.com/renovahub/renewal-api/internal/service/emailcfg"
	licenseService "github.com/renovahub/renewal-api/internal/service/license"
	notifierService "github.com/renovahub/renewal-api/internal/service/notifier"
	userService "github.com/renovahub/renewal-api/internal/service/user"
	"github.com/renovahub/renewal-api/pkg/auth"
	"github.com/renovahub/renewal-api/pkg/logger"
	"github.com/renovahub/renewal-api/pkg/metrics"
	"github.com/renovahub/renewal-api/pkg/security"
)

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

	// redis is optional: without it dedup degrades to always-send
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
	m := metrics.New("renovahub", registry)

	// repositories
	licenseRepo := postgres.NewLicenseRepository(db)
	userRepo := postgres.NewUserRepository(db)
	roleRepo := postgres.NewRoleRepository(db)
	integrationRepo := postgres.NewIntegrationRepository(db)
	emailSettingsRepo := postgres.NewEmailSettingsRepository(db)
	notificationLogRepo := postgres.NewNotificationLogRepository(db)

	// services
	jwtSvc := auth.NewJWTService(auth.JWTConfig{
		Secret:             cfg.JWT.Secret,
		RefreshSecret:      cfg.JWT.RefreshSecret,
		ExpiryHours:        cfg.JWT.ExpiryHours,
		RefreshExpiryHours: cfg.JWT.RefreshExpiryHours,
	})
	hasher := security.NewBcryptHasher(12)
	authSvc := authService.NewService(userRepo, roleRepo, jwtSvc, hasher)
	licenseSvc := licenseService.NewService(licenseRepo)
	userSvc := userService.NewService(userRepo, roleRepo)
	directorySvc := directoryService.NewService(userRepo)
	emailcfgSvc := emailcfgService.NewService(emailSettingsRepo)

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

	// handlers
	authH := authHandler.NewHandler(authSvc)
	licenseH := licenseHandler.NewHandler(licenseSvc, notifierSvc)
	userH := userHandler.NewHandler(userSvc, authSvc)
	notificationH := notificationHandler.NewHandler(notifierSvc)
	integrationH := integrationHandler.NewHandler(integrationRepo, dispatcher)
	emailCfgH := emailcfgHandler.NewHandler(emailcfgSvc)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	}

	r := router.New(
		authMiddleware, db,
		authH, licenseH, userH, notificationH, integrationH, emailCfgH,
		registry,
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
			CORSConfig:       corsConfig,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
