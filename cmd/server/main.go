package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pinauth/pin-relay/internal/config"
	"github.com/pinauth/pin-relay/internal/database"
	"github.com/pinauth/pin-relay/internal/handler"
	"github.com/pinauth/pin-relay/internal/jobs"
	"github.com/pinauth/pin-relay/internal/redis"
	"github.com/pinauth/pin-relay/internal/relay"
	"github.com/pinauth/pin-relay/internal/repository"
	"github.com/pinauth/pin-relay/internal/service"
	"github.com/pinauth/pin-relay/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("DEPLOY_TARGET") == "" || os.Getenv("DEPLOY_TARGET") == string(config.TargetLocal) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	var store repository.Store
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
		if err := db.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create schema")
		}
		cancel()
		log.Info().Msg("database connected")

		store = repository.NewPostgresStore(db)
	} else {
		store = repository.NewMemoryStore()
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
	}

	var (
		resultCache service.ResultCache = service.NopResultCache{}
		limiter     service.Limiter     = service.NewMemoryRateLimiter()
	)
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("redis connected")

		resultCache = service.NewRedisResultCache(redisClient.Client, cfg.ResultCacheTTL())
		limiter = service.NewRateLimiter(redisClient.Client)
	}

	var archive service.ImageArchive = storage.NopArchive{}
	if cfg.ImageArchiveBucket != "" {
		s3Archive, err := storage.NewS3ArchiveFromEnv(context.Background(), cfg.AWSRegion, cfg.ImageArchiveBucket, cfg.ImageArchivePrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure image archive")
		}
		archive = s3Archive
		log.Info().Str("bucket", cfg.ImageArchiveBucket).Msg("image archive enabled")
	}

	relayLogs := relay.NewLogBuffer(cfg.RelayLogSize)
	relayClient := relay.NewClient(
		cfg.MasterAPIURL,
		cfg.MasterAPIKey,
		relay.WithUploadPath(cfg.MasterUploadPath),
		relay.WithDefaultTimeout(cfg.UploadTimeout()),
		relay.WithLogSink(relayLogs),
	)

	verifyService := service.NewVerificationService(
		relayClient, store.Pins(), resultCache, archive, cfg.UploadTimeout(), cfg.HealthTimeout(),
	)
	feedbackService := service.NewFeedbackService(store)

	monitor := jobs.NewHealthMonitor(relayClient, cfg.HealthProbeInterval(), cfg.HealthTimeout())
	monitor.Start()
	defer monitor.Stop()

	r := handler.NewRouter(handler.RouterDeps{
		VerifyService:   verifyService,
		FeedbackService: feedbackService,
		Logs:            relayLogs,
		Monitor:         monitor,
		Limiter:         limiter,
		UploadLimit:     cfg.UploadRateLimitPerMin,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		RequestTimeout:  cfg.RequestTimeout(),
		StaticDir:       cfg.ResolvedStaticDir(),
		IsProduction:    cfg.IsProduction(),
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("target", string(cfg.DeployTarget)).
			Str("master", cfg.MasterAPIURL).
			Str("static", cfg.ResolvedStaticDir()).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
