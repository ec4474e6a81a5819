package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
	"github.com/zenjournal/zenjournal-backend/internal/config"
	"github.com/zenjournal/zenjournal-backend/internal/database"
	"github.com/zenjournal/zenjournal-backend/internal/handlers"
	"github.com/zenjournal/zenjournal-backend/internal/logger"
	"github.com/zenjournal/zenjournal-backend/internal/middleware"
	"github.com/zenjournal/zenjournal-backend/internal/repository"
	"github.com/zenjournal/zenjournal-backend/internal/routes"
	"github.com/zenjournal/zenjournal-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Logger = logger.New("zenjournal-api", cfg.LogLevel, !cfg.IsProduction())
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn().Msg("⚠️  JWT_SECRET is the development default. Set it before deploying.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Msg("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(ctx, cfg.PostgresURI); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.DisconnectPostgres()

	log.Info().Msg("Connecting to Redis...")
	if err := database.ConnectRedis(ctx, cfg.RedisURI); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.DisconnectRedis()

	log.Info().Msg("Connecting to MongoDB...")
	if err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer database.Disconnect()

	entryRepo := repository.NewEntryRepository(database.DB)
	if err := entryRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("⚠️  failed to ensure entry indexes")
	} else {
		log.Info().Msg("✅ MongoDB entry indexes ensured")
	}
	userRepo := repository.NewUserRepository(database.PostgresDB)

	hub := services.NewEntryEventHub(database.RedisClient)
	hub.Start(ctx)

	issuer := auth.NewIssuer(cfg.JWTSecret, auth.TokenTTL)
	authSvc := services.NewAuthService(userRepo, issuer, auth.NewRedisRevoker(database.RedisClient))
	entrySvc := services.NewEntryService(
		entryRepo,
		services.NewEntryCache(database.RedisClient, cfg.PublicEntryCacheTTL),
		hub,
	)

	deps := routes.Deps{
		Config:      cfg,
		Auth:        authSvc,
		Entries:     entrySvc,
		Events:      hub,
		RateLimiter: middleware.NewRedisRateLimiter(database.RedisClient, 120, time.Minute, 5*time.Minute),
		Health: map[string]handlers.Pinger{
			"mongodb":  func(ctx context.Context) error { return database.Client.Ping(ctx, nil) },
			"redis":    func(ctx context.Context) error { return database.RedisClient.Ping(ctx).Err() },
			"postgres": func(ctx context.Context) error { return database.PostgresDB.PingContext(ctx) },
		},
	}

	if cfg.CloudinaryConfigured() {
		media, err := services.NewMediaService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize Cloudinary. Uploads will not be available")
		} else {
			deps.Media = media
			log.Info().Msg("✅ Cloudinary service initialized")
		}
	} else {
		log.Warn().Msg("Cloudinary credentials not found. Uploads will not be available")
	}

	if cfg.IsProduction() {
		log.Info().Msg("✅ Production security enabled (security headers, host check, per-IP + login rate limiting)")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("🚀 ZenJournal backend running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
