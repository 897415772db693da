package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"rideshare/internal/app"
	"rideshare/internal/auth"
	"rideshare/internal/chat"
	"rideshare/internal/config"
	"rideshare/internal/handler"
	"rideshare/internal/logger"
	"rideshare/internal/middleware"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/repository/postgres"
	"rideshare/internal/service"
)

func main() {
	_ = godotenv.Load() // load .env if present

	// Load configuration.
	cfg := config.Load()
	log := logger.New(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Warn("failed to initialize New Relic")
		} else {
			log.WithField("app", cfg.NewRelic.AppName).Info("New Relic enabled")
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()
	log.Info("connected to PostgreSQL")

	if cfg.Migrate {
		if err := app.RunMigrations(db, log); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info("connected to Redis")

	// Background workers stop when runCtx is cancelled.
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	server := wireServer(runCtx, db, redisClient, nrApp, cfg, log)

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	stop()
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(ctx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, log *logrus.Logger) *http.Server {
	// Initialize Redis stores.
	cacheStore := internalRedis.NewCacheStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Chat fan-out: the hub serves this instance's sockets; with Redis every
	// instance's hub is fed from the shared bus.
	hub := chat.NewHub(log)
	var publisher service.MessagePublisher = hub
	if cfg.Chat.Fanout == "redis" {
		bus := internalRedis.NewChatBus(redisClient, log)
		publisher = bus
		go func() {
			if err := bus.Run(ctx, hub.Broadcast); err != nil {
				log.WithError(err).Error("chat bus stopped")
			}
		}()
	}

	// Initialize services.
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL)
	userService := service.NewUserService(userRepo, hasher, tokens, cacheStore, log)
	rideService := service.NewRideService(rideRepo, log)
	bookingService := service.NewBookingService(rideRepo, bookingRepo, log)
	chatService := service.NewChatService(messageRepo, hub, publisher, log)

	rateLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go rateLimiter.Cleanup(ctx, time.Minute)

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:    handler.NewAuthHandler(userService),
		UserHandler:    handler.NewUserHandler(userService),
		RideHandler:    handler.NewRideHandler(rideService),
		BookingHandler: handler.NewBookingHandler(bookingService),
		ChatHandler: handler.NewChatHandler(chatService, hub, userService, handler.ChatHandlerConfig{
			RequireAuth:    cfg.Chat.RequireAuth,
			SendBuffer:     cfg.Chat.SendBuffer,
			EventTimeout:   cfg.Server.RequestTimeout,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		}, log),
		Users:          userService,
		RateLimiter:    rateLimiter,
		RedisClient:    redisClient,
		LockStore:      lockStore,
		DB:             db,
		NewRelicApp:    nrApp,
		Logger:         log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
