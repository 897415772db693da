package app

import (
	"context"
	"database/sql"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"rideshare/internal/handler"
	"rideshare/internal/middleware"
	internalRedis "rideshare/internal/redis"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler    *handler.AuthHandler
	UserHandler    *handler.UserHandler
	RideHandler    *handler.RideHandler
	BookingHandler *handler.BookingHandler
	ChatHandler    *handler.ChatHandler
	Users          middleware.UserResolver
	RateLimiter    *middleware.IPRateLimiter
	RedisClient    *redis.Client
	LockStore      internalRedis.LockStoreInterface
	DB             *sql.DB // Optional; only used by the readiness probe
	NewRelicApp    *newrelic.Application
	Logger         logrus.FieldLogger
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", readinessHandler(deps))

	api := router.Group("/api")

	// The websocket outlives any request timeout.
	api.GET("/chat/ws", deps.ChatHandler.Connect)

	timed := api.Group("")
	timed.Use(middleware.Timeout(deps.RequestTimeout))
	idempotency := middleware.IdempotencyMiddleware(deps.RedisClient, deps.LockStore, deps.Logger)

	// Public auth routes.
	authRoutes := timed.Group("/auth")
	authRoutes.Use(middleware.RateLimit(deps.RateLimiter))
	{
		authRoutes.POST("/register", deps.AuthHandler.Register)
		authRoutes.POST("/login", deps.AuthHandler.Login)
	}

	protected := timed.Group("")
	protected.Use(middleware.Auth(deps.Users), idempotency)
	{
		protected.GET("/auth/me", deps.AuthHandler.Me)
		protected.PUT("/users/toggle-role", deps.UserHandler.ToggleRole)

		rides := protected.Group("/rides")
		{
			rides.POST("", deps.RideHandler.Publish)
			rides.GET("", deps.RideHandler.Search)
			rides.GET("/my", deps.RideHandler.ListMine)
		}

		bookings := protected.Group("/bookings")
		{
			bookings.POST("", deps.BookingHandler.Book)
			bookings.GET("/my", deps.BookingHandler.ListMine)
		}

		protected.GET("/chat/:ride_id/messages", deps.ChatHandler.History)
	}

	return router
}

// corsConfig allows the listed browser origins. An empty list or "*" opens
// CORS to every origin, without credentials.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func readinessHandler(deps RouterDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		checks := gin.H{}
		healthy := true

		if deps.DB != nil {
			checks["postgres"] = "ok"
			if err := deps.DB.PingContext(ctx); err != nil {
				checks["postgres"] = err.Error()
				healthy = false
			}
		}
		if deps.RedisClient != nil {
			checks["redis"] = "ok"
			if err := deps.RedisClient.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			}
		}

		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": checks})
	}
}
