// @title Service Hub API
// @version 1.0
// @description Semantic matching between customer service requests and provider services.
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8090
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"service-hub/internal/adapter"
	"service-hub/internal/adapter/embedding"
	"service-hub/internal/adapter/notification"
	"service-hub/internal/cache"
	"service-hub/internal/config"
	"service-hub/internal/database"
	"service-hub/internal/handler"
	"service-hub/internal/logger"
	"service-hub/internal/metrics"
	"service-hub/internal/middleware"
	"service-hub/internal/repository"
	"service-hub/internal/service"

	_ "service-hub/cmd/api/docs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		// Process request
		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	// Connect to database
	db, err := database.NewSQLXPostgresDB(startupCtx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize Redis Client
	redisClient, err := cache.NewRedisClient(startupCtx, cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Embedding provider: cache, then rate limiter, then metrics, then the provider itself
	limiter := embedding.NewProviderLimiter(cfg.Embedding.RequestsPerMinute, cfg.Embedding.Burst)
	embeddingService, err := embedding.NewEmbeddingService(cfg.Embedding, cacheAdapter, limiter, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to create embedding service", zap.Error(err), zap.String("source", cfg.Embedding.Source))
	}
	appLogger.Info("Embedding service initialized",
		zap.String("source", cfg.Embedding.Source),
		zap.Int("dimension", cfg.Embedding.Dimension),
	)

	// Initialize repositories
	serviceRepo := repository.NewServiceDatabaseAdapter(db, cfg.Embedding.Dimension)
	requestRepo := repository.NewServiceRequestDatabaseAdapter(db, cfg.Embedding.Dimension)
	providerDirectory := repository.NewProviderDatabaseAdapter(db)

	// Initialize services
	generator := service.NewEmbeddingGenerator(embeddingService, cfg.Embedding.Dimension)
	embeddingStore := service.NewEmbeddingStore(generator, serviceRepo, requestRepo, appLogger)
	searchEngine := service.NewSearchService(serviceRepo, requestRepo, embeddingService, embeddingStore, cfg.Search, cfg.Embedding.Dimension, cfg.Embedding.RequestTimeout, appLogger)

	publisher := notification.NewRedisStreamPublisher(redisClient, cfg.Notification.Stream, cfg.Notification.MaxLen)
	notifier := service.NewNotifier(searchEngine, providerDirectory, publisher, cfg.Notification.PublishTimeout, appLogger)
	dispatcher := service.NewFanOutDispatcher(notifier, cfg.Notification.FanOutTimeout, appLogger)

	catalogService := service.NewCatalogService(serviceRepo, requestRepo, embeddingStore, dispatcher, cfg.Embedding.RequestTimeout, appLogger)

	authService, err := service.NewAuthService(cfg.JWT)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	appLogger.Info("Services initialized")

	// Initialize handlers
	serviceHandler := handler.NewServiceHandler(catalogService, searchEngine)
	requestHandler := handler.NewRequestHandler(catalogService, searchEngine)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"postgres": db.PingContext,
		"redis":    cacheAdapter.Ping,
	})

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())
	app.Use(metrics.Middleware())

	app.Get("/health", healthHandler.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/swagger/*", swagger.HandlerDefault)

	handler.SetupRoutes(app.Group("/api"), serviceHandler, requestHandler, authService)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := dispatcher.Wait(ctx); err != nil {
		appLogger.Warn("Notification fan-outs still running at shutdown", zap.Error(err))
	}
	if err := redisClient.Close(); err != nil {
		appLogger.Warn("Failed to close Redis client", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		appLogger.Warn("Failed to close database", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
