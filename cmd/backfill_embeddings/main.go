package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"service-hub/internal/adapter"
	"service-hub/internal/adapter/embedding"
	"service-hub/internal/cache"
	"service-hub/internal/config"
	"service-hub/internal/database"
	"service-hub/internal/domain"
	"service-hub/internal/logger"
	"service-hub/internal/repository"
	"service-hub/internal/service"

	"go.uber.org/zap"
)

func main() {
	kindFlag := flag.String("kind", "all", "which table to backfill: service, service_request or all")
	flag.Parse()

	var kinds []domain.EntityKind
	switch *kindFlag {
	case "all":
		kinds = []domain.EntityKind{domain.EntityKindService, domain.EntityKindServiceRequest}
	case string(domain.EntityKindService), string(domain.EntityKindServiceRequest):
		kinds = []domain.EntityKind{domain.EntityKind(*kindFlag)}
	default:
		fmt.Printf("Unknown kind %q\n", *kindFlag)
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		// Logger is not up yet
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("Embedding backfill starting up...", zap.String("kind", *kindFlag))

	db, err := database.NewSQLXPostgresDB(ctx, cfg, l)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Without Redis the backfill still runs, just uncached.
	var cacheAdapter domain.Cache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			l.Fatal("Failed to initialize Redis Client", zap.Error(err))
		}
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
	} else {
		l.Warn("Redis cache is not configured. Running without cache.")
	}

	limiter := embedding.NewProviderLimiter(cfg.Embedding.RequestsPerMinute, cfg.Embedding.Burst)
	embeddingService, err := embedding.NewEmbeddingService(cfg.Embedding, cacheAdapter, limiter, l)
	if err != nil {
		l.Fatal("Failed to initialize embedding service", zap.Error(err))
	}

	serviceRepo := repository.NewServiceDatabaseAdapter(db, cfg.Embedding.Dimension)
	requestRepo := repository.NewServiceRequestDatabaseAdapter(db, cfg.Embedding.Dimension)

	generator := service.NewEmbeddingGenerator(embeddingService, cfg.Embedding.Dimension)
	store := service.NewEmbeddingStore(generator, serviceRepo, requestRepo, l)
	backfill := service.NewBackfillService(serviceRepo, requestRepo, store, cfg.Backfill, l)

	for _, kind := range kinds {
		summary, err := backfill.Run(ctx, kind)
		if err != nil {
			l.Fatal("Backfill failed", zap.String("kind", string(kind)), zap.Error(err))
		}
		l.Info("Backfill finished",
			zap.String("kind", string(summary.Kind)),
			zap.Int("processed", summary.Processed),
			zap.Int("updated", summary.Updated),
			zap.Int("skipped", summary.Skipped),
			zap.Bool("quota_exceeded", summary.QuotaExceeded),
		)
		if summary.QuotaExceeded {
			l.Warn("Daily embedding quota exhausted, rerun tomorrow to finish")
			return
		}
	}
}
