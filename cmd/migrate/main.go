package main

import (
	"context"
	"flag"
	"log"
	"time"

	"service-hub/database"
	"service-hub/internal/config"
	internaldb "service-hub/internal/database"
	"service-hub/internal/logger"

	"go.uber.org/zap"
)

func main() {
	down := flag.Bool("down", false, "roll back the most recent migration instead of applying pending ones")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	l := logger.Get()
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := internaldb.NewSQLXPostgresDB(ctx, cfg, l)
	if err != nil {
		l.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *down {
		m, err := internaldb.NewMigrator(db.DB, database.Migrations, "migrations")
		if err != nil {
			l.Fatal("Failed to create migrator", zap.Error(err))
		}
		if err := m.Steps(-1); err != nil {
			l.Fatal("Failed to roll back migration", zap.Error(err))
		}
		l.Info("Rolled back one migration")
		return
	}

	if err := internaldb.RunMigrations(db.DB, database.Migrations, "migrations", l); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}
}
