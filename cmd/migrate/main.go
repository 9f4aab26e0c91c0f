package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/Madhu097/realestate-fraud-detection/pkg/config"
	"github.com/Madhu097/realestate-fraud-detection/pkg/database"
	"github.com/Madhu097/realestate-fraud-detection/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", database.DefaultMigrationsDir, "directory holding the SQL migrations")
	steps := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	flag.Parse()

	cfg, err := config.Load("listing-migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Server.Environment, zap.String("service", cfg.Server.ServiceName)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.OpenSQL(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if *steps <= 0 {
		if err := database.MigrateUp(db, *dir); err != nil {
			logger.Fatal("migration failed", zap.Error(err))
		}
		return
	}

	m, err := database.NewMigrator(db, *dir)
	if err != nil {
		logger.Fatal("failed to load migrations", zap.Error(err))
	}
	if err := m.Steps(-*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("rollback failed", zap.Error(err))
	}
	logger.Info("rolled back migrations", zap.Int("steps", *steps))
}
