package main

import (
	"context"
	"log"
	"time"

	"bikeworkshop/internal/config"
	"bikeworkshop/internal/database"
	"bikeworkshop/internal/pkg/logger"
	"bikeworkshop/internal/repository"

	"go.uber.org/zap"
)

// Expires gateway attempts that never reached a verdict. Meant to run from cron.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.App.LogPath, cfg.App.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Connect(cfg.Database.URL, zlog)
	if err != nil {
		zlog.Fatal("db connect failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-cfg.Payment.AttemptTTL)
	n, err := repository.NewPaymentAttemptRepository(db).ExpireStale(ctx, cutoff)
	if err != nil {
		zlog.Fatal("cleanup payment_attempts failed", zap.Error(err))
	}

	zlog.Info("payment cleanup completed",
		zap.Int64("expired", n),
		zap.Time("cutoff", cutoff),
	)
}
