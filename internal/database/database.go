package database

import (
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Connect opens PostgreSQL for postgres:// DSNs and the pure-Go sqlite
// driver for anything else.
func Connect(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if IsPostgres(dsn) {
		log.Info("connecting to PostgreSQL")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	log.Info("using SQLite", zap.String("dsn", dsn))
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection serialises transactions
	// instead of failing them with SQLITE_BUSY.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	return db, nil
}

func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
