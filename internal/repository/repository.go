package repository

import (
	"github.com/dinerozz/tracking-backend/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"log/slog"
	"time"
)

func NewRepository(cfg config.DatabaseConfig, logger *slog.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		logger.Error("error connecting to database", slog.Any("error", err))
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		logger.Error("error pinging database", slog.Any("error", err))
		return nil, err
	}

	// write paths are short single statements, keep the pool wide
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Info("connected to database", slog.String("host", cfg.Host), slog.String("db", cfg.DBName))

	return db, nil
}
