package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/drivingschool-api/pkg/config"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// DSN builds the lib/pq connection string for cfg.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
}

// NewPostgres opens the pool and waits for the server, retrying while it starts up.
// Booking writes hold one connection per request for the lock transaction, so
// MaxOpenConns bounds concurrent booking writes.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		if attempt == connectAttempts || ctx.Err() != nil {
			_ = db.Close()
			return nil, fmt.Errorf("connect postgres %s:%d: %w", cfg.Host, cfg.Port, err)
		}
		logger.Warn("postgres not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-time.After(connectBackoff):
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		}
	}
}
