package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/partsentry/internal/config"
	"github.com/smallbiznis/partsentry/internal/observability/logger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("db", fx.Provide(Open))

// Open opens the SQLite database and registers a lifecycle hook that
// closes the underlying connection on shutdown.
func Open(lc fx.Lifecycle, cfg config.Config) (*gorm.DB, error) {
	path := cfg.DBPath
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.NewGormLogger(logger.DefaultGormLoggerConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %s: %w", path, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	// A single writer keeps SQLite happy under the batch worker pool;
	// readers multiplex over the same connection.
	sqlDB.SetMaxOpenConns(1)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				_ = ctx
				return sqlDB.Close()
			},
		})
	}

	return conn, nil
}

func dsn(path string) string {
	// busy_timeout guards concurrent workers against transient lock errors,
	// foreign_keys stays off because the discovery log must survive part deletion.
	return fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}
