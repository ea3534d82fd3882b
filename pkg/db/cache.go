package db

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vartasolar/fieldops-backend/pkg/config"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
)

// CacheClient wraps the GORM connection to the local SQLite cache database.
// It must keep working when the remote backend is unreachable, so it never
// depends on anything outside the local filesystem.
type CacheClient struct {
	conn *gorm.DB
}

// NewCache opens (creating if needed) the local cache database.
func NewCache(ctx context.Context, cfg config.CacheConfig, logg *logger.Logger) (*CacheClient, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache database path is required")
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", cfg.Path, cfg.BusyTimeout.Milliseconds())

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids lock churn.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting cache sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if logg != nil {
		logg.Info(ctx, "cache database opened")
	}

	return &CacheClient{conn: conn}, nil
}

// DB returns the underlying GORM connection.
func (c *CacheClient) DB() *gorm.DB {
	return c.conn
}

// Ping verifies the cache database is usable.
func (c *CacheClient) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the cache connection.
func (c *CacheClient) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
