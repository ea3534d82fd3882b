package migrate

import (
	"context"
	"fmt"

	"github.com/vartasolar/fieldops-backend/pkg/config"
	"github.com/vartasolar/fieldops-backend/pkg/db"
	"github.com/vartasolar/fieldops-backend/pkg/logger"
)

// MaybeRunCache migrates the local cache schema at boot when enabled. Unlike a
// shared backend schema, the cache belongs to this process alone, so running
// migrations on startup is the default.
func MaybeRunCache(ctx context.Context, cfg *config.Config, logg *logger.Logger, cache *db.CacheClient) error {
	if !cfg.Cache.AutoMigrate {
		return nil
	}

	sqlDB, err := cache.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"dir": DefaultDir, "path": cfg.Cache.Path})
	logg.Info(ctx, "running cache schema migrations")

	if err := Up(ctx, sqlDB, DefaultDir); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "cache schema migrations completed")
	return nil
}
