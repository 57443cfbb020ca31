// Package bootstrap wires the process-wide runtime: database, schema policy,
// Redis and the feed store.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"snapfeed/internal/cache"
	"snapfeed/internal/config"
	"snapfeed/internal/database"
	"snapfeed/internal/middleware"
	"snapfeed/internal/repository"
	"snapfeed/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// EnsureAdmin upserts the ADMIN_* account at startup in development.
	EnsureAdmin bool
}

// Runtime holds the shared connections a process runs on.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store repository.FeedStore
}

// InitRuntime connects to the database and Redis and provisions the feed
// store. A missing Redis leaves Redis nil; caching and rate limits degrade.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	rt := &Runtime{
		DB:    db,
		Redis: cache.GetClient(),
		Store: repository.NewPostStore(db, cfg.FeedStoreMode),
	}

	ctx := context.Background()
	if err := rt.Store.EnsureInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("feed store provisioning failed: %w", err)
	}

	if opts.EnsureAdmin {
		if err := ensureDevAdmin(ctx, cfg, db); err != nil {
			return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
		}
	}

	return rt, nil
}

func ensureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	admin, err := seed.EnsureAdmin(ctx, db, seed.Options{
		AdminEmail:    cfg.AdminEmail,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	})
	if errors.Is(err, seed.ErrAdminNotConfigured) {
		return nil
	}
	if err != nil {
		return err
	}
	middleware.Logger.Info("development admin ensured", slog.String("email", admin.Email))
	return nil
}
