package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"snapfeed/internal/database"
	"snapfeed/internal/middleware"
	"snapfeed/internal/observability"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

var feedTables = []string{"posts", "post_likes", "post_comments"}

const (
	feedMigrationVersion = 2
	provisionTimeout     = 30 * time.Second
)

// infraGuard runs provision at most once successfully. Concurrent callers
// share one in-flight attempt; a failed attempt is reported to every waiter
// and the next call tries again.
type infraGuard struct {
	ready     atomic.Bool
	inflight  singleflight.Group
	provision func(ctx context.Context) error
}

func newInfraGuard(provision func(ctx context.Context) error) *infraGuard {
	return &infraGuard{provision: provision}
}

func (g *infraGuard) Ensure(ctx context.Context) error {
	if g.ready.Load() {
		return nil
	}
	_, err, _ := g.inflight.Do("feed-infrastructure", func() (interface{}, error) {
		if g.ready.Load() {
			return nil, nil
		}
		// Detached from the first caller: every waiter shares this attempt.
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), provisionTimeout)
		defer cancel()
		if err := g.provision(pctx); err != nil {
			observability.FeedInfrastructureProvisions.WithLabelValues("failure").Inc()
			return nil, err
		}
		g.ready.Store(true)
		observability.FeedInfrastructureProvisions.WithLabelValues("success").Inc()
		return nil, nil
	})
	return err
}

// provisionFeedTables creates the post, like and comment tables when they
// are missing. The tables match the migrated schema so the native strategy
// can take over once they exist.
func provisionFeedTables(ctx context.Context, db *gorm.DB) error {
	statements, err := feedDDL(db.Dialector.Name())
	if err != nil {
		return err
	}

	start := time.Now()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "feed infrastructure provisioning failed", slog.String("error", err.Error()))
		return fmt.Errorf("provision feed tables: %w", err)
	}

	middleware.Logger.InfoContext(ctx, "feed infrastructure ready",
		slog.String("dialect", db.Dialector.Name()),
		slog.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// countFeedTables reports how many feed tables exist with one catalog query.
func countFeedTables(db *gorm.DB) (int64, error) {
	var catalog string
	switch db.Dialector.Name() {
	case "postgres":
		catalog = "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = CURRENT_SCHEMA() AND table_name IN ?"
	case "sqlite":
		catalog = "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ?"
	default:
		var n int64
		migrator := db.Migrator()
		for _, table := range feedTables {
			if migrator.HasTable(table) {
				n++
			}
		}
		return n, nil
	}

	var n int64
	if err := db.Raw(catalog, feedTables).Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("probe feed tables: %w", err)
	}
	return n, nil
}

func feedDDL(dialect string) ([]string, error) {
	switch dialect {
	case "postgres":
		m := database.GetMigrationByVersion(feedMigrationVersion)
		if m == nil {
			return nil, fmt.Errorf("feed migration %06d is not registered", feedMigrationVersion)
		}
		return []string{m.UpScript}, nil
	case "sqlite":
		return sqliteFeedDDL, nil
	default:
		return nil, fmt.Errorf("no feed DDL for dialect %q", dialect)
	}
}

var sqliteFeedDDL = []string{
	`CREATE TABLE IF NOT EXISTS posts (
	id VARCHAR(36) PRIMARY KEY,
	image_url TEXT NOT NULL,
	caption VARCHAR(1024),
	author_id VARCHAR(36) NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS post_likes (
	id VARCHAR(36) PRIMARY KEY,
	post_id VARCHAR(36) NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
	user_id VARCHAR(36) NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	created_at DATETIME NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_post_likes_post_user ON post_likes (post_id, user_id)`,
	`CREATE TABLE IF NOT EXISTS post_comments (
	id VARCHAR(36) PRIMARY KEY,
	post_id VARCHAR(36) NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
	user_id VARCHAR(36) NOT NULL REFERENCES users (id) ON DELETE CASCADE,
	content VARCHAR(500) NOT NULL,
	created_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_post_comments_post_created ON post_comments (post_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_post_comments_user_id ON post_comments (user_id)`,
}
