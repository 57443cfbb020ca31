package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"snapfeed/internal/middleware"
	"snapfeed/internal/models"
	"snapfeed/internal/observability"

	"gorm.io/gorm"
)

// Store modes select how the post store picks a strategy.
const (
	StoreModeAuto   = "auto"
	StoreModeNative = "native"
	StoreModeRaw    = "raw"
)

// Strategy labels used in logs, metrics and spans.
const (
	pathNative = "native"
	pathRaw    = "raw"
)

// DefaultFeedLimit is the page size when a query does not set one.
const DefaultFeedLimit = 20

// FeedQuery selects a page of the feed, newest first.
type FeedQuery struct {
	Limit        int
	AuthorID     string
	ViewerID     string
	CommentLimit int
}

func (q FeedQuery) withDefaults() FeedQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultFeedLimit
	}
	if q.CommentLimit <= 0 {
		q.CommentLimit = models.DefaultCommentWindow
	}
	return q
}

// NewPost is a post ready to be stored. Author is the authenticated creator.
type NewPost struct {
	Author   models.PublicUser
	ImageURL string
	Caption  *string
}

// NewComment is a normalized comment ready to be stored.
type NewComment struct {
	PostID  string
	Author  models.PublicUser
	Content string
}

// PostStore is the persistence contract for posts, likes and comments.
// Every strategy returns the shared shapes from the models package.
type PostStore interface {
	ListFeed(ctx context.Context, q FeedQuery) ([]models.FeedEntry, error)
	CreatePost(ctx context.Context, p NewPost) (*models.FeedEntry, error)
	ToggleLike(ctx context.Context, postID, userID string) (*models.LikeToggle, error)
	AddComment(ctx context.Context, c NewComment) (*models.CommentResult, error)
	CountPostsByAuthor(ctx context.Context, authorID string) (int64, error)
}

// FeedStore is a PostStore that can also provision its fallback tables and
// report whether the migrated schema is usable.
type FeedStore interface {
	PostStore
	EnsureInfrastructure(ctx context.Context) error
	HasNativeSchema(ctx context.Context) bool
}

// PostStoreOption customizes NewPostStore.
type PostStoreOption func(*postAdapter)

// WithClock overrides the clock used to stamp new rows.
func WithClock(now func() time.Time) PostStoreOption {
	return func(a *postAdapter) {
		a.native.now = now
		a.raw.now = now
	}
}

type postAdapter struct {
	db     *gorm.DB
	mode   string
	native *nativePostStore
	raw    *rawPostStore
	infra  *infraGuard
}

// NewPostStore returns the mode-aware post store. Unknown modes behave as auto.
func NewPostStore(db *gorm.DB, mode string, opts ...PostStoreOption) FeedStore {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case StoreModeNative, StoreModeRaw:
	default:
		mode = StoreModeAuto
	}

	a := &postAdapter{
		db:     db,
		mode:   mode,
		native: newNativePostStore(db),
		raw:    newRawPostStore(db),
	}
	a.infra = newInfraGuard(func(ctx context.Context) error {
		return provisionFeedTables(ctx, db)
	})
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *postAdapter) EnsureInfrastructure(ctx context.Context) error {
	return a.infra.Ensure(ctx)
}

// HasNativeSchema is evaluated on every call so tables migrated while the
// process runs are picked up without a restart.
func (a *postAdapter) HasNativeSchema(ctx context.Context) bool {
	if a.mode == StoreModeRaw {
		return false
	}
	present, err := countFeedTables(a.db.WithContext(ctx))
	if err != nil {
		middleware.Logger.WarnContext(ctx, "feed schema probe failed", slog.String("error", err.Error()))
		return false
	}
	return present == int64(len(feedTables))
}

func (a *postAdapter) ListFeed(ctx context.Context, q FeedQuery) ([]models.FeedEntry, error) {
	q = q.withDefaults()
	return dispatch(ctx, a, "list_feed",
		func(ctx context.Context) ([]models.FeedEntry, error) { return a.native.ListFeed(ctx, q) },
		func(ctx context.Context) ([]models.FeedEntry, error) { return a.raw.ListFeed(ctx, q) },
	)
}

func (a *postAdapter) CreatePost(ctx context.Context, p NewPost) (*models.FeedEntry, error) {
	return dispatch(ctx, a, "create_post",
		func(ctx context.Context) (*models.FeedEntry, error) { return a.native.CreatePost(ctx, p) },
		func(ctx context.Context) (*models.FeedEntry, error) { return a.raw.CreatePost(ctx, p) },
	)
}

func (a *postAdapter) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeToggle, error) {
	return dispatch(ctx, a, "toggle_like",
		func(ctx context.Context) (*models.LikeToggle, error) { return a.native.ToggleLike(ctx, postID, userID) },
		func(ctx context.Context) (*models.LikeToggle, error) { return a.raw.ToggleLike(ctx, postID, userID) },
	)
}

func (a *postAdapter) AddComment(ctx context.Context, c NewComment) (*models.CommentResult, error) {
	return dispatch(ctx, a, "add_comment",
		func(ctx context.Context) (*models.CommentResult, error) { return a.native.AddComment(ctx, c) },
		func(ctx context.Context) (*models.CommentResult, error) { return a.raw.AddComment(ctx, c) },
	)
}

func (a *postAdapter) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	return dispatch(ctx, a, "count_posts_by_author",
		func(ctx context.Context) (int64, error) { return a.native.CountPostsByAuthor(ctx, authorID) },
		func(ctx context.Context) (int64, error) { return a.raw.CountPostsByAuthor(ctx, authorID) },
	)
}

// dispatch routes one operation to a strategy. In auto mode a native call
// that fails on a missing relation is served again by the raw strategy.
func dispatch[T any](
	ctx context.Context,
	a *postAdapter,
	op string,
	native func(context.Context) (T, error),
	raw func(context.Context) (T, error),
) (T, error) {
	if a.mode == StoreModeNative || (a.mode == StoreModeAuto && a.HasNativeSchema(ctx)) {
		out, err := traced(ctx, op, pathNative, native)
		if err == nil || a.mode == StoreModeNative || !IsMissingRelationError(err) {
			return out, err
		}
		middleware.Logger.WarnContext(ctx, "native post store unavailable, falling back to raw",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		observability.FeedStoreFallbacks.WithLabelValues(op).Inc()
	}

	if err := a.EnsureInfrastructure(ctx); err != nil {
		var zero T
		return zero, fmt.Errorf("ensure feed infrastructure: %w", err)
	}
	return traced(ctx, op, pathRaw, raw)
}

func traced[T any](ctx context.Context, op, path string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := observability.StartStoreSpan(ctx, op, path)
	out, err := fn(ctx)
	observability.EndSpan(span, err)
	observability.RecordFeedPath(path, op)
	return out, err
}
