package repository

import (
	"context"
	"fmt"
	"time"

	"snapfeed/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// rawPostStore serves posts with hand-written SQL over the provisioned
// tables. It never touches the gorm model metadata.
type rawPostStore struct {
	db  *gorm.DB
	now func() time.Time
}

func newRawPostStore(db *gorm.DB) *rawPostStore {
	return &rawPostStore{db: db, now: time.Now}
}

func (s *rawPostStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

type rawPostRow struct {
	ID                string
	ImageURL          string
	Caption           *string
	CreatedAt         time.Time
	AuthorID          string
	AuthorUsername    string
	AuthorDisplayName *string
}

type rawCommentRow struct {
	ID                string
	PostID            string
	Content           string
	CreatedAt         time.Time
	AuthorID          string
	AuthorUsername    string
	AuthorDisplayName *string
}

type rawCountRow struct {
	PostID string
	Total  int64
}

const rawFeedPageSQL = `
SELECT p.id, p.image_url, p.caption, p.created_at,
	u.id AS author_id, u.username AS author_username, u.display_name AS author_display_name
FROM posts p
JOIN users u ON u.id = p.author_id`

const rawRecentCommentsSQL = `
SELECT c.id, c.post_id, c.content, c.created_at,
	u.id AS author_id, u.username AS author_username, u.display_name AS author_display_name
FROM post_comments c
JOIN users u ON u.id = c.user_id
WHERE c.id IN (
	SELECT id FROM (
		SELECT id, ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY created_at DESC, id DESC) AS rn
		FROM post_comments
		WHERE post_id IN ?
	) ranked
	WHERE rn <= ?
)
ORDER BY c.created_at DESC, c.id DESC`

func (s *rawPostStore) ListFeed(ctx context.Context, q FeedQuery) ([]models.FeedEntry, error) {
	var page []rawPostRow
	var err error
	if q.AuthorID != "" {
		err = s.db.WithContext(ctx).
			Raw(rawFeedPageSQL+"\nWHERE p.author_id = ?\nORDER BY p.created_at DESC, p.id DESC\nLIMIT ?", q.AuthorID, q.Limit).
			Scan(&page).Error
	} else {
		err = s.db.WithContext(ctx).
			Raw(rawFeedPageSQL+"\nORDER BY p.created_at DESC, p.id DESC\nLIMIT ?", q.Limit).
			Scan(&page).Error
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if len(page) == 0 {
		return []models.FeedEntry{}, nil
	}

	ids := make([]string, len(page))
	for i := range page {
		ids[i] = page[i].ID
	}

	var (
		likeCounts    []rawCountRow
		commentCounts []rawCountRow
		viewerLiked   []string
		comments      []rawCommentRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Raw("SELECT post_id, COUNT(*) AS total FROM post_likes WHERE post_id IN ? GROUP BY post_id", ids).
			Scan(&likeCounts).Error
	})
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Raw("SELECT post_id, COUNT(*) AS total FROM post_comments WHERE post_id IN ? GROUP BY post_id", ids).
			Scan(&commentCounts).Error
	})
	if q.ViewerID != "" {
		g.Go(func() error {
			return s.db.WithContext(gctx).
				Raw("SELECT post_id FROM post_likes WHERE user_id = ? AND post_id IN ?", q.ViewerID, ids).
				Scan(&viewerLiked).Error
		})
	}
	g.Go(func() error {
		return s.db.WithContext(gctx).
			Raw(rawRecentCommentsSQL, ids, q.CommentLimit).
			Scan(&comments).Error
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich feed: %w", err)
	}

	likes := make(map[string]int64, len(likeCounts))
	for _, row := range likeCounts {
		likes[row.PostID] = row.Total
	}
	commentTotals := make(map[string]int64, len(commentCounts))
	for _, row := range commentCounts {
		commentTotals[row.PostID] = row.Total
	}
	liked := make(map[string]bool, len(viewerLiked))
	for _, id := range viewerLiked {
		liked[id] = true
	}
	recent := make(map[string][]models.FeedComment, len(page))
	for _, row := range comments {
		recent[row.PostID] = append(recent[row.PostID], models.FeedComment{
			ID:        row.ID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
			Author: models.PublicUser{
				ID:          row.AuthorID,
				Username:    row.AuthorUsername,
				DisplayName: row.AuthorDisplayName,
			},
		})
	}

	entries := make([]models.FeedEntry, len(page))
	for i, row := range page {
		entries[i] = models.FeedEntry{
			ID:             row.ID,
			ImageURL:       row.ImageURL,
			Caption:        row.Caption,
			CreatedAt:      row.CreatedAt,
			LikeCount:      likes[row.ID],
			CommentCount:   commentTotals[row.ID],
			ViewerHasLiked: liked[row.ID],
			RecentComments: orEmpty(recent[row.ID]),
			Author: models.PublicUser{
				ID:          row.AuthorID,
				Username:    row.AuthorUsername,
				DisplayName: row.AuthorDisplayName,
			},
		}
	}
	return entries, nil
}

func (s *rawPostStore) CreatePost(ctx context.Context, p NewPost) (*models.FeedEntry, error) {
	id := uuid.NewString()
	createdAt := s.stamp()
	err := s.db.WithContext(ctx).Exec(
		"INSERT INTO posts (id, image_url, caption, author_id, created_at) VALUES (?, ?, ?, ?, ?)",
		id, p.ImageURL, p.Caption, p.Author.ID, createdAt,
	).Error
	if err != nil {
		if isForeignKeyError(err) {
			return nil, models.NewNotFoundError("User", p.Author.ID)
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return newFeedEntry(id, p.ImageURL, p.Caption, createdAt, p.Author), nil
}

func (s *rawPostStore) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeToggle, error) {
	db := s.db.WithContext(ctx)

	removed := db.Exec("DELETE FROM post_likes WHERE post_id = ? AND user_id = ?", postID, userID)
	if removed.Error != nil {
		return nil, fmt.Errorf("delete like: %w", removed.Error)
	}

	liked := removed.RowsAffected == 0
	if liked {
		err := db.Exec(
			"INSERT INTO post_likes (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?) ON CONFLICT (post_id, user_id) DO NOTHING",
			uuid.NewString(), postID, userID, s.stamp(),
		).Error
		if err != nil {
			if isForeignKeyError(err) {
				return nil, missingReference(db, err, postID, userID)
			}
			return nil, fmt.Errorf("insert like: %w", err)
		}
	}

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM post_likes WHERE post_id = ?", postID).Scan(&count).Error; err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &models.LikeToggle{Liked: liked, LikeCount: count}, nil
}

func (s *rawPostStore) AddComment(ctx context.Context, c NewComment) (*models.CommentResult, error) {
	db := s.db.WithContext(ctx)

	id := uuid.NewString()
	createdAt := s.stamp()
	err := db.Exec(
		"INSERT INTO post_comments (id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
		id, c.PostID, c.Author.ID, c.Content, createdAt,
	).Error
	if err != nil {
		if isForeignKeyError(err) {
			return nil, missingReference(db, err, c.PostID, c.Author.ID)
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM post_comments WHERE post_id = ?", c.PostID).Scan(&count).Error; err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	return &models.CommentResult{
		Comment: models.FeedComment{
			ID:        id,
			Content:   c.Content,
			CreatedAt: createdAt,
			Author:    c.Author,
		},
		CommentCount: count,
	}, nil
}

func (s *rawPostStore) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Raw("SELECT COUNT(*) FROM posts WHERE author_id = ?", authorID).Scan(&count).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}
