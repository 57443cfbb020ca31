package repository

import (
	"context"
	"fmt"
	"time"

	"snapfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// nativePostStore serves posts through the gorm models and the migrated schema.
type nativePostStore struct {
	db  *gorm.DB
	now func() time.Time
}

func newNativePostStore(db *gorm.DB) *nativePostStore {
	return &nativePostStore{db: db, now: time.Now}
}

func (s *nativePostStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func applyPostDetails(db *gorm.DB, viewerID string) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS like_count, " +
		"(SELECT COUNT(*) FROM post_comments WHERE post_comments.post_id = posts.id) AS comment_count"

	if viewerID != "" {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) AS viewer_has_liked", viewerID)
	}

	return db.Select(selectQuery + ", false AS viewer_has_liked")
}

func (s *nativePostStore) ListFeed(ctx context.Context, q FeedQuery) ([]models.FeedEntry, error) {
	var posts []models.Post
	query := applyPostDetails(s.db.WithContext(ctx).Model(&models.Post{}), q.ViewerID).
		Preload("Author")
	if q.AuthorID != "" {
		query = query.Where("posts.author_id = ?", q.AuthorID)
	}
	if err := query.
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(q.Limit).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if len(posts) == 0 {
		return []models.FeedEntry{}, nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	recent, err := s.recentComments(ctx, ids, q.CommentLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FeedEntry, len(posts))
	for i := range posts {
		p := &posts[i]
		entries[i] = models.FeedEntry{
			ID:             p.ID,
			ImageURL:       p.ImageURL,
			Caption:        p.Caption,
			CreatedAt:      p.CreatedAt,
			LikeCount:      p.LikeCount,
			CommentCount:   p.CommentCount,
			ViewerHasLiked: p.ViewerHasLiked,
			RecentComments: orEmpty(recent[p.ID]),
			Author:         p.Author.Public(),
		}
	}
	return entries, nil
}

// recentComments loads the newest limit comments of every post in one query.
func (s *nativePostStore) recentComments(ctx context.Context, postIDs []string, limit int) (map[string][]models.FeedComment, error) {
	ranked := s.db.Table("post_comments").
		Select("id, ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY created_at DESC, id DESC) AS rn").
		Where("post_id IN ?", postIDs)
	window := s.db.Table("(?) AS ranked", ranked).Select("id").Where("rn <= ?", limit)

	var comments []models.PostComment
	if err := s.db.WithContext(ctx).
		Preload("Author").
		Where("id IN (?)", window).
		Order("created_at DESC").
		Order("id DESC").
		Find(&comments).Error; err != nil {
		return nil, fmt.Errorf("list recent comments: %w", err)
	}

	byPost := make(map[string][]models.FeedComment, len(postIDs))
	for i := range comments {
		c := &comments[i]
		byPost[c.PostID] = append(byPost[c.PostID], models.FeedComment{
			ID:        c.ID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			Author:    c.Author.Public(),
		})
	}
	return byPost, nil
}

func (s *nativePostStore) CreatePost(ctx context.Context, p NewPost) (*models.FeedEntry, error) {
	post := models.Post{
		ImageURL:  p.ImageURL,
		Caption:   p.Caption,
		AuthorID:  p.Author.ID,
		CreatedAt: s.stamp(),
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&post).Error; err != nil {
		if isForeignKeyError(err) {
			return nil, models.NewNotFoundError("User", p.Author.ID)
		}
		return nil, fmt.Errorf("insert post: %w", err)
	}
	return newFeedEntry(post.ID, post.ImageURL, post.Caption, post.CreatedAt, p.Author), nil
}

func (s *nativePostStore) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeToggle, error) {
	db := s.db.WithContext(ctx)

	removed := db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
	if removed.Error != nil {
		return nil, fmt.Errorf("delete like: %w", removed.Error)
	}

	liked := removed.RowsAffected == 0
	if liked {
		like := models.PostLike{PostID: postID, UserID: userID, CreatedAt: s.stamp()}
		// Zero rows affected means a concurrent toggle inserted first; the pair is liked either way.
		err := db.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "post_id"}, {Name: "user_id"}},
				DoNothing: true,
			}).
			Create(&like).Error
		if err != nil {
			if isForeignKeyError(err) {
				return nil, missingReference(db, err, postID, userID)
			}
			return nil, fmt.Errorf("insert like: %w", err)
		}
	}

	var count int64
	if err := db.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &models.LikeToggle{Liked: liked, LikeCount: count}, nil
}

func (s *nativePostStore) AddComment(ctx context.Context, c NewComment) (*models.CommentResult, error) {
	db := s.db.WithContext(ctx)

	comment := models.PostComment{
		PostID:    c.PostID,
		UserID:    c.Author.ID,
		Content:   c.Content,
		CreatedAt: s.stamp(),
	}
	if err := db.Omit(clause.Associations).Create(&comment).Error; err != nil {
		if isForeignKeyError(err) {
			return nil, missingReference(db, err, c.PostID, c.Author.ID)
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	var count int64
	if err := db.Model(&models.PostComment{}).Where("post_id = ?", c.PostID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}
	return &models.CommentResult{
		Comment: models.FeedComment{
			ID:        comment.ID,
			Content:   comment.Content,
			CreatedAt: comment.CreatedAt,
			Author:    c.Author,
		},
		CommentCount: count,
	}, nil
}

func (s *nativePostStore) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

func newFeedEntry(id, imageURL string, caption *string, createdAt time.Time, author models.PublicUser) *models.FeedEntry {
	return &models.FeedEntry{
		ID:             id,
		ImageURL:       imageURL,
		Caption:        caption,
		CreatedAt:      createdAt,
		RecentComments: []models.FeedComment{},
		Author:         author,
	}
}

func orEmpty(comments []models.FeedComment) []models.FeedComment {
	if comments == nil {
		return []models.FeedComment{}
	}
	return comments
}
