// Package service holds the business rules that sit between HTTP handlers and storage.
package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"snapfeed/internal/models"
	"snapfeed/internal/repository"
)

// Feed page size bounds applied to caller-supplied limits.
const (
	MaxFeedLimit = 100
	MinFeedLimit = 1
)

// Validation messages returned to clients.
const (
	ErrImageRequired  = "Please upload an image."
	ErrCommentEmpty   = "Comment cannot be empty."
	ErrCaptionTooLong = "Caption must be at most 1024 characters."
)

// PostService is the interaction engine: it normalizes input and delegates
// persistence to a PostStore.
type PostService struct {
	store repository.PostStore
}

type ListFeedInput struct {
	Limit    int
	AuthorID string
	ViewerID string
}

type CreatePostInput struct {
	Author   models.PublicUser
	ImageURL string
	Caption  string
}

type AddCommentInput struct {
	PostID  string
	Author  models.PublicUser
	Content string
}

func NewPostService(store repository.PostStore) *PostService {
	return &PostService{store: store}
}

// ClampFeedLimit maps a requested page size into the accepted range. Zero
// means the default page size.
func ClampFeedLimit(limit int) int {
	switch {
	case limit == 0:
		return repository.DefaultFeedLimit
	case limit < MinFeedLimit:
		return MinFeedLimit
	case limit > MaxFeedLimit:
		return MaxFeedLimit
	default:
		return limit
	}
}

// ListFeed returns the newest posts, optionally for one author, enriched for the viewer.
func (s *PostService) ListFeed(ctx context.Context, in ListFeedInput) ([]models.FeedEntry, error) {
	entries, err := s.store.ListFeed(ctx, repository.FeedQuery{
		Limit:        ClampFeedLimit(in.Limit),
		AuthorID:     strings.TrimSpace(in.AuthorID),
		ViewerID:     in.ViewerID,
		CommentLimit: models.DefaultCommentWindow,
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.FeedEntry{}
	}
	return entries, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.FeedEntry, error) {
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return nil, models.NewValidationError(ErrImageRequired)
	}

	var caption *string
	if trimmed := strings.TrimSpace(in.Caption); trimmed != "" {
		if utf8.RuneCountInString(trimmed) > models.MaxCaptionLength {
			return nil, models.NewValidationError(ErrCaptionTooLong)
		}
		caption = &trimmed
	}

	return s.store.CreatePost(ctx, repository.NewPost{
		Author:   in.Author,
		ImageURL: imageURL,
		Caption:  caption,
	})
}

// ToggleLike flips the user's like on a post and reports the resulting state.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID string) (*models.LikeToggle, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, models.NewValidationError("Invalid post.")
	}
	return s.store.ToggleLike(ctx, postID, userID)
}

// AddComment stores a trimmed comment. Content longer than the comment limit
// is cut to fit rather than rejected.
func (s *PostService) AddComment(ctx context.Context, in AddCommentInput) (*models.CommentResult, error) {
	postID := strings.TrimSpace(in.PostID)
	if postID == "" {
		return nil, models.NewValidationError("Invalid post.")
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError(ErrCommentEmpty)
	}

	return s.store.AddComment(ctx, repository.NewComment{
		PostID:  postID,
		Author:  in.Author,
		Content: truncateRunes(content, models.MaxCommentLength),
	})
}

func (s *PostService) CountPostsByAuthor(ctx context.Context, authorID string) (int64, error) {
	return s.store.CountPostsByAuthor(ctx, authorID)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
