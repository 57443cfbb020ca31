package models

import "time"

// DefaultCommentWindow is how many recent comments a feed entry carries.
const DefaultCommentWindow = 3

// FeedComment is a comment with its author's public identity.
type FeedComment struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	Author    PublicUser `json:"author"`
}

// FeedEntry is a post enriched for one viewer. Both post store strategies
// produce this shape.
type FeedEntry struct {
	ID             string        `json:"id"`
	ImageURL       string        `json:"imageUrl"`
	Caption        *string       `json:"caption"`
	CreatedAt      time.Time     `json:"createdAt"`
	LikeCount      int64         `json:"likeCount"`
	CommentCount   int64         `json:"commentCount"`
	ViewerHasLiked bool          `json:"viewerHasLiked"`
	RecentComments []FeedComment `json:"comments"`
	Author         PublicUser    `json:"author"`
}

// LikeToggle is the post-write like state for the toggling user.
type LikeToggle struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// CommentResult is a stored comment and the post's comment count after the write.
type CommentResult struct {
	Comment      FeedComment `json:"comment"`
	CommentCount int64       `json:"commentCount"`
}
