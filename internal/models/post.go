package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Limits enforced on post and comment text.
const (
	MaxCaptionLength = 1024
	MaxCommentLength = 500
)

// Post is an image post. The like/comment aggregates are populated by feed
// queries only and are never migrated as columns.
type Post struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ImageURL  string    `gorm:"not null" json:"imageUrl"`
	Caption   *string   `gorm:"size:1024" json:"caption"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index:idx_posts_author_created,priority:1" json:"authorId"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	CreatedAt time.Time `gorm:"not null;index;index:idx_posts_author_created,priority:2" json:"createdAt"`

	LikeCount      int64 `gorm:"->;-:migration" json:"likeCount"`
	CommentCount   int64 `gorm:"->;-:migration" json:"commentCount"`
	ViewerHasLiked bool  `gorm:"->;-:migration" json:"viewerHasLiked"`
}

// BeforeCreate assigns an ID.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PostLike records one user's like of one post.
type PostLike struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_likes_post_user,priority:1" json:"postId"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_post_likes_post_user,priority:2" json:"userId"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate assigns an ID.
func (l *PostLike) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// PostComment is an append-only comment on a post.
type PostComment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	PostID    string    `gorm:"type:varchar(36);not null;index:idx_post_comments_post_created,priority:1" json:"postId"`
	UserID    string    `gorm:"type:varchar(36);not null;index" json:"userId"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Author    *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;index:idx_post_comments_post_created,priority:2" json:"createdAt"`
}

// BeforeCreate assigns an ID.
func (c *PostComment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
