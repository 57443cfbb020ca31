package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is a user's authorization level.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Username     string    `gorm:"uniqueIndex;size:20;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	DisplayName  *string   `gorm:"size:40" json:"displayName"`
	Bio          *string   `gorm:"size:280" json:"bio"`
	ProfileImage *string   `json:"profileImage"`
	Role         Role      `gorm:"size:16;not null" json:"role"`
	IsVerified   bool      `gorm:"not null" json:"isVerified"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an ID and the default role.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// SafeUser is the user shape returned to the owner of the account.
type SafeUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	ProfileImage *string   `json:"profileImage"`
	DisplayName  *string   `json:"displayName"`
	Bio          *string   `json:"bio"`
	Role         Role      `json:"role"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Safe strips credentials from the user.
func (u *User) Safe() SafeUser {
	return SafeUser{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
		DisplayName:  u.DisplayName,
		Bio:          u.Bio,
		Role:         u.Role,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
	}
}

// PublicUser is the identity shown next to posts and comments.
type PublicUser struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	DisplayName *string `json:"displayName"`
}

// Public returns the user's public identity.
func (u *User) Public() PublicUser {
	if u == nil {
		return PublicUser{}
	}
	return PublicUser{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName}
}

// UserWithCounts is a user listing row with relationship counts.
type UserWithCounts struct {
	User
	FollowerCount  int64 `gorm:"->;-:migration" json:"followerCount"`
	FollowingCount int64 `gorm:"->;-:migration" json:"followingCount"`
}

// UserListing is a people-list row as seen by one viewer.
type UserListing struct {
	SafeUser
	FollowerCount  int64 `json:"followerCount"`
	FollowingCount int64 `json:"followingCount"`
	IsCurrentUser  bool  `json:"isCurrentUser"`
}

// UserProfile is a user's public page: identity, relationship counts and recent posts.
type UserProfile struct {
	PublicProfile
	Bio               *string     `json:"bio"`
	FollowerCount     int64       `json:"followerCount"`
	FollowingCount    int64       `json:"followingCount"`
	PostCount         int64       `json:"postCount"`
	IsSelf            bool        `json:"isSelf"`
	ViewerFollowsUser bool        `json:"viewerFollowsUser"`
	Posts             []FeedEntry `json:"posts"`
}
