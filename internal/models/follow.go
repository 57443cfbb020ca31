package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Follow is a directed follower -> following edge. One edge per pair.
type Follow struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FollowerID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follows_pair,priority:1" json:"followerId"`
	FollowingID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"followingId"`
	Follower    *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following   *User     `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BeforeCreate assigns an ID.
func (f *Follow) BeforeCreate(_ *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FollowOverview is the viewer's follow graph summary.
type FollowOverview struct {
	Following   []PublicProfile `json:"following"`
	Followers   []PublicProfile `json:"followers"`
	Suggestions []PublicProfile `json:"suggestions"`
}

// PublicProfile is a public identity with avatar, used in people lists.
type PublicProfile struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	DisplayName  *string `json:"displayName"`
	ProfileImage *string `json:"profileImage"`
}

// Profile returns the user's public identity with avatar.
func (u *User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, ProfileImage: u.ProfileImage}
}
