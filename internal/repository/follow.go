package repository

import (
	"context"

	"snapfeed/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository manages the directed follow graph.
type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	Following(ctx context.Context, userID string) ([]models.User, error)
	Followers(ctx context.Context, userID string) ([]models.User, error)
	Suggestions(ctx context.Context, userID string, limit int) ([]models.User, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Toggle removes the edge when present and creates it otherwise. It reports
// whether follower now follows following.
func (r *followRepository) Toggle(ctx context.Context, followerID, followingID string) (bool, error) {
	db := r.db.WithContext(ctx)

	removed := db.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	if removed.Error != nil {
		return false, models.NewInternalError(removed.Error)
	}
	if removed.RowsAffected > 0 {
		return false, nil
	}

	follow := models.Follow{ID: uuid.NewString(), FollowerID: followerID, FollowingID: followingID}
	err := db.Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).
		Create(&follow).Error
	if err != nil {
		if isForeignKeyError(err) {
			return false, models.NewNotFoundError("User", followingID)
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// Following lists the users userID follows, most recent follow first.
func (r *followRepository) Following(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Followers lists the users following userID, most recent follow first.
func (r *followRepository) Followers(ctx context.Context, userID string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Suggestions lists the newest users that userID does not follow yet.
func (r *followRepository) Suggestions(ctx context.Context, userID string, limit int) ([]models.User, error) {
	followed := r.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID)

	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("id <> ?", userID).
		Where("id NOT IN (?)", followed).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
