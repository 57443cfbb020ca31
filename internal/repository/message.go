package repository

import (
	"context"

	"snapfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository stores direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	Thread(ctx context.Context, userID, peerID string) ([]models.Message, error)
	Recent(ctx context.Context, userID string, limit int) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error; err != nil {
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", msg.ReceiverID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Thread returns every message between the two users, oldest first.
func (r *messageRepository) Thread(ctx context.Context, userID, peerID string) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userID, peerID, peerID, userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

// Recent returns the newest messages sent or received by userID with both
// participants loaded.
func (r *messageRepository) Recent(ctx context.Context, userID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}
