package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a direct message between two users.
type Message struct {
	ID         string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SenderID   string    `gorm:"type:varchar(36);not null;index:idx_messages_pair,priority:1" json:"senderId"`
	ReceiverID string    `gorm:"type:varchar(36);not null;index:idx_messages_pair,priority:2;index" json:"receiverId"`
	Sender     *User     `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Receiver   *User     `gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE" json:"-"`
	Content    string    `gorm:"size:1024;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
}

// BeforeCreate assigns an ID.
func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ThreadMessage is a message as seen by one participant.
type ThreadMessage struct {
	Message
	IsMine bool `json:"isMine"`
}

// ViewedBy returns the message as seen by userID.
func (m Message) ViewedBy(userID string) ThreadMessage {
	return ThreadMessage{Message: m, IsMine: m.SenderID == userID}
}

// Conversation is the latest message exchanged with one peer. ID is the peer's ID.
type Conversation struct {
	ID          string        `json:"id"`
	Peer        PublicProfile `json:"peer"`
	LastMessage ThreadMessage `json:"lastMessage"`
}
