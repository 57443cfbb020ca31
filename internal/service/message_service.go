package service

import (
	"context"
	"strings"

	"snapfeed/internal/models"
	"snapfeed/internal/repository"
	"snapfeed/internal/validation"
)

// ConversationScanLimit is how many recent messages are scanned to build the inbox.
const ConversationScanLimit = 100

type MessageService struct {
	messages repository.MessageRepository
	users    repository.UserRepository
}

func NewMessageService(messages repository.MessageRepository, users repository.UserRepository) *MessageService {
	return &MessageService{messages: messages, users: users}
}

// Thread returns the conversation with peerID, oldest first.
func (s *MessageService) Thread(ctx context.Context, userID, peerID string) ([]models.ThreadMessage, error) {
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		return nil, models.NewValidationError("Provide a user id via the `with` query parameter.")
	}
	if _, err := s.users.GetByID(ctx, peerID); err != nil {
		return nil, err
	}

	msgs, err := s.messages.Thread(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ViewedBy(userID))
	}
	return out, nil
}

func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string) (*models.ThreadMessage, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, models.NewValidationError("receiverId is required.")
	}
	content = strings.TrimSpace(content)
	if err := validation.ValidateMessage(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.users.GetByID(ctx, receiverID); err != nil {
		return nil, err
	}

	msg := &models.Message{SenderID: senderID, ReceiverID: receiverID, Content: content}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	viewed := msg.ViewedBy(senderID)
	return &viewed, nil
}

// Conversations lists one entry per peer, most recent exchange first.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	timeline, err := s.messages.Recent(ctx, userID, ConversationScanLimit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	out := make([]models.Conversation, 0)
	for _, m := range timeline {
		peer := m.Sender
		if m.SenderID == userID {
			peer = m.Receiver
		}
		if peer == nil || seen[peer.ID] {
			continue
		}
		seen[peer.ID] = true
		out = append(out, models.Conversation{
			ID:          peer.ID,
			Peer:        peer.Profile(),
			LastMessage: m.ViewedBy(userID),
		})
	}
	return out, nil
}
