package services

import (
	"context"

	"github.com/Turquoise-stack/FLAT-CLUB/types"
)

// MessageRepository defines persistence operations for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, message types.Message) (types.Message, error)
	ListForUser(ctx context.Context, userID int) ([]types.Message, error)
}

// MessageService encapsulates direct messaging use-cases.
type MessageService struct {
	repo  MessageRepository
	users UserRepository
}

func NewMessageService(repo MessageRepository, users UserRepository) *MessageService {
	return &MessageService{repo: repo, users: users}
}

// Send stores a direct message after verifying the recipient exists.
// A missing recipient surfaces as store.ErrNotFound.
func (s *MessageService) Send(ctx context.Context, sender types.User, recipientID int, content string) (types.Message, error) {
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return types.Message{}, err
	}

	message := types.Message{
		Content:           content,
		SenderID:          sender.ID,
		SenderUsername:    sender.Username,
		RecipientID:       recipient.ID,
		RecipientUsername: recipient.Username,
	}
	return s.repo.Create(ctx, message)
}

// ListForUser returns the user's full direct message history, oldest first.
func (s *MessageService) ListForUser(ctx context.Context, userID int) ([]types.Message, error) {
	return s.repo.ListForUser(ctx, userID)
}
