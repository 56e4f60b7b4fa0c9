package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/Turquoise-stack/FLAT-CLUB/types"
)

// MessageRepository handles persistence for direct messages.
type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message types.Message) (types.Message, error) {
	message.CreatedAt = time.Now()

	const query = `
		INSERT INTO messages (content, sender_id, recipient_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		message.Content,
		message.SenderID,
		message.RecipientID,
		message.CreatedAt,
	).Scan(&message.ID); err != nil {
		return types.Message{}, err
	}
	return message, nil
}

// ListForUser returns every message sent or received by the user,
// oldest first, with usernames resolved for display.
func (r *MessageRepository) ListForUser(ctx context.Context, userID int) ([]types.Message, error) {
	const query = `
		SELECT m.id, m.content, m.sender_id, s.username, m.recipient_id, r.username, m.created_at
		FROM messages m
		JOIN users s ON s.id = m.sender_id
		JOIN users r ON r.id = m.recipient_id
		WHERE m.sender_id = $1 OR m.recipient_id = $1
		ORDER BY m.created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]types.Message, 0)
	for rows.Next() {
		var message types.Message
		if err := rows.Scan(
			&message.ID,
			&message.Content,
			&message.SenderID,
			&message.SenderUsername,
			&message.RecipientID,
			&message.RecipientUsername,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}
