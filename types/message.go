package types

import "time"

// Message is a direct message between two users.
type Message struct {
	// ID is the unique identifier of the message.
	ID int `json:"message_id" db:"id"`

	// Content is the message body.
	Content string `json:"content" db:"content"`

	// SenderID references the authoring user.
	SenderID int `json:"sender_id" db:"sender_id"`

	// SenderUsername is denormalized for display; populated on reads.
	SenderUsername string `json:"sender_username" db:"sender_username"`

	// RecipientID references the receiving user.
	RecipientID int `json:"recipient_id" db:"recipient_id"`

	// RecipientUsername is denormalized for display; populated on reads.
	RecipientUsername string `json:"recipient_username" db:"recipient_username"`

	// CreatedAt is the timestamp at which the message was sent.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
