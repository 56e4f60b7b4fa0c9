package services

import "context"

// Event channels consumed by downstream workers.
const (
	// NotificationsChannel carries membership events shown to users.
	NotificationsChannel = "notifications"

	// EmailsChannel carries outbound email requests (password resets).
	EmailsChannel = "emails"
)

// Event types published on the channels above.
const (
	EventJoinRequested  = "group.join_requested"
	EventMemberApproved = "group.member_approved"
	EventMemberRejected = "group.member_rejected"
	EventMemberRemoved  = "group.member_removed"
	EventPasswordReset  = "user.password_reset"
)

// EventPublisher emits application events. Implemented by *mq.Publisher;
// publishing is best-effort and must never fail the originating request.
type EventPublisher interface {
	PublishJSON(ctx context.Context, channel, eventType string, payload any) (string, error)
}

// MembershipEvent is the payload for group membership transitions.
type MembershipEvent struct {
	GroupID int `json:"group_id"`
	UserID  int `json:"user_id"`
	ActorID int `json:"actor_id"`
}

// PasswordResetEvent is the payload for password reset email requests.
type PasswordResetEvent struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}
