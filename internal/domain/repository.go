package domain

import (
	"context"
	"time"
)

// UserRepository defines read access to identity-provisioned users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByExternalID(ctx context.Context, externalID string) (*User, error)
}

// ConversationRepository defines persistence operations for conversations.
type ConversationRepository interface {
	// FindOrCreateDirect returns the direct conversation for the unordered
	// pair of users, creating it if absent. Concurrent calls for the same
	// pair must converge on a single conversation.
	FindOrCreateDirect(ctx context.Context, userA, userB int64) (*Conversation, error)
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
	// UpdateLastMessage overwrites the denormalized summary. Callers must
	// only invoke it after the corresponding message insert has committed.
	UpdateLastMessage(ctx context.Context, conversationID, senderID int64, content string, ts time.Time) error
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	ListParticipantIDs(ctx context.Context, conversationID int64) ([]int64, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, m *Message) error
	ListForConversation(ctx context.Context, conversationID int64) ([]*Message, error)
}
