package domain

import "time"

// User represents an application user. Accounts are provisioned by the
// external identity layer; the chat core only reads them.
type User struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Email      string    `db:"email" json:"email"`
	Name       string    `db:"name" json:"name"`
	Image      string    `db:"image" json:"image,omitempty"`
	Provider   string    `db:"provider" json:"provider"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Message types. Only text is produced by the current clients; the rest are
// reserved for attachments.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeVideo = "video"
	MessageTypeFile  = "file"
)

// ValidMessageType reports whether t is one of the known message types.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeVideo, MessageTypeFile:
		return true
	}
	return false
}

// MessageSummary is the denormalized "last message" preview stored on a
// conversation. It always reflects the most recently persisted message.
type MessageSummary struct {
	SenderID  int64     `json:"senderId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation represents a direct conversation between two users.
type Conversation struct {
	ID           int64           `db:"id" json:"id"`
	Participants []int64         `json:"participants"`
	LastMessage  *MessageSummary `json:"lastMessage,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Message represents a single chat message. Messages are append-only; the
// autoincrement ID doubles as the creation-order key.
type Message struct {
	ID             int64     `db:"id" json:"_id"`
	ConversationID int64     `db:"conversation_id" json:"conversationId"`
	SenderID       int64     `db:"sender_id" json:"senderId"`
	Content        string    `db:"content" json:"content"`
	MessageType    string    `db:"message_type" json:"messageType"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}
