package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"server_go/internal/domain"
)

// RoomBroadcaster delivers an event to every live connection currently in
// the conversation's room. Implemented by the ws room router.
type RoomBroadcaster interface {
	Broadcast(conversationID int64, event any)
}

// MessageEvent is the fan-out payload sent to room members once a message is
// durable. The sender receives it too, as its delivery confirmation.
type MessageEvent struct {
	Event          string    `json:"event"`
	ID             int64     `json:"_id"`
	ConversationID int64     `json:"conversationId"`
	SenderID       int64     `json:"senderId"`
	Content        string    `json:"content"`
	MessageType    string    `json:"messageType"`
	Timestamp      time.Time `json:"timestamp"`
}

// MessageService is the ingest pipeline: validate, persist, update the
// conversation summary, then fan out.
type MessageService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	rooms         RoomBroadcaster

	// one lock per conversation so broadcast order matches commit order
	locks sync.Map
}

func NewMessageService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	rooms RoomBroadcaster,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		rooms:         rooms,
	}
}

type SendInput struct {
	ConversationID int64
	Content        string
	MessageType    string
}

// Send runs the full pipeline for one inbound message. The sender is always
// the authenticated session user, never an identifier from the payload. On
// any error nothing is broadcast and the conversation summary is untouched
// unless the message itself was already durable.
func (s *MessageService) Send(ctx context.Context, senderID int64, in SendInput) (*domain.Message, error) {
	if in.ConversationID == 0 {
		return nil, domain.NewInvalidInput("conversation id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.NewInvalidInput("content must not be empty")
	}
	msgType := in.MessageType
	if msgType == "" {
		msgType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(msgType) {
		return nil, domain.NewInvalidInput(fmt.Sprintf("unknown message type %q", msgType))
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %d", domain.ErrNotFound, in.ConversationID)
	}
	isParticipant, err := s.conversations.IsParticipant(ctx, in.ConversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("check participant: %w", err)
	}
	if !isParticipant {
		return nil, fmt.Errorf("%w: sender is not a participant", domain.ErrForbidden)
	}

	mu := s.conversationLock(in.ConversationID)
	mu.Lock()
	defer mu.Unlock()

	msg := &domain.Message{
		ConversationID: in.ConversationID,
		SenderID:       senderID,
		Content:        in.Content,
		MessageType:    msgType,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}

	// Summary strictly follows the durable message; a failed insert never
	// reaches this point.
	if err := s.conversations.UpdateLastMessage(ctx, in.ConversationID, senderID, msg.Content, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("update conversation summary: %w", err)
	}

	s.rooms.Broadcast(in.ConversationID, MessageEvent{
		Event:          "message",
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Content:        msg.Content,
		MessageType:    msg.MessageType,
		Timestamp:      msg.CreatedAt,
	})

	return msg, nil
}

func (s *MessageService) conversationLock(conversationID int64) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(conversationID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
