package service

import (
	"context"
	"fmt"

	"server_go/internal/domain"
)

type ConversationService struct {
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	identity      *IdentityService
}

func NewConversationService(
	conversations domain.ConversationRepository,
	messages domain.MessageRepository,
	identity *IdentityService,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		messages:      messages,
		identity:      identity,
	}
}

// Start returns the direct conversation between the two users, creating it
// on first contact. Calling it again for the same pair returns the existing
// conversation.
func (s *ConversationService) Start(ctx context.Context, externalUserID, externalOtherID string) (*domain.Conversation, error) {
	if externalUserID == "" || externalOtherID == "" {
		return nil, domain.NewInvalidInput("both user ids are required")
	}

	user, err := s.identity.ResolveExternal(ctx, externalUserID)
	if err != nil {
		return nil, err
	}
	other, err := s.identity.ResolveExternal(ctx, externalOtherID)
	if err != nil {
		return nil, err
	}
	if user.ID == other.ID {
		return nil, domain.NewInvalidInput("cannot start a conversation with yourself")
	}

	conv, err := s.conversations.FindOrCreateDirect(ctx, user.ID, other.ID)
	if err != nil {
		return nil, fmt.Errorf("find or create conversation: %w", err)
	}
	return conv, nil
}

// ListForUser returns all conversations the user participates in, each with
// its last-message summary, most recently active first.
func (s *ConversationService) ListForUser(ctx context.Context, externalUserID string) ([]*domain.Conversation, error) {
	user, err := s.identity.ResolveExternal(ctx, externalUserID)
	if err != nil {
		return nil, err
	}
	return s.conversations.ListForUser(ctx, user.ID)
}

// ListMessages returns the conversation's messages in creation order.
func (s *ConversationService) ListMessages(ctx context.Context, conversationID int64) ([]*domain.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, fmt.Errorf("%w: conversation %d", domain.ErrNotFound, conversationID)
	}
	return s.messages.ListForConversation(ctx, conversationID)
}
