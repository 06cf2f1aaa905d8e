package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"homegrid/internal/domain"
)

// GetChat returns the chat with its messages in creation order. The
// requester must be a participant.
func (s *Service) GetChat(ctx context.Context, chatID, requesterID string) (*domain.Chat, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	if !chat.HasParticipant(requesterID) {
		return nil, fmt.Errorf("user %s is not a participant of chat %s: %w", requesterID, chatID, domain.ErrForbidden)
	}

	messages, err := s.store.GetMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	chat.Messages = messages

	if receiverID, ok := lo.Find(chat.ParticipantIDs, func(id string) bool { return id != requesterID }); ok {
		receiver, err := s.store.GetUser(ctx, receiverID)
		if err != nil {
			return nil, fmt.Errorf("get receiver: %w", err)
		}
		chat.Receiver = receiver
	}
	return chat, nil
}

// ListChats returns the user's chat summaries, most recent activity first.
func (s *Service) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	chats, err := s.store.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// CreateChat opens a conversation between the requester and receiverID.
// If the pair already has a chat it is returned instead of creating a
// duplicate.
func (s *Service) CreateChat(ctx context.Context, requesterID, receiverID string) (*domain.Chat, error) {
	if receiverID == "" || receiverID == requesterID {
		return nil, fmt.Errorf("receiver id %q: %w", receiverID, domain.ErrInvalidInput)
	}
	receiver, err := s.store.GetUser(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("get receiver: %w", err)
	}
	if receiver == nil {
		return nil, fmt.Errorf("user %s: %w", receiverID, domain.ErrNotFound)
	}

	existing, err := s.store.GetChatByParticipants(ctx, requesterID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("find chat: %w", err)
	}
	if existing != nil {
		existing.Receiver = receiver
		return existing, nil
	}

	chat := &domain.Chat{
		ChatID:         uuid.New().String(),
		ParticipantIDs: []string{requesterID, receiverID},
		SeenBy:         []string{requesterID},
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.store.CreateChat(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	chat.Receiver = receiver
	s.log.Info("chat created", "chat_id", chat.ChatID, "participants", chat.ParticipantIDs)
	return chat, nil
}

// AppendMessage persists a message and pushes it to the other participant
// if they are connected. The store write resets the chat's seen set to
// the sender; push failure never fails the append.
func (s *Service) AppendMessage(ctx context.Context, chatID, senderID, text string) (*domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("message text is empty: %w", domain.ErrInvalidInput)
	}

	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	if !chat.HasParticipant(senderID) {
		return nil, fmt.Errorf("user %s is not a participant of chat %s: %w", senderID, chatID, domain.ErrForbidden)
	}

	msg := &domain.Message{
		MessageID: uuid.New().String(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}

	// The push enqueue stays under the chat lock so a recipient connection
	// sees events in append-completion order. Deliver never blocks; it
	// drops on a full buffer instead.
	lock := s.chatLocks.lock(chatID)
	defer lock.Unlock()
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	for _, participantID := range chat.ParticipantIDs {
		if participantID != senderID {
			s.router.Deliver(participantID, chatID, *msg)
		}
	}
	return msg, nil
}

// MarkRead adds userID to the chat's seen set. Idempotent.
func (s *Service) MarkRead(ctx context.Context, chatID, userID string) ([]string, error) {
	chat, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	if chat == nil {
		return nil, fmt.Errorf("chat %s: %w", chatID, domain.ErrNotFound)
	}
	if !chat.HasParticipant(userID) {
		return nil, fmt.Errorf("user %s is not a participant of chat %s: %w", userID, chatID, domain.ErrForbidden)
	}

	lock := s.chatLocks.lock(chatID)
	seenBy, err := s.store.MarkRead(ctx, chatID, userID)
	lock.Unlock()
	if err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return seenBy, nil
}
