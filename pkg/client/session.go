package client

import (
	"context"
	"fmt"
	"sync"

	"homegrid/internal/domain"
	"homegrid/internal/protocol"
)

// ChatAPI is the REST surface the session controller consumes. *Client
// satisfies it.
type ChatAPI interface {
	ListChats(ctx context.Context) ([]domain.Chat, error)
	GetChat(ctx context.Context, chatID string) (*domain.Chat, error)
	SendMessage(ctx context.Context, chatID, text string) (*domain.Message, error)
	MarkRead(ctx context.Context, chatID string) ([]string, error)
}

// SessionState is the lifecycle state of the open conversation.
type SessionState int

const (
	// StateClosed means no conversation is materialized.
	StateClosed SessionState = iota
	// StateOpening means a chat fetch is in flight.
	StateOpening
	// StateOpen means messages are materialized and read-acknowledged.
	StateOpen
)

// Session drives one signed-in user's chat UI state: the chat list, the
// currently open conversation and the unread counter. A message becomes
// part of session state only after the store confirms it; there is no
// optimistic echo.
type Session struct {
	api     ChatAPI
	counter *NotificationCounter
	userID  string

	mu    sync.Mutex
	state SessionState
	open  *domain.Chat
	chats []domain.Chat
}

// NewSession creates a session controller for userID.
func NewSession(api ChatAPI, counter *NotificationCounter, userID string) *Session {
	return &Session{
		api:     api,
		counter: counter,
		userID:  userID,
	}
}

// Refresh reloads the chat list and re-seeds the unread counter from the
// store's seen sets.
func (s *Session) Refresh(ctx context.Context) error {
	chats, err := s.api.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("refresh chats: %w", err)
	}

	unread := 0
	for _, chat := range chats {
		if !chat.SeenByUser(s.userID) {
			unread++
		}
	}

	s.mu.Lock()
	s.chats = chats
	s.mu.Unlock()
	s.counter.Reset(unread)
	return nil
}

// Open materializes a conversation. Entering the open state acknowledges
// the chat as read exactly once and decrements the unread counter exactly
// once if the chat was unread. On failure the session returns to closed.
func (s *Session) Open(ctx context.Context, chatID string) error {
	s.mu.Lock()
	if s.state == StateOpen && s.open != nil && s.open.ChatID == chatID {
		s.mu.Unlock()
		return nil
	}
	s.state = StateOpening
	s.open = nil
	s.mu.Unlock()

	chat, err := s.api.GetChat(ctx, chatID)
	if err != nil {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		return fmt.Errorf("open chat: %w", err)
	}

	wasUnread := !chat.SeenByUser(s.userID)
	if wasUnread {
		s.counter.Decrement()
	}

	seenBy, err := s.api.MarkRead(ctx, chatID)
	if err == nil {
		chat.SeenBy = seenBy
	}
	// A failed read-ack is not fatal: the conversation still renders and
	// the ack is retried on the next incoming push.

	s.mu.Lock()
	s.state = StateOpen
	s.open = chat
	s.updateSummaryLocked(chat.ChatID, chat.LastMessage, true)
	s.mu.Unlock()
	return nil
}

// Close deselects the conversation. Push events keep updating the chat
// list but are no longer applied to an open conversation.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.open = nil
}

// Send appends a message to the open conversation. The local message
// sequence is only extended after the store confirms the append; on error
// nothing is rendered as delivered.
func (s *Session) Send(ctx context.Context, text string) (*domain.Message, error) {
	s.mu.Lock()
	if s.state != StateOpen || s.open == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no open conversation: %w", domain.ErrInvalidInput)
	}
	chatID := s.open.ChatID
	s.mu.Unlock()

	msg, err := s.api.SendMessage(ctx, chatID, text)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	s.mu.Lock()
	if s.state == StateOpen && s.open != nil && s.open.ChatID == chatID {
		s.open.Messages = append(s.open.Messages, *msg)
	}
	s.updateSummaryLocked(chatID, msg.Text, true)
	s.mu.Unlock()
	return msg, nil
}

// Run consumes push events until the stream closes (the terminal
// disconnect event) or the context is cancelled.
func (s *Session) Run(ctx context.Context, events <-chan protocol.MessageEvent) {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ctx, event)
		case <-ctx.Done():
			return
		}
	}
}

// HandleEvent reconciles one pushed message. An event for the open
// conversation is appended in arrival order and re-acknowledged as read;
// an event for any other chat only updates that chat's list preview and
// the unread counter.
func (s *Session) HandleEvent(ctx context.Context, event protocol.MessageEvent) {
	s.mu.Lock()
	openHere := s.state == StateOpen && s.open != nil && s.open.ChatID == event.ChatID
	if openHere {
		s.open.Messages = append(s.open.Messages, event.Message)
		s.updateSummaryLocked(event.ChatID, event.Message.Text, true)
		s.mu.Unlock()
		// Re-ack so the sender's next fetch reflects the read state.
		// MarkRead is idempotent; a failure here resolves on the next event.
		_, _ = s.api.MarkRead(ctx, event.ChatID)
		return
	}

	wasSeen := s.updateSummaryLocked(event.ChatID, event.Message.Text, false)
	s.mu.Unlock()
	if wasSeen {
		s.counter.Increment()
	}
}

// updateSummaryLocked refreshes a chat's list preview and its seen flag
// for this user. It reports whether the chat was seen before the update.
// Unknown chat ids are added to the head of the list as unread.
func (s *Session) updateSummaryLocked(chatID, lastMessage string, seen bool) bool {
	for i := range s.chats {
		if s.chats[i].ChatID != chatID {
			continue
		}
		wasSeen := s.chats[i].SeenByUser(s.userID)
		s.chats[i].LastMessage = lastMessage
		s.setSeenLocked(&s.chats[i], seen)
		return wasSeen
	}
	if seen {
		return true
	}
	chat := domain.Chat{ChatID: chatID, LastMessage: lastMessage}
	s.chats = append([]domain.Chat{chat}, s.chats...)
	return true
}

func (s *Session) setSeenLocked(chat *domain.Chat, seen bool) {
	if seen {
		if !chat.SeenByUser(s.userID) {
			chat.SeenBy = append(chat.SeenBy, s.userID)
		}
		return
	}
	filtered := chat.SeenBy[:0]
	for _, id := range chat.SeenBy {
		if id != s.userID {
			filtered = append(filtered, id)
		}
	}
	chat.SeenBy = filtered
}

// State returns the controller state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the open conversation's message sequence.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == nil {
		return nil
	}
	out := make([]domain.Message, len(s.open.Messages))
	copy(out, s.open.Messages)
	return out
}

// Chats returns a copy of the chat list summaries.
func (s *Session) Chats() []domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Chat, len(s.chats))
	copy(out, s.chats)
	return out
}
