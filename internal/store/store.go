// Package store provides the persistence layer for the marketplace.
package store

import (
	"context"

	"homegrid/internal/domain"
)

// Store is the persisted-store API consumed by the services.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// Chats
	CreateChat(ctx context.Context, chat *domain.Chat) error
	GetChat(ctx context.Context, chatID string) (*domain.Chat, error)
	GetChatByParticipants(ctx context.Context, userA, userB string) (*domain.Chat, error)
	ListChats(ctx context.Context, userID string) ([]domain.Chat, error)
	GetMessages(ctx context.Context, chatID string) ([]domain.Message, error)
	// AppendMessage persists msg and, in the same transaction, resets the
	// chat's seen set to the sender alone and refreshes the last-message
	// summary. msg.Seq is filled in from the store's insertion order.
	AppendMessage(ctx context.Context, msg *domain.Message) error
	// MarkRead adds userID to the chat's seen set and returns the updated
	// set. Marking an already-seen chat is a no-op.
	MarkRead(ctx context.Context, chatID, userID string) ([]string, error)

	// Posts
	CreatePost(ctx context.Context, post *domain.Post) error
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	ListPosts(ctx context.Context, filter domain.PostFilter) ([]domain.Post, error)
	UpdatePost(ctx context.Context, post *domain.Post) error
	DeletePost(ctx context.Context, postID string) error
	SetPostSaved(ctx context.Context, userID, postID string, saved bool) error
	IsPostSaved(ctx context.Context, userID, postID string) (bool, error)

	Close() error
}
