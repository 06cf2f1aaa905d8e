package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homegrid/internal/auth"
	"homegrid/internal/domain"
)

// Register creates an account. Username and email must be unused.
func (s *Service) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		UserID:       uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.log.Info("user registered", "user_id", user.UserID, "username", username)
	return user, nil
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*domain.User, string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("get user: %w", err)
	}
	// Same error for unknown user and wrong password.
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, "", fmt.Errorf("bad credentials: %w", domain.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user.UserID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	return user, token, nil
}

// GetUser returns a user's public profile.
func (s *Service) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return user, nil
}
