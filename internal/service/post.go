package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"homegrid/internal/domain"
)

// ListPosts returns listings matching the filter, newest first.
func (s *Service) ListPosts(ctx context.Context, filter domain.PostFilter) ([]domain.Post, error) {
	posts, err := s.store.ListPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost returns a listing with its owner's contact info. When
// requesterID is non-empty, IsSaved reflects the requester's saved set.
func (s *Service) GetPost(ctx context.Context, postID, requesterID string) (*domain.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}

	owner, err := s.store.GetUser(ctx, post.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}
	post.Owner = owner

	if requesterID != "" {
		saved, err := s.store.IsPostSaved(ctx, requesterID, postID)
		if err != nil {
			return nil, fmt.Errorf("check saved: %w", err)
		}
		post.IsSaved = saved
	}
	return post, nil
}

// CreatePost creates a listing owned by ownerID.
func (s *Service) CreatePost(ctx context.Context, ownerID string, post *domain.Post) (*domain.Post, error) {
	post.PostID = uuid.New().String()
	post.OwnerID = ownerID
	post.CreatedAt = time.Now().UTC()
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// UpdatePost replaces a listing's mutable fields. Owner only.
func (s *Service) UpdatePost(ctx context.Context, postID, requesterID string, update *domain.Post) (*domain.Post, error) {
	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}
	if existing.OwnerID != requesterID {
		return nil, fmt.Errorf("user %s does not own post %s: %w", requesterID, postID, domain.ErrForbidden)
	}

	update.PostID = postID
	update.OwnerID = existing.OwnerID
	update.CreatedAt = existing.CreatedAt
	if err := s.store.UpdatePost(ctx, update); err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return update, nil
}

// DeletePost removes a listing. Owner only.
func (s *Service) DeletePost(ctx context.Context, postID, requesterID string) error {
	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}
	if existing.OwnerID != requesterID {
		return fmt.Errorf("user %s does not own post %s: %w", requesterID, postID, domain.ErrForbidden)
	}
	return s.store.DeletePost(ctx, postID)
}

// SavePost toggles the requester's saved marker and returns the new state.
func (s *Service) SavePost(ctx context.Context, postID, requesterID string) (bool, error) {
	existing, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return false, fmt.Errorf("get post: %w", err)
	}
	if existing == nil {
		return false, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}

	saved, err := s.store.IsPostSaved(ctx, requesterID, postID)
	if err != nil {
		return false, fmt.Errorf("check saved: %w", err)
	}
	if err := s.store.SetPostSaved(ctx, requesterID, postID, !saved); err != nil {
		return false, fmt.Errorf("set saved: %w", err)
	}
	return !saved, nil
}
