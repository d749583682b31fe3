package service

import (
	"context"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/rule/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/rule/repository"
	"github.com/samber/oops"
)

// Service handles forwarding rule business logic
type Service struct {
	repo repository.Repository
}

// New creates a new rule service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Create validates and stores a rule. Invalid rules are never persisted.
func (s *Service) Create(ctx context.Context, rule *domain.ForwardRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, rule); err != nil {
		return oops.With("context", "failed to save rule").Wrap(err)
	}
	return nil
}

// ListActive returns every active rule, fresh from the store
func (s *Service) ListActive(ctx context.Context) ([]*domain.ForwardRule, error) {
	return s.repo.ListActive(ctx)
}

// ListAll returns all rules including paused ones
func (s *Service) ListAll(ctx context.Context) ([]*domain.ForwardRule, error) {
	return s.repo.ListAll(ctx)
}

// Get retrieves a rule by ID
func (s *Service) Get(ctx context.Context, id int64) (*domain.ForwardRule, error) {
	return s.repo.Get(ctx, id)
}

// Toggle flips the active flag and returns the updated rule.
func (s *Service) Toggle(ctx context.Context, id int64) (*domain.ForwardRule, error) {
	rule, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, id, !rule.IsActive); err != nil {
		return nil, err
	}
	rule.IsActive = !rule.IsActive
	return rule, nil
}

// RecordForward bumps the forwarded counter of a rule
func (s *Service) RecordForward(ctx context.Context, id int64, at time.Time) error {
	return s.repo.RecordForward(ctx, id, at)
}
