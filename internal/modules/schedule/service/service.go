package service

import (
	"context"
	"strings"

	"github.com/reshetovitsme/channel-relay/internal/modules/schedule/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/schedule/repository"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/reshetovitsme/channel-relay/internal/shared/timeofday"
	"github.com/samber/oops"
)

// Service handles scheduled post business logic
type Service struct {
	repo repository.Repository
}

// New creates a new schedule service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Create validates the post time, normalizes it to HH:MM and stores the post.
func (s *Service) Create(ctx context.Context, channelID int64, photoID, caption, postTime string) (*domain.ScheduledPost, error) {
	if channelID == 0 {
		return nil, errors.ErrEmptyIdentifier
	}
	if strings.TrimSpace(photoID) == "" {
		return nil, oops.With("field", "photo_id").Wrap(errors.ErrValidation)
	}
	normalized, _, err := timeofday.Parse(postTime)
	if err != nil {
		return nil, err
	}

	post := &domain.ScheduledPost{
		ChannelID: channelID,
		PhotoID:   photoID,
		Caption:   caption,
		PostTime:  normalized,
	}
	if err := s.repo.Insert(ctx, post); err != nil {
		return nil, oops.With("context", "failed to save scheduled post").Wrap(err)
	}
	return post, nil
}

// ListAt returns the posts due at the given HH:MM
func (s *Service) ListAt(ctx context.Context, postTime string) ([]*domain.ScheduledPost, error) {
	return s.repo.ListAt(ctx, postTime)
}

// ListByChannel returns the posts scheduled for a channel
func (s *Service) ListByChannel(ctx context.Context, channelID int64) ([]*domain.ScheduledPost, error) {
	return s.repo.ListByChannel(ctx, channelID)
}
