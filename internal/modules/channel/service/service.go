package service

import (
	"context"
	"strings"

	"github.com/reshetovitsme/channel-relay/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/channel/repository"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// ChatInfo is what the transport knows about a chat reference.
type ChatInfo struct {
	ID       int64
	Title    string
	Username string
}

// Resolver looks up a chat by numeric id or @username.
type Resolver interface {
	ResolveChat(ctx context.Context, ref string) (*ChatInfo, error)
}

// Service handles registered channel business logic
type Service struct {
	repo repository.Repository
}

// New creates a new channel service
func New(repo repository.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// Register resolves ref through the transport and stores the channel.
// A reference the transport cannot resolve is a validation error.
func (s *Service) Register(ctx context.Context, resolver Resolver, ref string) (*domain.Channel, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.ErrEmptyIdentifier
	}

	chat, err := resolver.ResolveChat(ctx, ref)
	if err != nil {
		return nil, oops.With("ref", ref, "cause", err.Error()).Wrap(errors.ErrInvalidChannel)
	}

	name := chat.Title
	if name == "" && chat.Username != "" {
		name = "@" + chat.Username
	}
	channel := &domain.Channel{ID: chat.ID, Name: name}
	if err := s.repo.SaveChannel(ctx, channel); err != nil {
		return nil, err
	}
	return channel, nil
}

// GetChannel retrieves a channel by ID
func (s *Service) GetChannel(ctx context.Context, channelID int64) (*domain.Channel, error) {
	return s.repo.GetChannel(ctx, channelID)
}

// GetAllChannels retrieves all channels
func (s *Service) GetAllChannels(ctx context.Context) ([]*domain.Channel, error) {
	return s.repo.GetAllChannels(ctx)
}
