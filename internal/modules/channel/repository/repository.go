package repository

import (
	"context"

	"github.com/reshetovitsme/channel-relay/internal/modules/channel/domain"
)

// Repository defines the interface for registered channel persistence.
// SaveChannel replaces the name of an already registered channel.
type Repository interface {
	SaveChannel(ctx context.Context, channel *domain.Channel) error
	GetChannel(ctx context.Context, channelID int64) (*domain.Channel, error)
	GetAllChannels(ctx context.Context) ([]*domain.Channel, error)
}
