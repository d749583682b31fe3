package repository

import (
	"context"

	"github.com/reshetovitsme/channel-relay/internal/modules/schedule/domain"
)

// Repository defines the interface for scheduled post persistence
type Repository interface {
	Insert(ctx context.Context, post *domain.ScheduledPost) error
	ListAt(ctx context.Context, postTime string) ([]*domain.ScheduledPost, error)
	ListByChannel(ctx context.Context, channelID int64) ([]*domain.ScheduledPost, error)
}
