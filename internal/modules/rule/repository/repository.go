package repository

import (
	"context"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/rule/domain"
)

// Repository defines the interface for forwarding rule persistence.
// Reads always hit the store; nothing is cached.
type Repository interface {
	Insert(ctx context.Context, rule *domain.ForwardRule) error
	ListActive(ctx context.Context) ([]*domain.ForwardRule, error)
	ListAll(ctx context.Context) ([]*domain.ForwardRule, error)
	Get(ctx context.Context, id int64) (*domain.ForwardRule, error)
	SetActive(ctx context.Context, id int64, active bool) error
	RecordForward(ctx context.Context, id int64, at time.Time) error
}
