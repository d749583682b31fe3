package service

import (
	"context"

	"github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// Sender is the outbound primitive of the transport.
type Sender interface {
	SendText(ctx context.Context, destination, text string) error
	SendPhoto(ctx context.Context, destination, photoID, caption string, rich bool) error
}

// Service sends outbound messages and classifies their failures
type Service struct {
	sender Sender
}

// New creates a new message service
func New(sender Sender) *Service {
	return &Service{
		sender: sender,
	}
}

// Send delivers one outbound message. Failures are returned as transport
// errors; the caller decides whether to log and continue.
func (s *Service) Send(ctx context.Context, out domain.Outbound) error {
	var err error
	if out.IsPhoto() {
		err = s.sender.SendPhoto(ctx, out.Destination, out.PhotoID, out.Text, out.Rich)
	} else {
		err = s.sender.SendText(ctx, out.Destination, out.Text)
	}
	if err != nil {
		return oops.In("message").
			With("destination", out.Destination, "photo", out.IsPhoto(), "rich", out.Rich).
			Wrap(errors.Transport(err))
	}
	return nil
}
