package service

import (
	"context"
	goerrors "errors"
	"testing"

	"github.com/reshetovitsme/channel-relay/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
)

type memoryRepo struct {
	channels map[int64]*domain.Channel
}

func (m *memoryRepo) SaveChannel(_ context.Context, channel *domain.Channel) error {
	m.channels[channel.ID] = channel
	return nil
}

func (m *memoryRepo) GetChannel(_ context.Context, id int64) (*domain.Channel, error) {
	ch, ok := m.channels[id]
	if !ok {
		return nil, errors.ErrInvalidChannel
	}
	return ch, nil
}

func (m *memoryRepo) GetAllChannels(_ context.Context) ([]*domain.Channel, error) {
	var out []*domain.Channel
	for _, ch := range m.channels {
		out = append(out, ch)
	}
	return out, nil
}

type stubResolver map[string]*ChatInfo

func (s stubResolver) ResolveChat(_ context.Context, ref string) (*ChatInfo, error) {
	if chat, ok := s[ref]; ok {
		return chat, nil
	}
	return nil, goerrors.New("Bad Request: chat not found")
}

func TestRegister(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &memoryRepo{channels: map[int64]*domain.Channel{}}
	svc := New(repo)
	resolver := stubResolver{
		"@daily_photos": {ID: -100111, Title: "Daily Photos", Username: "daily_photos"},
		"@untitled":     {ID: -100222, Username: "untitled"},
	}

	ch, err := svc.Register(ctx, resolver, " @daily_photos ")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if ch.ID != -100111 || ch.Name != "Daily Photos" {
		t.Fatalf("unexpected channel: %+v", ch)
	}

	ch, err = svc.Register(ctx, resolver, "@untitled")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if ch.Name != "@untitled" {
		t.Fatalf("Name = %q, want @untitled", ch.Name)
	}

	if _, err := svc.Register(ctx, resolver, "@missing"); !errors.IsValidation(err) {
		t.Fatalf("Register missing = %v, want validation error", err)
	}
	if _, err := svc.Register(ctx, resolver, ""); !errors.IsValidation(err) {
		t.Fatalf("Register empty = %v, want validation error", err)
	}
	if len(repo.channels) != 2 {
		t.Fatalf("stored %d channels, want 2", len(repo.channels))
	}
}
