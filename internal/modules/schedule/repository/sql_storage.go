package repository

import (
	"context"

	"github.com/reshetovitsme/channel-relay/internal/modules/schedule/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/database"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// SQLStorage implements Repository on the shared relational store
type SQLStorage struct {
	db *database.DB
}

// NewSQLStorage creates a scheduled post repository backed by db
func NewSQLStorage(db *database.DB) Repository {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Insert(ctx context.Context, post *domain.ScheduledPost) error {
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`INSERT INTO scheduled_posts (channel_id, photo_id, caption, post_time) VALUES (?, ?, ?, ?) RETURNING id`),
		post.ChannelID, post.PhotoID, post.Caption, post.PostTime,
	).Scan(&post.ID)
	if err != nil {
		return oops.In("schedule-repository").With("channel_id", post.ChannelID, "post_time", post.PostTime).Wrap(errors.Persistence(err))
	}
	return nil
}

func (s *SQLStorage) ListAt(ctx context.Context, postTime string) ([]*domain.ScheduledPost, error) {
	return s.list(ctx, s.db.Rebind(`SELECT id, channel_id, photo_id, caption, post_time FROM scheduled_posts WHERE post_time = ? ORDER BY id`), postTime)
}

func (s *SQLStorage) ListByChannel(ctx context.Context, channelID int64) ([]*domain.ScheduledPost, error) {
	return s.list(ctx, s.db.Rebind(`SELECT id, channel_id, photo_id, caption, post_time FROM scheduled_posts WHERE channel_id = ? ORDER BY post_time, id`), channelID)
}

func (s *SQLStorage) list(ctx context.Context, query string, arg any) ([]*domain.ScheduledPost, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, oops.In("schedule-repository").With("filter", arg).Wrap(errors.Persistence(err))
	}
	defer rows.Close()

	var posts []*domain.ScheduledPost
	for rows.Next() {
		var post domain.ScheduledPost
		if err := rows.Scan(&post.ID, &post.ChannelID, &post.PhotoID, &post.Caption, &post.PostTime); err != nil {
			return nil, oops.In("schedule-repository").Wrap(errors.Persistence(err))
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("schedule-repository").Wrap(errors.Persistence(err))
	}
	return posts, nil
}
