package repository

import (
	"context"
	"database/sql"
	goerrors "errors"

	"github.com/reshetovitsme/channel-relay/internal/modules/channel/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/database"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// SQLStorage implements Repository on the shared relational store
type SQLStorage struct {
	db *database.DB
}

// NewSQLStorage creates a channel repository backed by db
func NewSQLStorage(db *database.DB) Repository {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) SaveChannel(ctx context.Context, channel *domain.Channel) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO registered_channels (channel_id, channel_name)
		VALUES (?, ?)
		ON CONFLICT (channel_id) DO UPDATE SET channel_name = excluded.channel_name`),
		channel.ID, channel.Name)
	if err != nil {
		return oops.In("channel-repository").With("channel_id", channel.ID).Wrap(errors.Persistence(err))
	}
	return nil
}

func (s *SQLStorage) GetChannel(ctx context.Context, channelID int64) (*domain.Channel, error) {
	var channel domain.Channel
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT channel_id, channel_name FROM registered_channels WHERE channel_id = ?`), channelID,
	).Scan(&channel.ID, &channel.Name)
	if goerrors.Is(err, sql.ErrNoRows) {
		return nil, oops.In("channel-repository").With("channel_id", channelID).Wrap(errors.ErrInvalidChannel)
	}
	if err != nil {
		return nil, oops.In("channel-repository").With("channel_id", channelID).Wrap(errors.Persistence(err))
	}
	return &channel, nil
}

func (s *SQLStorage) GetAllChannels(ctx context.Context) ([]*domain.Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT channel_id, channel_name FROM registered_channels ORDER BY channel_name, channel_id`)
	if err != nil {
		return nil, oops.In("channel-repository").Wrap(errors.Persistence(err))
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		var channel domain.Channel
		if err := rows.Scan(&channel.ID, &channel.Name); err != nil {
			return nil, oops.In("channel-repository").Wrap(errors.Persistence(err))
		}
		channels = append(channels, &channel)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("channel-repository").Wrap(errors.Persistence(err))
	}
	return channels, nil
}
