package repository

import (
	"context"

	"telegram-membership-bot/internal/domain/model"
)

// -----------------------------
// Channels
// -----------------------------

type ChannelRepository interface {
	// Upsert inserts the record; a duplicate (name, url) pair is a no-op.
	Upsert(ctx context.Context, tx Tx, c *model.Channel) error
	// List returns all channels, order unspecified.
	List(ctx context.Context, tx Tx) ([]*model.Channel, error)
	CountChannels(ctx context.Context, tx Tx) (int, error)
}
