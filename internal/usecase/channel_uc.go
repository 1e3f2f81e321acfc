package usecase

import (
	"context"

	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ChannelUseCase = (*channelUC)(nil)

// ChannelUseCase manages the promotional channel directory.
type ChannelUseCase interface {
	AddChannel(ctx context.Context, name, url string) (*model.Channel, error)
	List(ctx context.Context) ([]*model.Channel, error)
	Count(ctx context.Context) (int, error)
}

type channelUC struct {
	channels repository.ChannelRepository
	log      *zerolog.Logger
}

func NewChannelUseCase(channels repository.ChannelRepository, logger *zerolog.Logger) *channelUC {
	return &channelUC{channels: channels, log: logger}
}

func (u *channelUC) AddChannel(ctx context.Context, name, url string) (*model.Channel, error) {
	defer logging.TraceDuration(u.log, "ChannelUC.AddChannel")()

	c, err := model.NewChannel(name, url)
	if err != nil {
		return nil, err
	}
	if err := u.channels.Upsert(ctx, repository.NoTX, c); err != nil {
		u.log.Error().Err(err).Str("name", name).Msg("failed to upsert channel")
		return nil, err
	}
	metrics.IncChannelUpserted()
	return c, nil
}

func (u *channelUC) List(ctx context.Context) ([]*model.Channel, error) {
	defer logging.TraceDuration(u.log, "ChannelUC.List")()
	return u.channels.List(ctx, repository.NoTX)
}

func (u *channelUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "ChannelUC.Count")()
	return u.channels.CountChannels(ctx, repository.NoTX)
}
