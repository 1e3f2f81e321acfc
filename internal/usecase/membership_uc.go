package usecase

import (
	"context"
	"time"

	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ MembershipUseCase = (*membershipUC)(nil)

// MembershipUseCase exposes premium membership operations used by bot flows.
type MembershipUseCase interface {
	// AddMember records (or replaces) a premium membership expiring at the
	// given date.
	AddMember(ctx context.Context, tgID int64, expiresAt time.Time) (*model.Member, error)
	// DaysRemaining returns the signed whole-day count until the member's
	// expiry relative to now, or domain.ErrNotFound for unknown users.
	DaysRemaining(ctx context.Context, tgID int64, now time.Time) (int, error)
	Count(ctx context.Context) (int, error)
}

type membershipUC struct {
	members repository.MemberRepository
	log     *zerolog.Logger
}

func NewMembershipUseCase(members repository.MemberRepository, logger *zerolog.Logger) *membershipUC {
	return &membershipUC{members: members, log: logger}
}

func (u *membershipUC) AddMember(ctx context.Context, tgID int64, expiresAt time.Time) (*model.Member, error) {
	defer logging.TraceDuration(u.log, "MembershipUC.AddMember")()

	m, err := model.NewMember(tgID, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := u.members.Upsert(ctx, repository.NoTX, m); err != nil {
		u.log.Error().Err(err).Int64("tg_id", tgID).Msg("failed to upsert member")
		return nil, err
	}
	metrics.IncMemberUpserted()
	return m, nil
}

func (u *membershipUC) DaysRemaining(ctx context.Context, tgID int64, now time.Time) (int, error) {
	defer logging.TraceDuration(u.log, "MembershipUC.DaysRemaining")()

	m, err := u.members.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		return 0, err
	}
	return m.DaysRemaining(now), nil
}

func (u *membershipUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "MembershipUC.Count")()
	return u.members.CountMembers(ctx, repository.NoTX)
}
