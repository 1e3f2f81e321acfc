package repository

import (
	"context"

	"telegram-membership-bot/internal/domain/model"
)

// -----------------------------
// Members
// -----------------------------

type MemberRepository interface {
	// Upsert inserts the record or, when the Telegram ID already exists,
	// replaces its expiry date.
	Upsert(ctx context.Context, tx Tx, m *model.Member) error
	// FindByTelegramID returns domain.ErrNotFound for unknown users.
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.Member, error)
	// List returns a point-in-time snapshot of all members, order unspecified.
	List(ctx context.Context, tx Tx) ([]*model.Member, error)
	CountMembers(ctx context.Context, tx Tx) (int, error)
}
