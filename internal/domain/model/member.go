package model

import (
	"time"

	"telegram-membership-bot/internal/domain"
)

// Member represents a premium membership record: one Telegram user with a
// calendar expiry date. Members are keyed by Telegram ID; re-adding a member
// replaces the stored expiry (upsert semantics at the repository layer).
type Member struct {
	TelegramID int64
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewMember creates a membership record for the given Telegram user.
func NewMember(telegramID int64, expiresAt time.Time) (*Member, error) {
	if telegramID <= 0 || expiresAt.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Member{
		TelegramID: telegramID,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DaysRemaining returns the signed number of whole calendar days between now
// and expiry. It is 0 on the expiry day itself, positive before and negative
// after; the value is deliberately not clamped at zero so an expired
// membership stays visible as a negative figure.
//
// Both instants are reduced to their civil date before subtracting, so the
// result decreases by exactly 1 per elapsed calendar day regardless of
// time-of-day.
func DaysRemaining(now, expiry time.Time) int {
	nd := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	ed := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, time.UTC)
	return int(ed.Sub(nd) / (24 * time.Hour))
}

// DaysRemaining reports the member's remaining days relative to now.
func (m *Member) DaysRemaining(now time.Time) int {
	return DaysRemaining(now, m.ExpiresAt)
}
