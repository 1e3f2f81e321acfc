package sched

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/usecase"
)

// ReminderWorker periodically runs the broadcast sweep as the owner identity.
// It keeps no schedule state and never retries a failed sweep; the next tick
// simply runs again.
type ReminderWorker struct {
	interval time.Duration
	ownerID  int64
	reminder usecase.ReminderUseCase
	log      *zerolog.Logger
}

func NewReminderWorker(interval time.Duration, ownerID int64, reminder usecase.ReminderUseCase, logger *zerolog.Logger) *ReminderWorker {
	l := logger.With().Str("component", "ReminderWorker").Logger()
	return &ReminderWorker{
		interval: interval,
		ownerID:  ownerID,
		reminder: reminder,
		log:      &l,
	}
}

func (w *ReminderWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.log.Info().Msg("periodic reminder sweep disabled")
		return nil
	}
	w.log.Info().Dur("interval", w.interval).Msg("starting reminder worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping reminder worker")
			return ctx.Err()
		case <-ticker.C:
			report, err := w.reminder.BroadcastReminders(ctx, w.ownerID, time.Now())
			if err != nil {
				if errors.Is(err, domain.ErrSweepInProgress) {
					continue
				}
				w.log.Error().Err(err).Msg("scheduled reminder sweep failed")
				continue
			}
			w.log.Info().Int("sent", report.Sent).Int("failed", len(report.Failures)).
				Msg("scheduled reminder sweep finished")
		}
	}
}
