package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/adapter"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
	red "telegram-membership-bot/internal/infra/redis"
	"telegram-membership-bot/internal/infra/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SweepLockKey guards against overlapping broadcast sweeps.
const SweepLockKey = "reminder:sweep"

// Telegram allows roughly 30 messages/sec for bots; stay under it.
const sendInterval = time.Second / 25

// SendFailure records one recipient the sweep could not reach.
type SendFailure struct {
	TelegramID int64
	Err        error
}

// SweepReport summarizes a broadcast sweep. Sent plus len(Failures) equals the
// number of membership records visited.
type SweepReport struct {
	Sent     int
	Failures []SendFailure
}

type ReminderUseCase interface {
	// BroadcastReminders sends every member their remaining-days figure.
	// Only the configured owner may invoke it; anyone else gets
	// domain.ErrNotAuthorized with zero sends performed. A second sweep
	// while one is running gets domain.ErrSweepInProgress.
	BroadcastReminders(ctx context.Context, callerID int64, now time.Time) (*SweepReport, error)
}

// Compile-time check
var _ ReminderUseCase = (*reminderUC)(nil)

type reminderUC struct {
	members repository.MemberRepository
	bot     adapter.TelegramBotAdapter
	pool    *worker.Pool
	locker  red.Locker

	ownerID      int64
	sendTimeout  time.Duration
	sweepTimeout time.Duration
	log          *zerolog.Logger
}

func NewReminderUseCase(
	members repository.MemberRepository,
	bot adapter.TelegramBotAdapter,
	pool *worker.Pool,
	locker red.Locker,
	ownerID int64,
	sendTimeout, sweepTimeout time.Duration,
	logger *zerolog.Logger,
) *reminderUC {
	l := logger.With().Str("component", "ReminderUC").Logger()
	return &reminderUC{
		members:      members,
		bot:          bot,
		pool:         pool,
		locker:       locker,
		ownerID:      ownerID,
		sendTimeout:  sendTimeout,
		sweepTimeout: sweepTimeout,
		log:          &l,
	}
}

type sendResult struct {
	telegramID int64
	err        error
}

func (uc *reminderUC) BroadcastReminders(ctx context.Context, callerID int64, now time.Time) (*SweepReport, error) {
	defer logging.TraceDuration(uc.log, "ReminderUC.BroadcastReminders")()

	if callerID != uc.ownerID {
		uc.log.Warn().Int64("caller", callerID).Msg("broadcast refused: not owner")
		return nil, domain.ErrNotAuthorized
	}

	token, err := uc.locker.TryLock(ctx, SweepLockKey, uc.sweepTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.locker.Unlock(context.Background(), SweepLockKey, token); err != nil {
			uc.log.Warn().Err(err).Msg("failed to release sweep lock")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, uc.sweepTimeout)
	defer cancel()
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	log := logging.With(ctx, uc.log)

	members, err := uc.members.List(ctx, repository.NoTX)
	if err != nil {
		log.Error().Err(err).Msg("failed to list members for sweep")
		return nil, fmt.Errorf("list members: %w", err)
	}
	log.Info().Int("member_count", len(members)).Msg("starting reminder sweep")

	report := &SweepReport{}
	if len(members) == 0 {
		return report, nil
	}

	results := make(chan sendResult, len(members))
	var mu sync.Mutex
	pending := make(map[int64]struct{}, len(members))

	throttle := time.NewTicker(sendInterval)
	defer throttle.Stop()

	submitted := 0
	for _, m := range members {
		select {
		case <-ctx.Done():
		case <-throttle.C:
		}
		if ctx.Err() != nil {
			report.Failures = append(report.Failures, SendFailure{TelegramID: m.TelegramID, Err: ctx.Err()})
			continue
		}
		mu.Lock()
		pending[m.TelegramID] = struct{}{}
		mu.Unlock()
		task := uc.sendTask(m, now, results)
		if err := uc.pool.Submit(ctx, task); err != nil {
			mu.Lock()
			delete(pending, m.TelegramID)
			mu.Unlock()
			report.Failures = append(report.Failures, SendFailure{TelegramID: m.TelegramID, Err: err})
			continue
		}
		submitted++
	}

	completed := 0
	for completed < submitted {
		select {
		case r := <-results:
			completed++
			mu.Lock()
			delete(pending, r.telegramID)
			mu.Unlock()
			if r.err != nil {
				report.Failures = append(report.Failures, SendFailure{TelegramID: r.telegramID, Err: r.err})
			} else {
				report.Sent++
			}
		case <-ctx.Done():
			// Tasks still queued when the pool drains on cancellation never
			// report back; account for them so every record stays visible.
			mu.Lock()
			for id := range pending {
				report.Failures = append(report.Failures, SendFailure{TelegramID: id, Err: ctx.Err()})
			}
			mu.Unlock()
			log.Warn().Err(ctx.Err()).Int("sent", report.Sent).Int("failed", len(report.Failures)).
				Msg("reminder sweep cancelled")
			return report, ctx.Err()
		}
	}

	log.Info().Int("sent", report.Sent).Int("failed", len(report.Failures)).Msg("reminder sweep finished")
	return report, nil
}

// sendTask builds the per-recipient closure for the worker pool. A failure for
// one recipient is recorded and never halts the sweep.
func (uc *reminderUC) sendTask(m *model.Member, now time.Time, results chan<- sendResult) worker.Task {
	telegramID := m.TelegramID
	days := m.DaysRemaining(now)
	return func(ctx context.Context) error {
		sctx, cancel := context.WithTimeout(ctx, uc.sendTimeout)
		defer cancel()

		start := time.Now()
		err := uc.bot.SendMessage(sctx, telegramID, fmt.Sprintf("You have %d days remaining.", days))
		metrics.ObserveReminderSend(time.Since(start).Milliseconds(), err == nil)
		if err != nil {
			uc.log.Warn().Err(err).Int64("tg_id", telegramID).Msg("failed to send reminder")
		}
		results <- sendResult{telegramID: telegramID, err: err}
		return nil // failures are accumulated in the report, not retried
	}
}
