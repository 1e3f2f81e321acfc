package application

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/repository"
	"telegram-membership-bot/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memMemberRepo backs the real use cases with an in-memory store so the
// facade tests run command semantics end to end.
type memMemberRepo struct {
	mu    sync.RWMutex
	store map[int64]*model.Member
}

func newMemMemberRepo() *memMemberRepo {
	return &memMemberRepo{store: make(map[int64]*model.Member)}
}

func (m *memMemberRepo) Upsert(ctx context.Context, tx repository.Tx, rec *model.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.store[rec.TelegramID] = &cp
	return nil
}

func (m *memMemberRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.store[tgID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memMemberRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Member, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Member, 0, len(m.store))
	for _, rec := range m.store {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memMemberRepo) CountMembers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

type memChannelRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Channel
}

func newMemChannelRepo() *memChannelRepo {
	return &memChannelRepo{store: make(map[string]*model.Channel)}
}

func (m *memChannelRepo) Upsert(ctx context.Context, tx repository.Tx, c *model.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := c.Name + "\x00" + c.URL
	if _, ok := m.store[key]; ok {
		return nil
	}
	cp := *c
	m.store[key] = &cp
	return nil
}

func (m *memChannelRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Channel, 0, len(m.store))
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memChannelRepo) CountChannels(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.store), nil
}

// stubReminderUC lets facade tests script the sweep outcome.
type stubReminderUC struct {
	report   *usecase.SweepReport
	err      error
	calls    int
	lastCall int64
}

func (s *stubReminderUC) BroadcastReminders(ctx context.Context, callerID int64, now time.Time) (*usecase.SweepReport, error) {
	s.calls++
	s.lastCall = callerID
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}
