package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/domain/model"
	"telegram-membership-bot/internal/domain/ports/adapter"
	"telegram-membership-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memMemberRepo is a small in-memory implementation used by unit tests.
type memMemberRepo struct {
	mu      sync.RWMutex
	store   map[int64]*model.Member
	listErr error // used by tests to simulate storage failures
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
	if m.listErr != nil {
		return nil, m.listErr
	}
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

// memChannelRepo keys records by (name, url) to mirror the upsert constraint.
type memChannelRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Channel
}

func newMemChannelRepo() *memChannelRepo {
	return &memChannelRepo{store: make(map[string]*model.Channel)}
}

func channelKey(c *model.Channel) string { return c.Name + "\x00" + c.URL }

func (m *memChannelRepo) Upsert(ctx context.Context, tx repository.Tx, c *model.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[channelKey(c)]; ok {
		return nil
	}
	cp := *c
	m.store[channelKey(c)] = &cp
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

// fakeBot records every outbound message and can fail specific recipients.
type fakeBot struct {
	mu      sync.Mutex
	sent    []fakeSentMessage
	failFor map[int64]error
}

type fakeSentMessage struct {
	telegramID int64
	text       string
}

func newFakeBot() *fakeBot {
	return &fakeBot{failFor: make(map[int64]error)}
}

func (f *fakeBot) SendMessage(ctx context.Context, telegramID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[telegramID]; ok {
		return err
	}
	f.sent = append(f.sent, fakeSentMessage{telegramID: telegramID, text: text})
	return nil
}

func (f *fakeBot) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	return f.SendMessage(ctx, telegramID, text)
}

func (f *fakeBot) sentTo(telegramID int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		if s.telegramID == telegramID {
			out = append(out, s.text)
		}
	}
	return out
}

func (f *fakeBot) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// memLocker emulates the redis sweep lock in memory.
type memLocker struct {
	mu   sync.Mutex
	held map[string]string
	seq  int
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]string)}
}

func (l *memLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrSweepInProgress
	}
	l.seq++
	token := fmt.Sprintf("token-%d", l.seq)
	l.held[key] = token
	return token, nil
}

func (l *memLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}
