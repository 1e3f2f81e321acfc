package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/usecase"
)

const ownerID int64 = 777

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
}

func newFacade(reminder usecase.ReminderUseCase) *BotFacade {
	memberUC := usecase.NewMembershipUseCase(newMemMemberRepo(), newTestLogger())
	channelUC := usecase.NewChannelUseCase(newMemChannelRepo(), newTestLogger())
	return NewBotFacade(memberUC, channelUC, reminder, ownerID)
}

func TestBotFacade_StaticReplies(t *testing.T) {
	f := newFacade(nil)
	if !strings.Contains(f.HandleStart(), "Welcome") {
		t.Errorf("unexpected welcome text: %q", f.HandleStart())
	}
	if !strings.Contains(f.HandleHelp(), "/daysremaining") {
		t.Errorf("help should list commands, got %q", f.HandleHelp())
	}
	if !strings.Contains(f.HandleApproveMe(), "accepted") {
		t.Errorf("unexpected approve reply: %q", f.HandleApproveMe())
	}
}

func TestBotFacade_AddUserAndDaysRemaining(t *testing.T) {
	ctx := context.Background()

	t.Run("one day before expiry reports 1", func(t *testing.T) {
		f := newFacade(nil).WithClock(fixedClock(2029, time.December, 31))

		reply, err := f.HandleAddUser(ctx, ownerID, []string{"123", "01/01/2030"})
		if err != nil {
			t.Fatalf("HandleAddUser failed: %v", err)
		}
		if !strings.Contains(reply, "User 123 added as premium until 01/01/2030") {
			t.Errorf("unexpected add reply: %q", reply)
		}

		reply, err = f.HandleDaysRemaining(ctx, []string{"123"})
		if err != nil {
			t.Fatalf("HandleDaysRemaining failed: %v", err)
		}
		if reply != "1 days remaining for user 123." {
			t.Errorf("expected 1 day remaining, got %q", reply)
		}
	})

	t.Run("one day after expiry reports -1", func(t *testing.T) {
		f := newFacade(nil).WithClock(fixedClock(2021, time.January, 1))

		if _, err := f.HandleAddUser(ctx, ownerID, []string{"123", "31/12/2020"}); err != nil {
			t.Fatalf("HandleAddUser failed: %v", err)
		}
		reply, err := f.HandleDaysRemaining(ctx, []string{"123"})
		if err != nil {
			t.Fatalf("HandleDaysRemaining failed: %v", err)
		}
		if reply != "-1 days remaining for user 123." {
			t.Errorf("expected -1 days remaining, got %q", reply)
		}
	})

	t.Run("usage hints", func(t *testing.T) {
		f := newFacade(nil)
		cases := []struct {
			name string
			run  func() (string, error)
		}{
			{"adduser wrong arg count", func() (string, error) {
				return f.HandleAddUser(ctx, ownerID, []string{"123"})
			}},
			{"adduser non-numeric id", func() (string, error) {
				return f.HandleAddUser(ctx, ownerID, []string{"abc", "01/01/2030"})
			}},
			{"daysremaining missing arg", func() (string, error) {
				return f.HandleDaysRemaining(ctx, nil)
			}},
			{"daysremaining non-numeric", func() (string, error) {
				return f.HandleDaysRemaining(ctx, []string{"12a"})
			}},
			{"daysremaining negative", func() (string, error) {
				return f.HandleDaysRemaining(ctx, []string{"-5"})
			}},
		}
		for _, c := range cases {
			reply, err := c.run()
			if err != nil {
				t.Fatalf("%s: unexpected error %v", c.name, err)
			}
			if !strings.HasPrefix(reply, "Usage:") {
				t.Errorf("%s: expected usage hint, got %q", c.name, reply)
			}
		}
	})

	t.Run("malformed expiry date yields a format hint, not a crash", func(t *testing.T) {
		f := newFacade(nil)
		reply, err := f.HandleAddUser(ctx, ownerID, []string{"123", "2030-01-01"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply, "DD/MM/YYYY") {
			t.Errorf("expected date format hint, got %q", reply)
		}
	})

	t.Run("unknown user yields a not-found reply", func(t *testing.T) {
		f := newFacade(nil)
		reply, err := f.HandleDaysRemaining(ctx, []string{"999"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reply != "User not found." {
			t.Errorf("expected not-found reply, got %q", reply)
		}
	})

	t.Run("non-owner cannot add users", func(t *testing.T) {
		f := newFacade(nil)
		reply, err := f.HandleAddUser(ctx, ownerID+1, []string{"123", "01/01/2030"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply, "not authorized") {
			t.Errorf("expected refusal, got %q", reply)
		}
		// Nothing was stored.
		if r, _ := f.HandleDaysRemaining(ctx, []string{"123"}); r != "User not found." {
			t.Errorf("expected no record after refused add, got %q", r)
		}
	})
}

func TestBotFacade_AddChannel(t *testing.T) {
	ctx := context.Background()

	t.Run("owner adds a channel", func(t *testing.T) {
		f := newFacade(nil)
		reply, err := f.HandleAddChannel(ctx, ownerID, []string{"News", "https://t.me/news"})
		if err != nil {
			t.Fatalf("HandleAddChannel failed: %v", err)
		}
		if reply != "Channel 'News' added successfully." {
			t.Errorf("unexpected reply: %q", reply)
		}
		channels, err := f.ChannelUC.List(ctx)
		if err != nil || len(channels) != 1 {
			t.Fatalf("expected one stored channel, got %d (%v)", len(channels), err)
		}
	})

	t.Run("wrong arg count yields usage", func(t *testing.T) {
		f := newFacade(nil)
		reply, _ := f.HandleAddChannel(ctx, ownerID, []string{"OnlyName"})
		if !strings.HasPrefix(reply, "Usage:") {
			t.Errorf("expected usage hint, got %q", reply)
		}
	})

	t.Run("non-owner is refused", func(t *testing.T) {
		f := newFacade(nil)
		reply, _ := f.HandleAddChannel(ctx, ownerID+1, []string{"News", "https://t.me/news"})
		if !strings.Contains(reply, "not authorized") {
			t.Errorf("expected refusal, got %q", reply)
		}
	})
}

func TestBotFacade_Remind(t *testing.T) {
	ctx := context.Background()

	t.Run("summarizes a clean sweep", func(t *testing.T) {
		stub := &stubReminderUC{report: &usecase.SweepReport{Sent: 4}}
		f := newFacade(stub)
		reply, err := f.HandleRemind(ctx, ownerID)
		if err != nil {
			t.Fatalf("HandleRemind failed: %v", err)
		}
		if reply != "Reminders sent to all premium users (4 delivered)." {
			t.Errorf("unexpected reply: %q", reply)
		}
		if stub.calls != 1 || stub.lastCall != ownerID {
			t.Errorf("expected one sweep as owner, got %d calls as %d", stub.calls, stub.lastCall)
		}
	})

	t.Run("includes the failure count", func(t *testing.T) {
		stub := &stubReminderUC{report: &usecase.SweepReport{
			Sent:     3,
			Failures: []usecase.SendFailure{{TelegramID: 9}},
		}}
		f := newFacade(stub)
		reply, err := f.HandleRemind(ctx, ownerID)
		if err != nil {
			t.Fatalf("HandleRemind failed: %v", err)
		}
		if reply != "Reminders sent to all premium users (3 delivered, 1 failed)." {
			t.Errorf("unexpected reply: %q", reply)
		}
	})

	t.Run("maps refusals and busy sweeps to replies", func(t *testing.T) {
		f := newFacade(&stubReminderUC{err: domain.ErrNotAuthorized})
		reply, err := f.HandleRemind(ctx, ownerID+1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply, "not authorized") {
			t.Errorf("expected refusal reply, got %q", reply)
		}

		f = newFacade(&stubReminderUC{err: domain.ErrSweepInProgress})
		reply, err = f.HandleRemind(ctx, ownerID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(reply, "already running") {
			t.Errorf("expected busy reply, got %q", reply)
		}
	})
}
