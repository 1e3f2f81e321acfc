package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"telegram-membership-bot/internal/domain"
	"telegram-membership-bot/internal/usecase"
)

// Date format accepted by /adduser, e.g. 31/12/2030.
const expiryDateLayout = "02/01/2006"

// Reply strings shared by handlers.
const (
	welcomeText       = "Welcome to the Telegram Membership Bot!"
	notAuthorizedText = "You are not authorized to use this command."
	userNotFoundText  = "User not found."
	approveText       = "All join requests have been accepted."

	usageAddChannel    = "Usage: /addchannel name url"
	usageAddUser       = "Usage: /adduser userid expiry_date (DD/MM/YYYY)"
	usageDaysRemaining = "Usage: /daysremaining userid"
)

// BotFacade composes use cases into high-level bot commands.
// Facade methods return the reply text to forward to the chat; the returned
// error is reserved for transport/storage failures the adapter should report
// generically. Usage, authorization and not-found conditions are already
// folded into the reply text with a nil error.
type BotFacade struct {
	MemberUC   usecase.MembershipUseCase
	ChannelUC  usecase.ChannelUseCase
	ReminderUC usecase.ReminderUseCase

	ownerID int64
	now     func() time.Time // injectable clock
}

func NewBotFacade(
	memberUC usecase.MembershipUseCase,
	channelUC usecase.ChannelUseCase,
	reminderUC usecase.ReminderUseCase,
	ownerID int64,
) *BotFacade {
	return &BotFacade{
		MemberUC:   memberUC,
		ChannelUC:  channelUC,
		ReminderUC: reminderUC,
		ownerID:    ownerID,
		now:        time.Now,
	}
}

// WithClock overrides the facade's notion of now. Intended for tests.
func (b *BotFacade) WithClock(now func() time.Time) *BotFacade {
	b.now = now
	return b
}

// HandleStart returns the static welcome reply.
func (b *BotFacade) HandleStart() string { return welcomeText }

// HandleHelp lists the command surface.
func (b *BotFacade) HandleHelp() string {
	return "Commands:\n" +
		"/start - welcome\n" +
		"/channels - list promotional channels\n" +
		"/approveme - approve pending join requests\n" +
		"/daysremaining <userid> - days left on a membership\n" +
		"/addchannel <name> <url> - add a channel (owner)\n" +
		"/adduser <userid> <DD/MM/YYYY> - add a premium member (owner)\n" +
		"/remind - send reminders to all members (owner)"
}

// HandleApproveMe returns the static confirmation; the actual join-request
// approval is a transport capability handled by the Telegram adapter.
func (b *BotFacade) HandleApproveMe() string { return approveText }

// HandleAddChannel inserts a channel record. Owner-only.
func (b *BotFacade) HandleAddChannel(ctx context.Context, callerID int64, args []string) (string, error) {
	if callerID != b.ownerID {
		return notAuthorizedText, nil
	}
	if len(args) != 2 {
		return usageAddChannel, nil
	}
	c, err := b.ChannelUC.AddChannel(ctx, args[0], args[1])
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			return usageAddChannel, nil
		}
		return "", fmt.Errorf("add channel: %w", err)
	}
	return fmt.Sprintf("Channel '%s' added successfully.", c.Name), nil
}

// HandleAddUser inserts (or replaces) a membership record. Owner-only.
func (b *BotFacade) HandleAddUser(ctx context.Context, callerID int64, args []string) (string, error) {
	if callerID != b.ownerID {
		return notAuthorizedText, nil
	}
	if len(args) != 2 {
		return usageAddUser, nil
	}
	tgID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || tgID <= 0 {
		return usageAddUser, nil
	}
	expiry, err := time.Parse(expiryDateLayout, args[1])
	if err != nil {
		return fmt.Sprintf("Invalid expiry date %q: expected DD/MM/YYYY.", args[1]), nil
	}
	m, err := b.MemberUC.AddMember(ctx, tgID, expiry)
	if err != nil {
		return "", fmt.Errorf("add member: %w", err)
	}
	return fmt.Sprintf("User %d added as premium until %s.", m.TelegramID, m.ExpiresAt.Format(expiryDateLayout)), nil
}

// HandleDaysRemaining reports the signed remaining-days figure for one user.
func (b *BotFacade) HandleDaysRemaining(ctx context.Context, args []string) (string, error) {
	if len(args) != 1 || !isDigits(args[0]) {
		return usageDaysRemaining, nil
	}
	tgID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return usageDaysRemaining, nil
	}
	days, err := b.MemberUC.DaysRemaining(ctx, tgID, b.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return userNotFoundText, nil
		}
		return "", fmt.Errorf("days remaining: %w", err)
	}
	return fmt.Sprintf("%d days remaining for user %d.", days, tgID), nil
}

// HandleRemind runs the owner-only broadcast sweep and summarizes it.
// Recipients get individualized figures; the owner only gets counts.
func (b *BotFacade) HandleRemind(ctx context.Context, callerID int64) (string, error) {
	report, err := b.ReminderUC.BroadcastReminders(ctx, callerID, b.now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			return notAuthorizedText, nil
		case errors.Is(err, domain.ErrSweepInProgress):
			return "A reminder sweep is already running.", nil
		default:
			return "", fmt.Errorf("broadcast reminders: %w", err)
		}
	}
	if len(report.Failures) > 0 {
		return fmt.Sprintf("Reminders sent to all premium users (%d delivered, %d failed).",
			report.Sent, len(report.Failures)), nil
	}
	return fmt.Sprintf("Reminders sent to all premium users (%d delivered).", report.Sent), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
