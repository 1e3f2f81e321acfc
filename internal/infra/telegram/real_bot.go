package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-membership-bot/internal/application"
	"telegram-membership-bot/internal/config"
	"telegram-membership-bot/internal/domain/ports/adapter"
	"telegram-membership-bot/internal/infra/metrics"
	red "telegram-membership-bot/internal/infra/redis"
)

// RealTelegramBotAdapter uses tgbotapi to poll updates and delegates to BotFacade.
type RealTelegramBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	facade      *application.BotFacade
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	updateWorkers int
	cancelPolling context.CancelFunc

	// Join requests observed while polling, keyed by requesting user.
	// Consumed by /approveme.
	mu      sync.Mutex
	pending map[int64][]joinRequest
}

type joinRequest struct {
	chatID int64
	userID int64
}

var _ adapter.TelegramBotAdapter = (*RealTelegramBotAdapter)(nil)

func NewRealTelegramBotAdapter(cfg *config.BotConfig, facade *application.BotFacade, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealTelegramBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	if facade == nil {
		return nil, errors.New("bot facade is nil")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	l := logger.With().Str("component", "TelegramAdapter").Logger()
	return &RealTelegramBotAdapter{
		bot:           bot,
		cfg:           cfg,
		facade:        facade,
		rateLimiter:   rateLimiter,
		log:           &l,
		updateWorkers: workers,
		pending:       make(map[int64][]joinRequest),
	}, nil
}

func (r *RealTelegramBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "chat_join_request"}
	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

func (r *RealTelegramBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

// SendMessage implements the adapter port.
func (r *RealTelegramBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	msg := tgbotapi.NewMessage(telegramID, text)
	_, err := r.bot.Send(msg)
	return err
}

// SendButtons sends a message with inline buttons.
// - If btn.URL is set, the button opens a link
// - Else if btn.Data is set, the button sends callback data
// - Else a safe fallback uses btn.Text as callback data
func (r *RealTelegramBotAdapter) SendButtons(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	kbRows := buildKeyboardRows(rows)
	msg := tgbotapi.NewMessage(telegramID, text)
	if len(kbRows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	}
	_, err := r.bot.Send(msg)
	return err
}

func buildKeyboardRows(rows [][]adapter.InlineButton) [][]tgbotapi.InlineKeyboardButton {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				label = "•"
			}
			var kb tgbotapi.InlineKeyboardButton
			switch {
			case btn.URL != "":
				kb = tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL)
			case btn.Data != "":
				kb = tgbotapi.NewInlineKeyboardButtonData(label, btn.Data)
			default:
				kb = tgbotapi.NewInlineKeyboardButtonData(label, label)
			}
			kbRow = append(kbRow, kb)
		}
		kbRows = append(kbRows, kbRow)
	}
	return kbRows
}

// splitCommand separates "/cmd arg1 arg2" into the command token and its
// arguments. Non-command text yields an empty command.
func splitCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	// Strip the @botname suffix used in groups.
	cmd := fields[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}
	return cmd, fields[1:]
}

func (r *RealTelegramBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	// ----- Join requests: queue for /approveme -----
	if update.ChatJoinRequest != nil {
		r.recordJoinRequest(update.ChatJoinRequest)
		return nil
	}

	// ----- Inline button callbacks -----
	if update.CallbackQuery != nil {
		return r.handleQuery(ctx, update.CallbackQuery)
	}

	// ----- Regular messages -----
	if update.Message == nil {
		return nil
	}
	tgUser := update.Message.From
	if tgUser == nil {
		return nil
	}
	// Authorization keys off the sender; replies go to the originating chat
	// so group invocations are answered in the group.
	callerID := tgUser.ID
	chatID := replyTarget(update.Message)
	command, args := splitCommand(update.Message.Text)
	if command == "" {
		return nil
	}

	// Basic rate limiting per user per command
	if r.rateLimiter != nil {
		allowed, err := r.rateLimiter.Allow(ctx, red.UserCommandKey(callerID, command), 20, time.Minute)
		if err != nil {
			r.log.Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			return r.SendMessage(ctx, chatID, "Rate limit exceeded. Please try again later.")
		}
	}
	metrics.IncCommand(command)

	switch command {
	case "/start":
		rows := [][]adapter.InlineButton{{{Text: "📣 Channels", Data: "cmd:channels"}}}
		return r.SendButtons(ctx, chatID, r.facade.HandleStart(), rows)

	case "/help":
		return r.SendMessage(ctx, chatID, r.facade.HandleHelp())

	case "/addchannel":
		text, err := r.facade.HandleAddChannel(ctx, callerID, args)
		return r.reply(ctx, chatID, text, err)

	case "/channels":
		return r.sendChannelsMenu(ctx, chatID)

	case "/approveme":
		if err := r.approveJoinRequests(ctx, callerID); err != nil {
			r.log.Error().Err(err).Int64("tg_id", callerID).Msg("join request approval failed")
			return r.SendMessage(ctx, chatID, "Failed to approve join requests.")
		}
		return r.SendMessage(ctx, chatID, r.facade.HandleApproveMe())

	case "/adduser":
		text, err := r.facade.HandleAddUser(ctx, callerID, args)
		return r.reply(ctx, chatID, text, err)

	case "/daysremaining":
		text, err := r.facade.HandleDaysRemaining(ctx, args)
		return r.reply(ctx, chatID, text, err)

	case "/remind":
		text, err := r.facade.HandleRemind(ctx, callerID)
		return r.reply(ctx, chatID, text, err)

	default:
		return nil
	}
}

// replyTarget picks where a command reply is sent: the chat the message came
// from, falling back to the sender's private chat.
func replyTarget(msg *tgbotapi.Message) int64 {
	if msg.Chat != nil {
		return msg.Chat.ID
	}
	if msg.From != nil {
		return msg.From.ID
	}
	return 0
}

// reply forwards a facade result, hiding transport/storage failures behind a
// generic message so a handler never crashes the process.
func (r *RealTelegramBotAdapter) reply(ctx context.Context, telegramID int64, text string, err error) error {
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", telegramID).Msg("command failed")
		return r.SendMessage(ctx, telegramID, "Something went wrong. Please try again later.")
	}
	return r.SendMessage(ctx, telegramID, text)
}

type cbHandler func(ctx context.Context, chatID int64, data string) error

// Exact-match callbacks
func (r *RealTelegramBotAdapter) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		"cmd:channels": func(ctx context.Context, id int64, _ string) error {
			return r.sendChannelsMenu(ctx, id)
		},
	}
}

func (r *RealTelegramBotAdapter) handleQuery(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query == nil || query.From == nil {
		return errors.New("invalid callback query")
	}

	// Stop telegram spinner when we return
	defer func() { _, _ = r.bot.Request(tgbotapi.NewCallback(query.ID, "")) }()

	var chatID int64
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	} else {
		chatID = query.From.ID
	}
	if chatID == 0 {
		return nil
	}

	data := strings.TrimSpace(query.Data)
	if fn, ok := r.cbRoutes()[data]; ok {
		return fn(ctx, chatID, data)
	}
	return errors.New("unknown callback data")
}

// sendChannelsMenu renders the channel directory as one URL button per record.
func (r *RealTelegramBotAdapter) sendChannelsMenu(ctx context.Context, telegramID int64) error {
	channels, err := r.facade.ChannelUC.List(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("failed to list channels")
		return r.SendMessage(ctx, telegramID, "Failed to load channels.")
	}
	rows := make([][]adapter.InlineButton, 0, len(channels))
	for _, c := range channels {
		rows = append(rows, []adapter.InlineButton{{Text: c.Name, URL: c.URL}})
	}
	return r.SendButtons(ctx, telegramID, "Available Channels:", rows)
}

// recordJoinRequest queues a chat join request until the requester runs /approveme.
func (r *RealTelegramBotAdapter) recordJoinRequest(req *tgbotapi.ChatJoinRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[req.From.ID] = append(r.pending[req.From.ID], joinRequest{
		chatID: req.Chat.ID,
		userID: req.From.ID,
	})
	r.log.Info().Int64("tg_id", req.From.ID).Int64("chat_id", req.Chat.ID).Msg("join request queued")
}

// approveJoinRequests approves every queued join request for the given user
// via the platform API. The queue entry is dropped once approved.
func (r *RealTelegramBotAdapter) approveJoinRequests(ctx context.Context, telegramID int64) error {
	r.mu.Lock()
	reqs := r.pending[telegramID]
	delete(r.pending, telegramID)
	r.mu.Unlock()

	for _, req := range reqs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		cfg := tgbotapi.ApproveChatJoinRequestConfig{
			ChatConfig: tgbotapi.ChatConfig{ChatID: req.chatID},
			UserID:     req.userID,
		}
		if _, err := r.bot.Request(cfg); err != nil {
			return err
		}
		r.log.Info().Int64("tg_id", req.userID).Int64("chat_id", req.chatID).Msg("join request approved")
	}
	return nil
}
