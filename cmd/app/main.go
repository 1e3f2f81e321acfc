// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"telegram-membership-bot/internal/application"
	"telegram-membership-bot/internal/config"
	pg "telegram-membership-bot/internal/infra/db/postgres"
	"telegram-membership-bot/internal/infra/logging"
	"telegram-membership-bot/internal/infra/metrics"
	red "telegram-membership-bot/internal/infra/redis"
	"telegram-membership-bot/internal/infra/sched"
	tele "telegram-membership-bot/internal/infra/telegram"
	"telegram-membership-bot/internal/infra/web"
	"telegram-membership-bot/internal/infra/worker"
	"telegram-membership-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()
	if err := pg.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("schema setup failed")
	}

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	sweepLocker := red.NewLocker(redisClient)

	// ---- Repositories ----
	memberRepo := pg.NewPostgresMemberRepo(pool)
	channelRepo := pg.NewPostgresChannelRepo(pool)

	// ---- Worker pool for broadcast sends ----
	sendPool := worker.NewPool(cfg.Reminder.Workers)
	sendPool.Start(ctx)
	defer sendPool.Stop()

	// ---- Use cases ----
	memberUC := usecase.NewMembershipUseCase(memberRepo, logger)
	channelUC := usecase.NewChannelUseCase(channelRepo, logger)

	// ---- Telegram ----
	// The reminder use case needs the bot adapter and the facade needs the
	// reminder use case, so wire the facade first and patch it after.
	facade := application.NewBotFacade(memberUC, channelUC, nil, cfg.Bot.OwnerID)
	botAdapter, err := tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("telegram setup failed")
	}
	reminderUC := usecase.NewReminderUseCase(
		memberRepo, botAdapter, sendPool, sweepLocker,
		cfg.Bot.OwnerID, cfg.Reminder.SendTimeout, cfg.Reminder.SweepTimeout,
		logger,
	)
	facade.ReminderUC = reminderUC

	if strings.ToLower(cfg.Bot.Mode) != "" && strings.ToLower(cfg.Bot.Mode) != "polling" {
		logger.Warn().Str("mode", cfg.Bot.Mode).Msg("bot mode not implemented; falling back to polling")
	}
	go func() {
		if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Msg("telegram polling stopped")
		}
	}()

	// ---- Admin HTTP server ----
	adminSrv := web.NewServer(memberUC, channelUC, cfg.Admin.APIKey, logger)
	mux := http.NewServeMux()
	adminSrv.RegisterRoutes(mux)
	server := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Admin.Port), Handler: mux}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("admin server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("admin server error")
		}
	}()

	// ---- Optional periodic reminder sweep ----
	reminderWorker := sched.NewReminderWorker(cfg.Reminder.Interval, cfg.Bot.OwnerID, reminderUC, logger)
	go func() { _ = reminderWorker.Run(ctx) }()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	cancel()
	_ = server.Close()
}
