package tgbot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Run poll telegram and answer through a until ctx is done.
func Run(ctx context.Context, cfg Config, a Assistant) error {
	if cfg.Token == "" {
		return errors.New("telegram token is required")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}

	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: func(err error, c tele.Context) {
			slog.Error("telegram handler", "error", err)
		},
	})
	if err != nil {
		return err
	}

	Handle(ctx, bot, a)

	stopped := make(chan struct{})
	go func() {
		bot.Start()
		close(stopped)
	}()
	slog.Info("telegram bot started", "username", bot.Me.Username)

	<-ctx.Done()
	slog.Info("shutdown telegram bot...")
	bot.Stop()
	<-stopped
	return nil
}
