package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/odit-bit/ada/ada"
	"github.com/odit-bit/ada/ada/tgbot"
)

func init() {
	withConfigFlags(&BotCMD)
}

var BotCMD = cobra.Command{
	Use:   "bot",
	Short: "answer reservations over telegram",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		app, err := ada.New(ctx, cfg)
		if err != nil {
			return err
		}

		return ada.RunChannel(ctx, "ada-bot", app, func(ctx context.Context) error {
			return tgbot.Run(ctx, tgbot.Config{
				Token:       cfg.Telegram.Token,
				PollTimeout: cfg.Telegram.PollTimeout,
			}, app)
		})
	},
}
