package cmd

import (
	"github.com/spf13/cobra"

	"github.com/odit-bit/ada/ada"
)

func init() {
	withConfigFlags(&ServerCMD)
}

var ServerCMD = cobra.Command{
	Use:   "server",
	Short: "serve the messaging webhook",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		srv, err := ada.NewHttp(ctx, cfg)
		if err != nil {
			return err
		}
		return srv.Start(ctx)
	},
}
