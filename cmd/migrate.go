package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odit-bit/ada/ada/store"
)

func init() {
	withConfigFlags(&MigrateCMD)
}

var MigrateCMD = cobra.Command{
	Use:   "migrate",
	Short: "create the reservations table",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		slog.Info("migration done", "database", cfg.Database.Name)
		return nil
	},
}
