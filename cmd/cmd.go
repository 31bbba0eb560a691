package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odit-bit/ada/ada/config"
)

func withConfigFlags(c *cobra.Command) *cobra.Command {
	c.Flags().AddFlagSet(config.FlagSet)
	return c
}

func loadConfig(c *cobra.Command) (*config.Config, error) {
	return config.LoadAndValidate(c.Flags())
}

func signalContext(c *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
}
