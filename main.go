package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/odit-bit/ada/cmd"
)

func main() {
	rootCMD := cobra.Command{
		Use:          "ada",
		Short:        "ADA, the Spirit AI reservation assistant",
		SilenceUsage: true,
	}
	rootCMD.AddCommand(
		&cmd.ServerCMD,
		&cmd.BotCMD,
		&cmd.ChatCMD,
		&cmd.MigrateCMD,
		&cmd.ReservationsCMD,
		&cmd.ConfigCMD,
	)
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}
