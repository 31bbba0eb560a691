package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/odit-bit/ada/ada"
)

const consoleSender = "console:local"

func init() {
	withConfigFlags(&ChatCMD)
}

var ChatCMD = cobra.Command{
	Use:   "chat",
	Short: "talk to the assistant from the terminal",
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
		defer app.Close()

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Split(bufio.ScanLines)
		fmt.Print("> ")
		for scanner.Scan() {
			input := strings.TrimSpace(scanner.Text())
			switch input {
			case "":
				fmt.Print("> ")
				continue
			case "/exit":
				return nil
			case "/reset":
				app.Reset(ctx, consoleSender)
				fmt.Print(">ada: cleared \n\n> ")
				continue
			}

			reply, err := app.Turn(ctx, consoleSender, input)
			if err != nil {
				if errors.Is(err, ctx.Err()) {
					return nil
				}
				fmt.Printf(">error: %s \n\n> ", err)
				continue
			}
			fmt.Printf(">ada: %s \n\n> ", reply)
		}
		return scanner.Err()
	},
}
