package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odit-bit/ada/ada/store"
)

func init() {
	withConfigFlags(&ReservationsCMD)
	ReservationsCMD.Flags().Int("limit", 20, "number of reservations to list")
}

var ReservationsCMD = cobra.Command{
	Use:   "reservations",
	Short: "list the latest reservations",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		recs, err := st.Recent(ctx, limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSENDER\tNAME\tDATE\tTIME\tGUESTS\tTYPE\tCREATED")
		for _, r := range recs {
			fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\t%s\t%d\t%s\t%s\n",
				r.ID, r.Sender, r.Name, r.Surname, r.Date, r.Time, r.PartySize, r.ReservationType,
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}
