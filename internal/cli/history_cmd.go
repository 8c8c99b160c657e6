package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the logged-in user's recently viewed phones",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			user, err := app.Accounts.Current(ctx)
			if err != nil {
				return err
			}

			limit := app.Config.History.DisplayLimit
			if all {
				limit = app.Config.History.MaxEntries
			}
			entries, err := app.Store.RecentHistory(ctx, user.ID, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No viewing history.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODEL\tBRAND\tVIEWED")
			for _, h := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", h.PhoneID, h.PhoneModel, h.PhoneBrand, humanize.Time(h.ViewedAt))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Show every retained entry")

	return cmd
}
