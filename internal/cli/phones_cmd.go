package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"techhourse/internal/catalog"
)

func newPhonesCmd(app *App) *cobra.Command {
	var brand, search string

	cmd := &cobra.Command{
		Use:   "phones",
		Short: "List the phone catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				phones []catalog.Phone
				err    error
			)
			switch {
			case brand != "":
				phones, err = app.Store.PhonesByBrand(ctx, brand)
			case search != "":
				phones, err = app.Store.SearchPhones(ctx, search)
			default:
				phones, err = app.Store.ListPhones(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(phones) == 0 {
				fmt.Fprintln(out, "No phones found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tMODEL\tBRAND\tMEMORY\tPRICE")
			for _, p := range phones {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Model, p.Brand, p.Memory, p.Price)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&brand, "brand", "", "Only phones of this brand")
	cmd.Flags().StringVar(&search, "search", "", "Match model or market name")

	return cmd
}
