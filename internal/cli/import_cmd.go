package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the phone catalog file into the database",
		Long: "Import the phone catalog file into the database.\n\n" +
			"An already populated catalog is left alone unless --force is given, " +
			"in which case it is replaced. Phones whose model name is unchanged keep " +
			"their favorites and history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if force {
				n, err := app.Loader.Reload(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Replaced catalog with %d phones from %s\n", n, app.Loader.Path())
				return nil
			}

			n, err := app.Loader.Initialize(ctx)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(out, "Catalog already populated; use --force to reimport")
				return nil
			}
			fmt.Fprintf(out, "Imported %d phones from %s\n", n, app.Loader.Path())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing catalog")

	return cmd
}
