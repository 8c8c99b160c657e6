// Package cli implements the techhourse command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "config.json"

// NewRootCmd creates the top-level "techhourse" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "techhourse",
		Short:         "Phone catalog browser and AI purchase assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.Open(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", DefaultConfigPath, "Path to the JSON config file")

	root.AddCommand(
		newServeCmd(app),
		newImportCmd(app),
		newPromptCmd(app),
		newChatCmd(app),
		newCompareCmd(app),
		newPhonesCmd(app),
		newHistoryCmd(app),
		newBehaviorCmd(app),
		newAccountCmd(app),
	)

	return root
}

// Execute runs the command line against a fresh App.
func Execute(ctx context.Context, args []string) error {
	app := NewApp()
	defer app.Close()

	root := NewRootCmd(app)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
