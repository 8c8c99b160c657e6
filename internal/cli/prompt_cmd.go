package cli

import (
	"fmt"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newPromptCmd(app *App) *cobra.Command {
	var stats bool

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the system prompt the next chat turn would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			text := app.Chat.SystemPrompt(ctx)

			if !stats {
				fmt.Fprintln(out, text)
				return nil
			}

			snap, err := app.Store.LatestBehavior(ctx)
			if err != nil {
				return err
			}
			phones, err := app.Store.CountPhones(ctx)
			if err != nil {
				return err
			}
			kind := "default"
			if snap != nil {
				kind = "personalized (snapshot of " + humanize.Time(snap.RecordedAt) + ")"
			}
			fmt.Fprintf(out, "Prompt:     %s\n", kind)
			fmt.Fprintf(out, "Phones:     %d\n", phones)
			fmt.Fprintf(out, "Characters: %s\n", humanize.Comma(int64(utf8.RuneCountInString(text))))
			fmt.Fprintf(out, "Size:       %s\n", humanize.Bytes(uint64(len(text))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Show prompt statistics instead of the text")

	return cmd
}
