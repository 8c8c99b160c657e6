package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"techhourse/internal/chat"
)

func newChatCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the assistant; without a message, start an interactive session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.warnMissingKey()
			out := cmd.OutOrStdout()

			if len(args) > 0 {
				turn := app.Chat.Send(cmd.Context(), strings.Join(args, " "))
				printTurn(out, turn)
				if !turn.Replied() {
					return fmt.Errorf("chat turn %s (%s)", turn.Status, turn.Kind)
				}
				return nil
			}
			return chatLoop(cmd, app)
		},
	}
	return cmd
}

// chatLoop reads one message per line until EOF or "exit".
func chatLoop(cmd *cobra.Command, app *App) error {
	out := cmd.OutOrStdout()
	interactive := app.IsInteractive != nil && app.IsInteractive()
	if interactive {
		fmt.Fprintln(out, "TechHourse assistant. Type exit to quit.")
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		printTurn(out, app.Chat.Send(cmd.Context(), line))
	}
	return scanner.Err()
}

func printTurn(out io.Writer, t chat.Turn) {
	if t.Replied() {
		fmt.Fprintln(out, t.Text)
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", t.Status, t.Text)
}

func newCompareCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare ID [ID...]",
		Short: "Ask for purchase advice on the given phones",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, a := range args {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid phone id %q", a)
				}
				ids[i] = id
			}

			ctx := cmd.Context()
			phones, err := app.Store.GetPhones(ctx, ids)
			if err != nil {
				return err
			}
			app.warnMissingKey()
			turn, err := app.Chat.Compare(ctx, phones)
			if err != nil {
				return err
			}
			printTurn(cmd.OutOrStdout(), turn)
			if !turn.Replied() {
				return fmt.Errorf("chat turn %s (%s)", turn.Status, turn.Kind)
			}
			return nil
		},
	}
	return cmd
}
