package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword reads a line from the terminal without echo. Tests replace it.
var readPassword = term.ReadPassword

// passwordFlag returns value, or prompts for a hidden password when value is
// empty and stdin is a terminal.
func passwordFlag(cmd *cobra.Command, app *App, value, label string) (string, error) {
	if value != "" || app.IsInteractive == nil || !app.IsInteractive() {
		return value, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ", label)
	b, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}
