package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"techhourse/internal/account"
)

func newAccountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the local user account",
	}
	cmd.AddCommand(
		newAccountRegisterCmd(app),
		newAccountLoginCmd(app),
		newAccountLogoutCmd(app),
		newAccountWhoamiCmd(app),
	)
	return cmd
}

func newAccountRegisterCmd(app *App) *cobra.Command {
	var reg account.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(cmd, app, reg.Password, "Password")
			if err != nil {
				return err
			}
			reg.Password = pw
			a, err := app.Accounts.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered account %d for %s\n", a.ID, a.PhoneNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.PhoneNumber, "phone", "", "Mobile phone number")
	cmd.Flags().StringVar(&reg.Password, "password", "", "Password (prompted when omitted on a terminal)")
	cmd.Flags().StringVar(&reg.SecurityQuestion, "question", "", "Security question")
	cmd.Flags().StringVar(&reg.SecurityAnswer, "answer", "", "Security answer")

	return cmd
}

func newAccountLoginCmd(app *App) *cobra.Command {
	var phone, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordFlag(cmd, app, password, "Password")
			if err != nil {
				return err
			}
			a, err := app.Accounts.Login(cmd.Context(), phone, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", a.PhoneNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Mobile phone number")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted on a terminal)")

	return cmd
}

func newAccountLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Accounts.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newAccountWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Accounts.Current(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (account %d)\n", a.PhoneNumber, a.ID)
			return nil
		},
	}
}
