package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minhvu-dev/lawchat/internal/app"
)

func newLoginCmd(a *app.App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				var err error
				email, err = prompt(cmd, "Email: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				var err error
				password, err = prompt(cmd, "Password: ")
				if err != nil {
					return err
				}
			}

			user, err := a.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newSignupCmd(a *app.App) *cobra.Command {
	var email, password, fullName string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				var err error
				email, err = prompt(cmd, "Email: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				var err error
				password, err = prompt(cmd, "Password: ")
				if err != nil {
					return err
				}
			}

			user, err := a.API.Signup(cmd.Context(), email, password, fullName)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account created for %s. Run `lawchat login` to start.\n", user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	return cmd
}

func newLogoutCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored token and local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), label)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
