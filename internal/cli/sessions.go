package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minhvu-dev/lawchat/internal/app"
	"github.com/minhvu-dev/lawchat/internal/domain"
)

func newSessionsCmd(a *app.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage conversation sessions",
	}
	cmd.AddCommand(
		newSessionsListCmd(a),
		newSessionsRenameCmd(a),
		newSessionsDeleteCmd(a),
	)
	return cmd
}

func newSessionsListCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(cmd, a); err != nil {
				return err
			}
			if err := a.Store.Refresh(cmd.Context()); err != nil {
				return err
			}

			sessions := a.Store.Sessions()
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
				return nil
			}
			for _, sess := range sessions {
				fmt.Fprintln(cmd.OutOrStdout(), formatSessionLine(sess))
			}
			return nil
		},
	}
}

func newSessionsRenameCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(cmd, a); err != nil {
				return err
			}
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			if err := a.Store.Refresh(cmd.Context()); err != nil {
				return err
			}

			title := strings.Join(args[1:], " ")
			if err := a.Store.Rename(cmd.Context(), id, title); err != nil {
				return err
			}
			a.Store.Flush()
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed session %s to %q\n", id, title)
			return nil
		},
	}
}

func newSessionsDeleteCmd(a *app.App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(cmd, a); err != nil {
				return err
			}
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			if err := a.Store.Refresh(cmd.Context()); err != nil {
				return err
			}

			if err := a.Reconciler.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", id)
			return nil
		},
	}
}

func parseSessionID(arg string) (domain.SessionID, error) {
	n, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || n <= 0 {
		return domain.SessionID{}, fmt.Errorf("invalid session id %q", arg)
	}
	return domain.ConfirmedID(n), nil
}

func requireLogin(cmd *cobra.Command, a *app.App) error {
	if err := a.Init(cmd.Context()); err != nil {
		if errors.Is(err, domain.ErrNotLoggedIn) {
			return fmt.Errorf("not logged in; run `lawchat login` first")
		}
		return err
	}
	return nil
}
