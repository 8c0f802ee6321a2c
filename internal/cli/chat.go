package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/minhvu-dev/lawchat/internal/app"
	"github.com/minhvu-dev/lawchat/internal/domain"
)

func newChatCmd(a *app.App) *cobra.Command {
	var sessionArg string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: "Opens a REPL against the legal assistant. Inside it:\n" +
			"  /sessions        list conversations\n" +
			"  /open <id>       switch to a conversation\n" +
			"  /new             start a fresh conversation\n" +
			"  /quit            leave",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireLogin(cmd, a); err != nil {
				return err
			}
			if err := a.Store.Refresh(cmd.Context()); err != nil {
				return err
			}

			if sessionArg != "" {
				id, err := parseSessionID(sessionArg)
				if err != nil {
					return err
				}
				if err := a.Reconciler.Select(cmd.Context(), id); err != nil {
					return err
				}
				printHistory(cmd, a.Reconciler.History(id))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "New conversation. Ask your question, or /sessions to resume an old one.")
			}

			return repl(cmd, a)
		},
	}

	cmd.Flags().StringVar(&sessionArg, "session", "", "resume an existing session by id")
	return cmd
}

func repl(cmd *cobra.Command, a *app.App) error {
	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runReplCommand(cmd, a, line)
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
			if quit {
				break
			}
			continue
		}

		answer, err := a.Reconciler.Send(cmd.Context(), line)
		if err != nil {
			if errors.Is(err, domain.ErrRequestInFlight) {
				fmt.Fprintln(out, "Still waiting for the previous answer.")
				continue
			}
			fmt.Fprintf(out, "error: %v (your message was not sent, try again)\n", err)
			continue
		}
		printAnswer(cmd, answer)
	}

	a.Store.Flush()
	return scanner.Err()
}

func runReplCommand(cmd *cobra.Command, a *app.App, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	out := cmd.OutOrStdout()

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new":
		a.Store.NewSession()
		fmt.Fprintln(out, "New conversation.")
		return false, nil

	case "/sessions":
		sessions := a.Store.Sessions()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No conversations yet.")
			return false, nil
		}
		for _, sess := range sessions {
			marker := "  "
			if sess.ID == a.Store.Active() {
				marker = "* "
			}
			fmt.Fprintln(out, marker+formatSessionLine(sess))
		}
		return false, nil

	case "/open":
		if len(fields) != 2 {
			return false, fmt.Errorf("usage: /open <id>")
		}
		id, err := parseSessionID(fields[1])
		if err != nil {
			return false, err
		}
		if err := a.Reconciler.Select(cmd.Context(), id); err != nil {
			return false, err
		}
		printHistory(cmd, a.Reconciler.History(id))
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
}
