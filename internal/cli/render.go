package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minhvu-dev/lawchat/internal/domain"
)

func formatSessionLine(sess domain.Session) string {
	return fmt.Sprintf("%-6s %s  (%s)", sess.ID, sess.Title, sess.CreatedAt.Format("2006-01-02 15:04"))
}

func printHistory(cmd *cobra.Command, msgs []domain.Message) {
	out := cmd.OutOrStdout()
	for _, msg := range msgs {
		switch msg.Role {
		case domain.RoleUser:
			fmt.Fprintf(out, "> %s\n", msg.Content)
		case domain.RoleAssistant:
			printAnswer(cmd, &msg)
		}
	}
}

func printAnswer(cmd *cobra.Command, msg *domain.Message) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, msg.Content)
	if len(msg.Sources) > 0 {
		fmt.Fprintln(out, "Sources:")
		for _, src := range msg.Sources {
			if src.Excerpt != "" {
				fmt.Fprintf(out, "  - %s (%s)\n", src.File, src.Excerpt)
			} else {
				fmt.Fprintf(out, "  - %s\n", src.File)
			}
		}
	}
	fmt.Fprintln(out)
}
