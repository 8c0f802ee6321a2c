package cli

import (
	"github.com/spf13/cobra"

	"github.com/minhvu-dev/lawchat/internal/app"
)

// NewRootCmd builds the lawchat command tree over a wired application.
func NewRootCmd(a *app.App) *cobra.Command {
	root := &cobra.Command{
		Use:           "lawchat",
		Short:         "Chat with the transportation-law legal assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(a),
		newSignupCmd(a),
		newLogoutCmd(a),
		newSessionsCmd(a),
		newChatCmd(a),
	)
	return root
}
