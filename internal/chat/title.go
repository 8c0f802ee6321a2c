package chat

import (
	"strings"

	"github.com/minhvu-dev/lawchat/internal/config"
)

// DeriveTitle builds a sidebar title from the opening message: the
// first few words, with an ellipsis when the message is longer.
func DeriveTitle(message string) string {
	words := strings.Fields(message)
	if len(words) > config.TitleWordLimit {
		return strings.Join(words[:config.TitleWordLimit], " ") + config.TitleEllipsis
	}
	return message
}
