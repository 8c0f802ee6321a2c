// Package chat holds the client-side conversation state: the list of
// known sessions, the active selection, and the per-session message
// sequences, including optimistic inserts reconciled against server
// replies.
package chat

import (
	"context"

	"github.com/minhvu-dev/lawchat/internal/api"
)

// Transport is the slice of the remote API the chat state machine
// talks to. *api.Client is the production implementation.
type Transport interface {
	ListSessions(ctx context.Context) ([]api.SessionSummary, error)
	SessionDetail(ctx context.Context, id int64) (*api.SessionDetail, error)
	PostMessage(ctx context.Context, req api.MessageRequest) (*api.MessageResponse, error)
	RenameSession(ctx context.Context, id int64, title string) error
	DeleteSession(ctx context.Context, id int64) error
}
