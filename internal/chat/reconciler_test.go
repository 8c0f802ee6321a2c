package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhvu-dev/lawchat/internal/api"
	"github.com/minhvu-dev/lawchat/internal/chat"
	"github.com/minhvu-dev/lawchat/internal/domain"
)

func newTestPair(ft *fakeTransport) (*chat.Store, *chat.Reconciler) {
	store := chat.NewStore(ft)
	return store, chat.NewReconciler(ft, store)
}

func TestSelectFetchesHistoryOnce(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(5, 7), nil
		},
		detailFn: func(ctx context.Context, id int64) (*api.SessionDetail, error) {
			return &api.SessionDetail{
				ID: id,
				Messages: []api.Exchange{{
					ID:        1,
					Question:  "What is the helmet rule?",
					Answer:    "Helmets are mandatory for motorbike riders.",
					CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
				}},
			}, nil
		},
	}
	store, rec := newTestPair(ft)
	require.NoError(t, store.Refresh(context.Background()))

	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))
	require.Equal(t, 1, ft.detailCount())

	// The stored turn expands into a user and an assistant message.
	history := rec.History(domain.ConfirmedID(7))
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, "What is the helmet rule?", history[0].Content)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)

	// Visiting another session and coming back serves from cache.
	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(5)))
	require.Equal(t, 2, ft.detailCount())
	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))
	assert.Equal(t, 2, ft.detailCount(), "cached session must not be fetched again")
}

func TestReselectActiveSessionIsNoop(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(7), nil
		},
	}
	store, rec := newTestPair(ft)
	require.NoError(t, store.Refresh(context.Background()))

	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))
	require.Equal(t, 1, ft.detailCount())

	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))
	assert.Equal(t, 1, ft.detailCount(), "reselect must not refetch")
	assert.Equal(t, domain.ConfirmedID(7), store.Active())
}

func TestSendToExistingSession(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(7), nil
		},
		detailFn: func(ctx context.Context, id int64) (*api.SessionDetail, error) {
			return &api.SessionDetail{
				ID: id,
				Messages: []api.Exchange{{
					ID:       1,
					Question: "first question",
					Answer:   "first answer",
				}},
			}, nil
		},
	}
	var sent api.MessageRequest
	ft.postFn = func(ctx context.Context, req api.MessageRequest) (*api.MessageResponse, error) {
		sent = req
		return &api.MessageResponse{
			Answer:    "second answer",
			SessionID: 7,
			Sources:   []api.Source{{File: "decree-100-2019.pdf", Excerpt: "Article 6"}},
		}, nil
	}

	store, rec := newTestPair(ft)
	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))

	answer, err := rec.Send(context.Background(), "second question")
	require.NoError(t, err)
	assert.Equal(t, "second answer", answer.Content)
	assert.Equal(t, []domain.Source{{File: "decree-100-2019.pdf", Excerpt: "Article 6"}}, answer.Sources)

	// The request carries the confirmed id and the paired turn history.
	require.NotNil(t, sent.SessionID)
	assert.EqualValues(t, 7, *sent.SessionID)
	assert.Equal(t, []api.HistoryPair{{Human: "first question", AI: "first answer"}}, sent.History)

	history := rec.History(domain.ConfirmedID(7))
	require.Len(t, history, 4)
	assert.Equal(t, domain.RoleUser, history[2].Role)
	assert.Equal(t, "second question", history[2].Content)
	assert.Equal(t, domain.RoleAssistant, history[3].Role)
}

func TestSendFailureRollsBackOptimisticMessage(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(7), nil
		},
		postFn: func(ctx context.Context, req api.MessageRequest) (*api.MessageResponse, error) {
			return nil, errors.New("gateway timeout")
		},
	}
	store, rec := newTestPair(ft)
	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))

	before := rec.History(domain.ConfirmedID(7))

	_, err := rec.Send(context.Background(), "does not get through")
	require.Error(t, err)

	assert.Equal(t, before, rec.History(domain.ConfirmedID(7)), "failed send must leave the sequence as it was")
}

func TestNewSessionPromotion(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(42), nil
		},
		postFn: func(ctx context.Context, req api.MessageRequest) (*api.MessageResponse, error) {
			return &api.MessageResponse{Answer: "the speed limit is 50 km/h", SessionID: 42}, nil
		},
	}
	store, rec := newTestPair(ft)

	answer, err := rec.Send(context.Background(), "What are the speed limits in residential areas right now")
	require.NoError(t, err)
	require.Equal(t, "the speed limit is 50 km/h", answer.Content)
	store.Flush()

	// Exactly one row, confirmed, no residual temporary entry.
	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	id, ok := sessions[0].ID.Server()
	require.True(t, ok, "temporary row must have been replaced")
	assert.EqualValues(t, 42, id)
	assert.Equal(t, domain.ConfirmedID(42), store.Active())

	history := rec.History(domain.ConfirmedID(42))
	require.Len(t, history, 2)
	assert.Equal(t, domain.RoleUser, history[0].Role)
	assert.Equal(t, domain.RoleAssistant, history[1].Role)

	// The derived title is persisted in the background.
	calls := ft.renameCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, renameCall{id: 42, title: "What are the speed limits..."}, calls[0])
}

func TestNewSessionSendFailureDropsTemporaryRow(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(5), nil
		},
		postFn: func(ctx context.Context, req api.MessageRequest) (*api.MessageResponse, error) {
			return nil, errors.New("backend unavailable")
		},
	}
	store, rec := newTestPair(ft)
	require.NoError(t, store.Refresh(context.Background()))
	store.NewSession()

	_, err := rec.Send(context.Background(), "a question that fails")
	require.Error(t, err)

	assert.True(t, store.Active().IsZero(), "active id must be cleared")
	assert.Equal(t, []int64{5}, confirmedIDs(store.Sessions()), "list must reflect server truth only")
	for _, sess := range store.Sessions() {
		assert.False(t, sess.ID.IsTemporary())
	}
}

func TestSendRejectsSecondInFlight(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(7), nil
		},
		postFn: func(ctx context.Context, req api.MessageRequest) (*api.MessageResponse, error) {
			close(entered)
			<-release
			return &api.MessageResponse{Answer: "late answer", SessionID: 7}, nil
		},
	}
	store, rec := newTestPair(ft)
	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))

	done := make(chan error, 1)
	go func() {
		_, err := rec.Send(context.Background(), "slow question")
		done <- err
	}()
	<-entered

	_, err := rec.Send(context.Background(), "impatient question")
	assert.ErrorIs(t, err, domain.ErrRequestInFlight)

	close(release)
	require.NoError(t, <-done)
}

func TestSendEmptyMessage(t *testing.T) {
	_, rec := newTestPair(&fakeTransport{})
	_, err := rec.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestDeleteForgetsMessages(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(7), nil
		},
		detailFn: func(ctx context.Context, id int64) (*api.SessionDetail, error) {
			return &api.SessionDetail{
				ID:       id,
				Messages: []api.Exchange{{ID: 1, Question: "q", Answer: "a"}},
			}, nil
		},
	}
	store, rec := newTestPair(ft)
	require.NoError(t, store.Refresh(context.Background()))
	require.NoError(t, rec.Select(context.Background(), domain.ConfirmedID(7)))
	require.NotEmpty(t, rec.History(domain.ConfirmedID(7)))

	require.NoError(t, rec.Delete(context.Background(), domain.ConfirmedID(7)))
	assert.Empty(t, rec.History(domain.ConfirmedID(7)))
	assert.Empty(t, store.Sessions())
}

func TestOrderingInvariant(t *testing.T) {
	ft := &fakeTransport{
		listFn: func(ctx context.Context) ([]api.SessionSummary, error) {
			return summaries(42), nil
		},
		postFn: func(ctx context.Context, req api.MessageRequest) (*api.MessageResponse, error) {
			return &api.MessageResponse{Answer: "answer to: " + req.Question, SessionID: 42}, nil
		},
	}
	store, rec := newTestPair(ft)

	for _, q := range []string{"first", "second", "third"} {
		_, err := rec.Send(context.Background(), q)
		require.NoError(t, err)
	}
	store.Flush()

	history := rec.History(domain.ConfirmedID(42))
	require.Len(t, history, 6)
	for i := 0; i+1 < len(history); i += 2 {
		assert.Equal(t, domain.RoleUser, history[i].Role)
		assert.Equal(t, domain.RoleAssistant, history[i+1].Role)
		assert.Equal(t, "answer to: "+history[i].Content, history[i+1].Content)
	}
}
