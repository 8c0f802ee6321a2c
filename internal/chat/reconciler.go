package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/minhvu-dev/lawchat/internal/api"
	"github.com/minhvu-dev/lawchat/internal/config"
	"github.com/minhvu-dev/lawchat/internal/domain"
)

// Reconciler owns the per-session message sequences. It inserts user
// messages optimistically on send and reconciles them against the
// server's reply, including the path where the session itself does not
// exist yet and runs under a temporary id until the server assigns one.
type Reconciler struct {
	transport Transport
	store     *Store
	now       func() time.Time

	mu       sync.Mutex
	messages map[domain.SessionID][]domain.Message
	inflight map[domain.SessionID]bool
}

func NewReconciler(transport Transport, store *Store) *Reconciler {
	return &Reconciler{
		transport: transport,
		store:     store,
		now:       time.Now,
		messages:  make(map[domain.SessionID][]domain.Message),
		inflight:  make(map[domain.SessionID]bool),
	}
}

// History returns a copy of the session's message sequence.
func (r *Reconciler) History(id domain.SessionID) []domain.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.messages[id])
}

// Select makes the session active. Selecting the already active
// session is a no-op; history is fetched only when it is not cached
// yet from an earlier visit.
func (r *Reconciler) Select(ctx context.Context, id domain.SessionID) error {
	if r.store.Active() == id {
		return nil
	}
	r.store.setActive(id)

	r.mu.Lock()
	_, cached := r.messages[id]
	r.mu.Unlock()
	if cached {
		return nil
	}

	server, ok := id.Server()
	if !ok {
		return nil
	}

	detail, err := r.transport.SessionDetail(ctx, server)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	// Each stored turn expands into one user and one assistant message.
	msgs := make([]domain.Message, 0, len(detail.Messages)*2)
	for _, ex := range detail.Messages {
		msgs = append(msgs, domain.NewUserMessage(ex.Question, ex.CreatedAt))
		msgs = append(msgs, domain.NewAssistantMessage(ex.Answer, sourcesToDomain(ex.Sources), ex.CreatedAt))
	}

	r.mu.Lock()
	r.messages[id] = msgs
	r.mu.Unlock()
	return nil
}

// Delete removes the session and forgets its cached messages.
func (r *Reconciler) Delete(ctx context.Context, id domain.SessionID) error {
	if err := r.store.Delete(ctx, id); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.messages, id)
	r.mu.Unlock()
	return nil
}

// Send runs one conversation turn: optimistic insert of the user
// message, dispatch, and reconciliation of the reply. The returned
// message is the assistant's answer.
func (r *Reconciler) Send(ctx context.Context, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyMessage
	}

	userMsg := domain.NewUserMessage(content, r.now())

	active := r.store.Active()
	newSession := active.IsZero()

	if newSession {
		active = domain.NewTemporaryID()
	}

	r.mu.Lock()
	if r.inflight[active] {
		r.mu.Unlock()
		return nil, domain.ErrRequestInFlight
	}
	r.inflight[active] = true
	history := historyPairs(r.messages[active], config.HistoryWindow)
	if newSession {
		r.messages[active] = []domain.Message{userMsg}
	} else {
		r.messages[active] = append(r.messages[active], userMsg)
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inflight, active)
		r.mu.Unlock()
	}()

	title := DeriveTitle(content)
	if newSession {
		r.store.insertFront(domain.Session{ID: active, Title: title, CreatedAt: r.now()})
		r.store.setActive(active)
	}

	var sid *int64
	if server, ok := active.Server(); ok {
		sid = &server
	}

	resp, err := r.transport.PostMessage(ctx, api.MessageRequest{
		Question:  content,
		SessionID: sid,
		History:   history,
	})
	if err != nil {
		r.rollback(ctx, active, userMsg, newSession)
		return nil, fmt.Errorf("send message: %w", err)
	}

	resolved := active
	assistant := domain.NewAssistantMessage(resp.Answer, sourcesToDomain(resp.Sources), r.now())

	r.mu.Lock()
	if newSession {
		confirmed := domain.ConfirmedID(resp.SessionID)
		seq := r.messages[active]
		delete(r.messages, active)
		// Guard against double insertion: drop any copy of the user
		// message before re-adding it in the confirmed slot.
		seq = slices.DeleteFunc(seq, func(m domain.Message) bool { return m.ID == userMsg.ID })
		r.messages[confirmed] = append(r.messages[confirmed], append(seq, userMsg)...)
		resolved = confirmed
	}
	r.messages[resolved] = append(r.messages[resolved], assistant)
	r.mu.Unlock()

	if newSession {
		r.store.promote(active, resolved)
		// Best-effort title persistence; must not block the send path.
		r.store.spawn(context.WithoutCancel(ctx), func(ctx context.Context) {
			server, _ := resolved.Server()
			if err := r.transport.RenameSession(ctx, server, title); err != nil {
				slog.Error("persist session title", "session_id", resolved.String(), "error", err)
			}
			if err := r.store.Refresh(ctx); err != nil {
				slog.Error("refresh sessions after create", "error", err)
			}
		})
	}

	return &assistant, nil
}

// rollback undoes the optimistic insert after a failed dispatch.
func (r *Reconciler) rollback(ctx context.Context, id domain.SessionID, userMsg domain.Message, newSession bool) {
	r.mu.Lock()
	if newSession {
		delete(r.messages, id)
	} else {
		r.messages[id] = slices.DeleteFunc(r.messages[id], func(m domain.Message) bool {
			return m.ID == userMsg.ID
		})
	}
	r.mu.Unlock()

	if newSession {
		r.store.removeLocal(id)
		r.store.clearActiveIf(id)
		if err := r.store.Refresh(ctx); err != nil {
			slog.Error("refresh sessions after failed send", "error", err)
		}
	}
}

// historyPairs turns the cached sequence into the paired turn history
// the API expects, keeping only the most recent window.
func historyPairs(msgs []domain.Message, limit int) []api.HistoryPair {
	// Non-nil so an empty history serializes as [] rather than null.
	pairs := []api.HistoryPair{}
	for i := 0; i+1 < len(msgs); i++ {
		if msgs[i].Role == domain.RoleUser && msgs[i+1].Role == domain.RoleAssistant {
			pairs = append(pairs, api.HistoryPair{Human: msgs[i].Content, AI: msgs[i+1].Content})
			i++
		}
	}
	if len(pairs) > limit {
		pairs = pairs[len(pairs)-limit:]
	}
	return pairs
}

func sourcesToDomain(sources []api.Source) []domain.Source {
	if len(sources) == 0 {
		return nil
	}
	out := make([]domain.Source, len(sources))
	for i, src := range sources {
		out[i] = domain.Source{File: src.File, Excerpt: src.Excerpt}
	}
	return out
}
