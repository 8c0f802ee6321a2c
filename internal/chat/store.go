package chat

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/minhvu-dev/lawchat/internal/domain"
)

// Store maintains the ordered session list and the active selection.
// It is the only owner of both; the Reconciler owns the message
// sequences.
type Store struct {
	transport Transport

	mu       sync.Mutex
	sessions []domain.Session
	active   domain.SessionID

	background sync.WaitGroup
}

func NewStore(transport Transport) *Store {
	return &Store{transport: transport}
}

// Sessions returns a copy of the current list, newest first.
func (s *Store) Sessions() []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sessions)
}

// Active returns the selected session id; the zero id means none.
func (s *Store) Active() domain.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Refresh replaces the local list with the server's. On failure the
// existing list is left untouched.
func (s *Store) Refresh(ctx context.Context) error {
	listed, err := s.transport.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("refresh sessions: %w", err)
	}

	sessions := make([]domain.Session, len(listed))
	for i, item := range listed {
		sessions[i] = domain.Session{
			ID:        domain.ConfirmedID(item.ID),
			Title:     item.Title,
			CreatedAt: item.CreatedAt,
		}
	}

	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
	return nil
}

// NewSession clears the selection. No session row is created until the
// first message is actually sent.
func (s *Store) NewSession() {
	s.mu.Lock()
	s.active = domain.SessionID{}
	s.mu.Unlock()
}

// Rename updates the title locally, then persists it and re-lists in
// the background. A failed server call does not roll the title back;
// the follow-up re-list restores server truth either way.
func (s *Store) Rename(ctx context.Context, id domain.SessionID, title string) error {
	server, ok := id.Server()
	if !ok {
		return domain.ErrSessionNotFound
	}

	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions[i].Title = title
		}
	}
	s.mu.Unlock()

	s.spawn(context.WithoutCancel(ctx), func(ctx context.Context) {
		if err := s.transport.RenameSession(ctx, server, title); err != nil {
			slog.Error("rename session", "session_id", id.String(), "error", err)
		}
		if err := s.Refresh(ctx); err != nil {
			slog.Error("refresh sessions after rename", "error", err)
		}
	})
	return nil
}

// Delete removes the session optimistically. If the server call fails,
// the prior list and prior selection are restored exactly.
func (s *Store) Delete(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	idx := slices.IndexFunc(s.sessions, func(sess domain.Session) bool { return sess.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return domain.ErrSessionNotFound
	}
	prevSessions := slices.Clone(s.sessions)
	prevActive := s.active
	s.sessions = slices.Delete(slices.Clone(s.sessions), idx, idx+1)
	if s.active == id {
		s.active = domain.SessionID{}
	}
	s.mu.Unlock()

	server, ok := id.Server()
	if !ok {
		// A temporary row exists only locally.
		return nil
	}

	if err := s.transport.DeleteSession(ctx, server); err != nil {
		s.mu.Lock()
		s.sessions = prevSessions
		s.active = prevActive
		s.mu.Unlock()
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Flush waits for detached background work (rename persistence and the
// re-lists that follow it). Called on shutdown and from tests.
func (s *Store) Flush() {
	s.background.Wait()
}

func (s *Store) spawn(ctx context.Context, f func(context.Context)) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		f(ctx)
	}()
}

func (s *Store) setActive(id domain.SessionID) {
	s.mu.Lock()
	s.active = id
	s.mu.Unlock()
}

func (s *Store) clearActiveIf(id domain.SessionID) {
	s.mu.Lock()
	if s.active == id {
		s.active = domain.SessionID{}
	}
	s.mu.Unlock()
}

func (s *Store) insertFront(sess domain.Session) {
	s.mu.Lock()
	s.sessions = append([]domain.Session{sess}, s.sessions...)
	s.mu.Unlock()
}

func (s *Store) removeLocal(id domain.SessionID) {
	s.mu.Lock()
	s.sessions = slices.DeleteFunc(slices.Clone(s.sessions), func(sess domain.Session) bool {
		return sess.ID == id
	})
	s.mu.Unlock()
}

// promote swaps a temporary row's id for the server-issued one in
// place, keeping its position and title, and follows the selection.
func (s *Store) promote(temp, confirmed domain.SessionID) {
	s.mu.Lock()
	for i := range s.sessions {
		if s.sessions[i].ID == temp {
			s.sessions[i].ID = confirmed
			break
		}
	}
	if s.active == temp {
		s.active = confirmed
	}
	s.mu.Unlock()
}
