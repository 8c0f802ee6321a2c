package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoActiveSession = errors.New("no active session")
	ErrRequestInFlight = errors.New("a send is already in flight for this session")
	ErrUnauthorized    = errors.New("authentication required")
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrEmptyMessage    = errors.New("message is empty")
)
