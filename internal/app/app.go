// Package app wires the client together and owns the authenticated
// application state, with an explicit init and teardown lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/minhvu-dev/lawchat/internal/api"
	"github.com/minhvu-dev/lawchat/internal/auth"
	"github.com/minhvu-dev/lawchat/internal/chat"
	"github.com/minhvu-dev/lawchat/internal/config"
	"github.com/minhvu-dev/lawchat/internal/domain"
)

type App struct {
	Config     *config.Config
	Tokens     *auth.FileStore
	API        *api.Client
	Store      *chat.Store
	Reconciler *chat.Reconciler

	mu   sync.Mutex
	user *domain.User
}

func New(cfg *config.Config) *App {
	tokens := auth.NewFileStore(cfg.TokenPath)
	client := api.NewClient(cfg.APIBaseURL, tokens)
	store := chat.NewStore(client)

	return &App{
		Config:     cfg,
		Tokens:     tokens,
		API:        client,
		Store:      store,
		Reconciler: chat.NewReconciler(client, store),
	}
}

// Init attempts a token-based identity fetch. A missing, expired or
// rejected token results in ErrNotLoggedIn with the stale token
// discarded.
func (a *App) Init(ctx context.Context) error {
	token := a.Tokens.Token()
	if token == "" {
		return domain.ErrNotLoggedIn
	}
	if auth.Expired(token) {
		_ = a.Tokens.Clear()
		return domain.ErrNotLoggedIn
	}

	user, err := a.API.Me(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			_ = a.Tokens.Clear()
			return domain.ErrNotLoggedIn
		}
		return fmt.Errorf("fetch identity: %w", err)
	}

	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return nil
}

func (a *App) User() *domain.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *App) Login(ctx context.Context, email, password string) (*domain.User, error) {
	token, err := a.API.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.Tokens.Save(token); err != nil {
		return nil, err
	}

	user, err := a.API.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch identity: %w", err)
	}

	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
	return user, nil
}

// Logout discards the token and tears down all in-memory session and
// message state.
func (a *App) Logout() error {
	a.Store.Flush()

	a.mu.Lock()
	a.user = nil
	a.Store = chat.NewStore(a.API)
	a.Reconciler = chat.NewReconciler(a.API, a.Store)
	a.mu.Unlock()

	return a.Tokens.Clear()
}
