package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/minhvu-dev/lawchat/internal/domain"
)

type userInfo struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (u userInfo) toDomain() *domain.User {
	return &domain.User{ID: u.ID, Email: u.Email, FullName: u.FullName}
}

// Login exchanges credentials for a bearer token. The endpoint takes a
// form-encoded body with the email in the username field.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := decodeReply(resp, &token); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	return token.AccessToken, nil
}

func (c *Client) Signup(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name,omitempty"`
	}{Email: email, Password: password, FullName: fullName}

	var user userInfo
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", body, &user); err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return user.toDomain(), nil
}

// Me returns the identity behind the current token.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user userInfo
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, fmt.Errorf("me: %w", err)
	}
	return user.toDomain(), nil
}
