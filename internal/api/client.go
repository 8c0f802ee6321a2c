package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minhvu-dev/lawchat/internal/config"
)

// TokenSource yields the current bearer token, or "" when the user is
// not logged in.
type TokenSource interface {
	Token() string
}

// Client wraps the remote legal-assistant HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   config.RequestTimeout,
			Transport: newTransport(tokens),
		},
	}
}

type SessionSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionDetail struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	Messages  []Exchange `json:"messages"`
}

// Exchange is one stored question/answer turn as the server returns it.
type Exchange struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
	Sources   []Source  `json:"sources,omitempty"`
}

// Source cites a legal document. The server names the excerpt field
// after the cited article ("dieu").
type Source struct {
	File    string `json:"source_file"`
	Excerpt string `json:"dieu"`
}

type MessageRequest struct {
	Question  string        `json:"question"`
	SessionID *int64        `json:"session_id"`
	History   []HistoryPair `json:"chat_history"`
}

// HistoryPair is one past turn, paired content only.
type HistoryPair struct {
	Human string `json:"human"`
	AI    string `json:"ai"`
}

type MessageResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	SessionID int64    `json:"session_id"`
}

func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	var sessions []SessionSummary
	if err := c.doJSON(ctx, http.MethodGet, "/chat/sessions", nil, &sessions); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (c *Client) SessionDetail(ctx context.Context, id int64) (*SessionDetail, error) {
	var detail SessionDetail
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/chat/sessions/%d", id), nil, &detail); err != nil {
		return nil, fmt.Errorf("session detail: %w", err)
	}
	return &detail, nil
}

func (c *Client) PostMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/chat/message", req, &resp); err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	return &resp, nil
}

func (c *Client) RenameSession(ctx context.Context, id int64, title string) error {
	body := struct {
		Title string `json:"title"`
	}{Title: title}
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/chat/sessions/%d", id), body, nil); err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	return nil
}

func (c *Client) DeleteSession(ctx context.Context, id int64) error {
	if err := c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/chat/sessions/%d", id), nil, nil); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// doJSON issues one request with an optional JSON body and decodes the
// reply into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	return decodeReply(resp, out)
}

// decodeReply checks the status and decodes the body into out when out
// is non-nil.
func decodeReply(resp *http.Response, out any) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
