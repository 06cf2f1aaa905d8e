// Package client provides a Go client for the homegrid API: a REST
// client, a push-channel listener and the chat session controller.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"homegrid/internal/domain"
)

// Client is an HTTP client for the marketplace REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken sets the session token used for authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current session token.
func (c *Client) Token() string { return c.token }

type loginResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type chatsResponse struct {
	Chats []domain.Chat `json:"chats"`
}

type seenByResponse struct {
	SeenBy []string `json:"seen_by"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	var user domain.User
	err := c.do(ctx, http.MethodPost, "/v1/auth/register",
		map[string]string{"username": username, "email": email, "password": password}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login verifies credentials and remembers the issued token.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.User, error) {
	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/v1/auth/login",
		map[string]string{"username": username, "password": password}, &resp)
	if err != nil {
		return nil, err
	}
	c.token = resp.Token
	return &resp.User, nil
}

// ListChats returns the caller's chat summaries, most recent first.
func (c *Client) ListChats(ctx context.Context) ([]domain.Chat, error) {
	var resp chatsResponse
	if err := c.do(ctx, http.MethodGet, "/v1/chats", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// CreateChat opens (or returns the existing) conversation with a user.
func (c *Client) CreateChat(ctx context.Context, receiverID string) (*domain.Chat, error) {
	var chat domain.Chat
	err := c.do(ctx, http.MethodPost, "/v1/chats", map[string]string{"receiver_id": receiverID}, &chat)
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChat fetches a chat with its messages in creation order.
func (c *Client) GetChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	var chat domain.Chat
	if err := c.do(ctx, http.MethodGet, "/v1/chats/"+chatID, nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// SendMessage appends a message to a chat and returns the stored record.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*domain.Message, error) {
	var msg domain.Message
	err := c.do(ctx, http.MethodPost, "/v1/messages/"+chatID, map[string]string{"text": text}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkRead acknowledges a chat's latest state as read.
func (c *Client) MarkRead(ctx context.Context, chatID string) ([]string, error) {
	var resp seenByResponse
	if err := c.do(ctx, http.MethodPut, "/v1/chats/read/"+chatID, nil, &resp); err != nil {
		return nil, err
	}
	return resp.SeenBy, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: c.token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError maps HTTP statuses back to the domain error taxonomy so
// callers can use errors.Is on client results.
func statusError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	var sentinel error
	switch resp.StatusCode {
	case http.StatusNotFound:
		sentinel = domain.ErrNotFound
	case http.StatusForbidden:
		sentinel = domain.ErrForbidden
	case http.StatusBadRequest:
		sentinel = domain.ErrInvalidInput
	case http.StatusUnauthorized:
		sentinel = domain.ErrUnauthorized
	case http.StatusConflict:
		sentinel = domain.ErrConflict
	default:
		return fmt.Errorf("server error: %s", msg)
	}
	return fmt.Errorf("%s: %w", msg, sentinel)
}
