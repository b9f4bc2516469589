// Package client is a Go SDK for the BrandConnect HTTP API.
//
// It keeps the access token in a TokenStore and the refresh token in the
// cookie jar of its http.Client. A request rejected with 401 triggers one
// refresh attempt and, when that succeeds, one replay of the request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned when a 401 could not be recovered by refreshing the access token.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

// Client talks to the API. Use New to get one with a cookie jar.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenStore

	refreshMu sync.Mutex
}

// New returns a client for baseURL with an in-memory token store and cookie jar.
func New(baseURL string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
		Tokens:  &MemoryTokenStore{},
	}, nil
}

// Signup registers a brand or influencer account and stores the access token.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (User, error) {
	var out authResponse
	if err := c.call(ctx, http.MethodPost, "/auth/signup", req, &out); err != nil {
		return User{}, err
	}
	c.Tokens.SetToken(out.AccessToken)
	return out.User, nil
}

// Login authenticates and stores the access token.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/auth/login", body, &out); err != nil {
		return User{}, err
	}
	c.Tokens.SetToken(out.AccessToken)
	return out.User, nil
}

// Logout ends the session. The local token is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.Tokens.Clear()
	return c.call(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.Do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.Do(ctx, http.MethodGet, "/users", nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var out User
	err := c.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) UserStats(ctx context.Context) (UserStats, error) {
	var out UserStats
	err := c.Do(ctx, http.MethodGet, "/users/stats", nil, &out)
	return out, err
}

// Do sends an authenticated request and decodes the envelope's data into out.
// A 401 causes a single refresh and replay; if either fails the token is
// cleared and ErrSessionExpired is returned.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	payload, err := encode(body)
	if err != nil {
		return err
	}

	sentWith := c.Tokens.Token()
	env, err := c.send(ctx, method, path, payload, sentWith)
	if err != nil {
		return err
	}
	if env.StatusCode == http.StatusUnauthorized {
		if err := c.refresh(ctx, sentWith); err != nil {
			c.Tokens.Clear()
			return ErrSessionExpired
		}
		env, err = c.send(ctx, method, path, payload, c.Tokens.Token())
		if err != nil {
			return err
		}
		if env.StatusCode == http.StatusUnauthorized {
			c.Tokens.Clear()
			return ErrSessionExpired
		}
	}
	return decode(env, out)
}

// call sends a request without the refresh-and-replay behaviour of Do.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	payload, err := encode(body)
	if err != nil {
		return err
	}
	env, err := c.send(ctx, method, path, payload, c.Tokens.Token())
	if err != nil {
		return err
	}
	return decode(env, out)
}

// refresh obtains a new access token from the refresh cookie. Concurrent
// callers that saw the same stale token share one refresh.
func (c *Client) refresh(ctx context.Context, stale string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.Tokens.Token(); current != "" && current != stale {
		return nil
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.call(ctx, http.MethodPost, "/auth/refresh", nil, &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return errors.New("refresh returned no access token")
	}
	c.Tokens.SetToken(out.AccessToken)
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (envelope, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return envelope{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return envelope{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return envelope{}, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	env.StatusCode = resp.StatusCode
	return env, nil
}

func encode(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return payload, nil
}

func decode(env envelope, out any) error {
	if env.StatusCode < 200 || env.StatusCode > 299 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(env.StatusCode)
		}
		return &APIError{StatusCode: env.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
