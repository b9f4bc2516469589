package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/media"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
	"github.com/brandconnect/brandconnect-be/internal/storage/memory"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

var _ events.Publisher = (*recordingPublisher)(nil)

type fakeUploader struct {
	uploads atomic.Int32
	mu      sync.Mutex
	deleted []string
}

func (u *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	u.uploads.Add(1)
	return "https://cdn.example.com/" + key, nil
}

func (u *fakeUploader) Delete(_ context.Context, fileURL string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, fileURL)
	return nil
}

func (u *fakeUploader) Deleted() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.deleted...)
}

var _ media.Uploader = (*fakeUploader)(nil)

type testAPI struct {
	t      *testing.T
	url    string
	store  storage.Store
	tokens *auth.TokenManager
	events *recordingPublisher
	seq    int
}

func newTestAPI(t *testing.T, uploader media.Uploader) *testAPI {
	t.Helper()
	store := memory.New()
	tokens := auth.NewTokenManager("handler-test-secret", "brandconnect-test", 15*time.Minute, time.Hour)
	pub := &recordingPublisher{}

	mux := http.NewServeMux()
	NewHealthHandler(time.Now(), func(ctx context.Context) error {
		_, err := store.CountUsers(ctx)
		return err
	}).Register(mux)
	NewAuthHandler(store, tokens, pub, CookieOptions{}).Register(mux)
	NewUsersHandler(store, tokens, pub, uploader).Register(mux)
	NewCampaignsHandler(store, tokens, pub).Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return &testAPI{t: t, url: ts.URL, store: store, tokens: tokens, events: pub}
}

// user inserts a user with the given role directly into the store and returns an access token for it.
func (a *testAPI) user(role models.Role) (models.User, string) {
	a.t.Helper()
	a.seq++
	hash, err := auth.HashPassword("password123")
	require.NoError(a.t, err)
	u, err := a.store.CreateUser(context.Background(), models.User{
		FirstName:    "Test",
		LastName:     fmt.Sprintf("%s%d", role, a.seq),
		Email:        fmt.Sprintf("%s%d@example.com", role, a.seq),
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	})
	require.NoError(a.t, err)
	token, err := a.tokens.GenerateAccess(u)
	require.NoError(a.t, err)
	return u, token
}

func (a *testAPI) request(method, path, token string, body any) *http.Request {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.url+path, rdr)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (a *testAPI) send(req *http.Request) (*http.Response, envelope) {
	a.t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	require.Equal(a.t, resp.StatusCode, env.StatusCode, "envelope status mirrors HTTP status")
	return resp, env
}

func (a *testAPI) do(method, path, token string, body any) (*http.Response, envelope) {
	a.t.Helper()
	return a.send(a.request(method, path, token, body))
}

// raw returns the status and undecoded body, for assertions on the exact bytes sent.
func (a *testAPI) raw(method, path, token string, body any) (int, string) {
	a.t.Helper()
	resp, err := http.DefaultClient.Do(a.request(method, path, token, body))
	require.NoError(a.t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return resp.StatusCode, string(payload)
}

// assertNoSecrets fails when a response body leaks a password field or a bcrypt hash.
func assertNoSecrets(t *testing.T, body string) {
	t.Helper()
	require.NotContains(t, body, `"password`)
	require.NotContains(t, body, "$2a$")
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
