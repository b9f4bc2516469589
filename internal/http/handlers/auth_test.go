package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/models/dto"
	"github.com/brandconnect/brandconnect-be/internal/storage/memory"
)

func TestSignupIssuesSession(t *testing.T) {
	api := newTestAPI(t, nil)

	resp, env := api.do(http.MethodPost, "/auth/signup", "", map[string]string{
		"email":    "sarah@example.com",
		"password": "password123",
		"fullName": "Sarah Jane Johnson",
		"role":     "brand",
		"country":  "UK",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)

	out := decodeData[dto.AuthResponse](t, env)
	assert.NotEmpty(t, out.AccessToken)
	assert.Equal(t, "Sarah", out.User.FirstName)
	assert.Equal(t, "Jane Johnson", out.User.LastName)
	assert.Equal(t, models.RoleBrand, out.User.Role)
	assert.Equal(t, "UK", out.User.Metadata["country"])


	cookie := cookieNamed(resp, RefreshCookie)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "/auth", cookie.Path)

	assert.Contains(t, api.events.Keys(), events.UserCreated)

	status, raw := api.raw(http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: "sarah@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, status, raw)
	assertNoSecrets(t, raw)
}

func TestRefreshCookieHonoursConfiguredPath(t *testing.T) {
	store := memory.New()
	tokens := auth.NewTokenManager("cookie-secret", "test", time.Minute, time.Hour)
	mux := http.NewServeMux()
	NewAuthHandler(store, tokens, events.Nop{}, CookieOptions{Path: "/api/auth", Secure: true}).Register(mux)

	signup := `{"email":"proxy@example.com","password":"password123","fullName":"Proxy User"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(signup)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cookie := cookieNamed(rec.Result(), RefreshCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "/api/auth", cookie.Path)
	assert.True(t, cookie.Secure)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	cookie = cookieNamed(rec.Result(), RefreshCookie)
	require.NotNil(t, cookie)
	assert.Equal(t, "/api/auth", cookie.Path, "logout clears the cookie it set")
}

func TestSignupValidation(t *testing.T) {
	api := newTestAPI(t, nil)

	cases := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"bad email", map[string]string{"email": "nope", "password": "password123", "fullName": "A B"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "a@example.com", "password": "short", "fullName": "A B"}, http.StatusBadRequest},
		{"missing name", map[string]string{"email": "a@example.com", "password": "password123"}, http.StatusBadRequest},
		{"admin role", map[string]string{"email": "a@example.com", "password": "password123", "fullName": "A B", "role": "admin"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := api.do(http.MethodPost, "/auth/signup", "", tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	api := newTestAPI(t, nil)
	body := map[string]string{"email": "dup@example.com", "password": "password123", "fullName": "Dup User"}

	resp, _ := api.do(http.MethodPost, "/auth/signup", "", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body["email"] = "DUP@example.com"
	resp, env := api.do(http.MethodPost, "/auth/signup", "", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "user already exists", env.Message)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, nil)
	user, _ := api.user(models.RoleInfluencer)

	t.Run("valid credentials", func(t *testing.T) {
		resp, env := api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: user.Email, Password: "password123"})
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
		out := decodeData[dto.AuthResponse](t, env)
		assert.Equal(t, user.ID, out.User.ID)
		assert.NotEmpty(t, out.AccessToken)
		assert.NotNil(t, cookieNamed(resp, RefreshCookie))

		stored, err := api.store.GetUser(context.Background(), user.ID)
		require.NoError(t, err)
		assert.NotNil(t, stored.LastLoginAt)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, env := api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: user.Email, Password: "wrong-password"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "invalid credentials", env.Message)
	})

	t.Run("unknown email", func(t *testing.T) {
		resp, _ := api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: "ghost@example.com", Password: "password123"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("inactive account", func(t *testing.T) {
		inactive := false
		_, err := api.store.UpdateUser(context.Background(), user.ID, models.UserPatch{IsActive: &inactive})
		require.NoError(t, err)

		resp, _ := api.do(http.MethodPost, "/auth/login", "", dto.LoginRequest{Email: user.Email, Password: "password123"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestRefresh(t *testing.T) {
	api := newTestAPI(t, nil)
	user, access := api.user(models.RoleBrand)
	refresh, err := api.tokens.GenerateRefresh(user)
	require.NoError(t, err)

	t.Run("cookie", func(t *testing.T) {
		req := api.request(http.MethodPost, "/auth/refresh", "", nil)
		req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refresh})
		resp, env := api.send(req)
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
		out := decodeData[dto.RefreshResponse](t, env)
		assert.NotEmpty(t, out.AccessToken)
		assert.NotNil(t, cookieNamed(resp, RefreshCookie), "refresh cookie is rotated")
	})

	t.Run("body", func(t *testing.T) {
		resp, env := api.do(http.MethodPost, "/auth/refresh", "", dto.RefreshRequest{RefreshToken: refresh})
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	})

	t.Run("missing", func(t *testing.T) {
		resp, _ := api.do(http.MethodPost, "/auth/refresh", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("access token rejected", func(t *testing.T) {
		resp, _ := api.do(http.MethodPost, "/auth/refresh", "", dto.RefreshRequest{RefreshToken: access})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		cookie := cookieNamed(resp, RefreshCookie)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, api.store.DeleteUser(context.Background(), user.ID))
		resp, _ := api.do(http.MethodPost, "/auth/refresh", "", dto.RefreshRequest{RefreshToken: refresh})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t, nil)

	resp, _ := api.do(http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := cookieNamed(resp, RefreshCookie)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestMe(t *testing.T) {
	api := newTestAPI(t, nil)
	user, token := api.user(models.RoleAdmin)

	resp, _ := api.do(http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = api.do(http.MethodGet, "/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, env := api.do(http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user.ID, decodeData[models.User](t, env).ID)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, nil)

	resp, env := api.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeData[map[string]string](t, env)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}
