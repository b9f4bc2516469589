package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/http/respond"
	"github.com/brandconnect/brandconnect-be/internal/middleware"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/models/dto"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

// RefreshCookie carries the refresh token; it is scoped to the auth routes.
const RefreshCookie = "refresh_token"

// DefaultCookiePath matches the auth routes when the API is served at the root.
const DefaultCookiePath = "/auth"

// CookieOptions controls the refresh cookie. Path must cover the public
// URL of /auth/refresh, including any prefix added by a proxy.
type CookieOptions struct {
	Path   string
	Secure bool
}

// AuthHandler owns signup, login, refresh and logout.
type AuthHandler struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	events events.Publisher
	cookie CookieOptions
}

// NewAuthHandler constructs the handler. An empty cookie path falls back to DefaultCookiePath.
func NewAuthHandler(store storage.UserStore, tokens *auth.TokenManager, publisher events.Publisher, cookie CookieOptions) *AuthHandler {
	if cookie.Path == "" {
		cookie.Path = DefaultCookiePath
	}
	return &AuthHandler{store: store, tokens: tokens, events: publisher, cookie: cookie}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /auth/logout", h.handleLogout)
	mux.Handle("GET /auth/me", middleware.Authenticate(h.tokens, http.HandlerFunc(h.handleMe)))
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, err := signupUser(req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user.PasswordHash = hash

	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "user already exists")
			return
		}
		storeError(w, err, "user")
		return
	}
	events.Emit(r.Context(), h.events, events.UserCreated, created)

	h.issueSession(w, http.StatusCreated, "signup successful", created)
}

func signupUser(req dto.SignupRequest) (models.User, error) {
	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := validatePassword(req.Password); err != nil {
		return models.User{}, err
	}
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" && last == "" {
		first, last = splitFullName(req.FullName)
	}
	if first == "" {
		return models.User{}, errors.New("full name is required")
	}
	role := req.Role
	if role == "" {
		role = models.RoleInfluencer
	}
	if !role.SignupRole() {
		return models.User{}, errors.New("role must be brand or influencer")
	}

	user := models.User{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Role:      role,
		IsActive:  true,
	}
	if country := strings.TrimSpace(req.Country); country != "" {
		user.Metadata = map[string]any{"country": country}
	}
	return user, nil
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, err := h.store.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("login failed: error fetching user %s: %v", req.Email, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !user.IsActive {
		respond.Error(w, http.StatusForbidden, "account is disabled")
		return
	}
	if err := h.store.TouchLogin(r.Context(), user.ID); err != nil {
		log.Printf("record login for %s: %v", user.ID, err)
	}
	user.PasswordHash = ""

	h.issueSession(w, http.StatusOK, "login successful", user)
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(RefreshCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req dto.RefreshRequest
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}
		token = strings.TrimSpace(req.RefreshToken)
	}
	if token == "" {
		respond.Error(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	claims, err := h.tokens.Parse(token, auth.RefreshToken)
	if err != nil {
		h.clearRefreshCookie(w)
		respond.Error(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}
	user, err := h.store.GetUser(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.clearRefreshCookie(w)
			respond.Error(w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		storeError(w, err, "user")
		return
	}
	if !user.IsActive {
		h.clearRefreshCookie(w)
		respond.Error(w, http.StatusForbidden, "account is disabled")
		return
	}

	access, err := h.tokens.GenerateAccess(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	if err := h.setRefreshCookie(w, user); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "token refreshed", dto.RefreshResponse{AccessToken: access})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearRefreshCookie(w)
	respond.JSON(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	user, err := h.store.GetUser(r.Context(), claims.Subject)
	if err != nil {
		storeError(w, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "current user", user)
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, status int, message string, user models.User) {
	access, err := h.tokens.GenerateAccess(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	if err := h.setRefreshCookie(w, user); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, status, message, dto.AuthResponse{AccessToken: access, User: user})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, user models.User) error {
	refresh, err := h.tokens.GenerateRefresh(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    refresh,
		Path:     h.cookie.Path,
		MaxAge:   int(h.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     h.cookie.Path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
