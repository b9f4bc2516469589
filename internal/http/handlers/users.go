package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/http/respond"
	"github.com/brandconnect/brandconnect-be/internal/media"
	"github.com/brandconnect/brandconnect-be/internal/middleware"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/models/dto"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

const maxAvatarBytes = 5 << 20

// UsersHandler serves the /users CRUD surface.
type UsersHandler struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	events   events.Publisher
	uploader media.Uploader
}

// NewUsersHandler constructs the handler. uploader may be nil, which disables avatar uploads.
func NewUsersHandler(store storage.UserStore, tokens *auth.TokenManager, publisher events.Publisher, uploader media.Uploader) *UsersHandler {
	return &UsersHandler{store: store, tokens: tokens, events: publisher, uploader: uploader}
}

// Register attaches user routes to the mux. Every route requires an access token for an active account.
func (h *UsersHandler) Register(mux *http.ServeMux) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return middleware.Authenticate(h.tokens, middleware.RequireActive(h.store, fn))
	}
	adminOnly := func(fn http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(fn, models.RoleAdmin).ServeHTTP)
	}

	mux.Handle("GET /users", authed(h.handleList))
	mux.Handle("GET /users/stats", authed(h.handleStats))
	mux.Handle("GET /users/{id}", authed(h.handleGet))
	mux.Handle("POST /users", adminOnly(h.handleCreate))
	mux.Handle("PUT /users/{id}", authed(h.handleUpdate))
	mux.Handle("DELETE /users/{id}", adminOnly(h.handleDelete))
	mux.Handle("PUT /users/{id}/avatar", authed(h.handleAvatar))
}

func (h *UsersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		storeError(w, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "users", users)
}

func (h *UsersHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.CountByRole(r.Context())
	if err != nil {
		storeError(w, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "user statistics", storage.Stats(counts))
}

func (h *UsersHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "user", user)
}

func (h *UsersHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, err := newUser(req)
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
		storeError(w, err, "user")
		return
	}
	events.Emit(r.Context(), h.events, events.UserCreated, created)
	respond.JSON(w, http.StatusCreated, "user created successfully", created)
}

func newUser(req dto.CreateUserRequest) (models.User, error) {
	first, last := strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName)
	if first == "" || last == "" {
		return models.User{}, errors.New("firstName and lastName are required")
	}
	email := strings.TrimSpace(req.Email)
	if err := validateEmail(email); err != nil {
		return models.User{}, err
	}
	if err := validatePassword(req.Password); err != nil {
		return models.User{}, err
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.User{}, errors.New("role is invalid")
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return models.User{
		FirstName:     first,
		LastName:      last,
		Email:         email,
		Role:          role,
		ProfileImage:  strings.TrimSpace(req.ProfileImage),
		Bio:           strings.TrimSpace(req.Bio),
		PhoneNumber:   strings.TrimSpace(req.PhoneNumber),
		EmailVerified: req.EmailVerified,
		IsActive:      active,
		Metadata:      req.Metadata,
	}, nil
}

func (h *UsersHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if !isAdmin(claims) && claims.Subject != id {
		respond.Error(w, http.StatusForbidden, "cannot modify another user")
		return
	}

	var req dto.UpdateUserRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if !isAdmin(claims) && (req.Role != nil || req.IsActive != nil || req.EmailVerified != nil) {
		respond.Error(w, http.StatusForbidden, "only admins may change role, isActive or emailVerified")
		return
	}
	patch, err := userPatch(req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.UpdateUser(r.Context(), id, patch)
	if err != nil {
		storeError(w, err, "user")
		return
	}
	events.Emit(r.Context(), h.events, events.UserUpdated, updated)
	respond.JSON(w, http.StatusOK, "user updated successfully", updated)
}

func userPatch(req dto.UpdateUserRequest) (models.UserPatch, error) {
	patch := models.UserPatch{
		FirstName:     trimmed(req.FirstName),
		LastName:      trimmed(req.LastName),
		Email:         trimmed(req.Email),
		Role:          req.Role,
		ProfileImage:  trimmed(req.ProfileImage),
		Bio:           trimmed(req.Bio),
		PhoneNumber:   trimmed(req.PhoneNumber),
		EmailVerified: req.EmailVerified,
		IsActive:      req.IsActive,
		Metadata:      req.Metadata,
	}
	if patch.FirstName != nil && *patch.FirstName == "" {
		return models.UserPatch{}, errors.New("firstName cannot be empty")
	}
	if patch.LastName != nil && *patch.LastName == "" {
		return models.UserPatch{}, errors.New("lastName cannot be empty")
	}
	if patch.Email != nil {
		if err := validateEmail(*patch.Email); err != nil {
			return models.UserPatch{}, err
		}
	}
	if patch.Role != nil && !patch.Role.Valid() {
		return models.UserPatch{}, errors.New("role is invalid")
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return models.UserPatch{}, err
		}
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return models.UserPatch{}, err
		}
		patch.PasswordHash = &hash
	}
	return patch, nil
}

func (h *UsersHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		storeError(w, err, "user")
		return
	}
	events.Emit(r.Context(), h.events, events.UserDeleted, map[string]string{"id": id})
	respond.JSON(w, http.StatusOK, "user deleted successfully", dto.DeleteResponse{Success: true})
}

func (h *UsersHandler) handleAvatar(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if !isAdmin(claims) && claims.Subject != id {
		respond.Error(w, http.StatusForbidden, "cannot modify another user")
		return
	}
	if h.uploader == nil {
		respond.Error(w, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}

	current, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, err, "user")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes+1024)
	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "multipart field \"file\" is required (max 5MB)")
		return
	}
	defer file.Close()
	body, err := io.ReadAll(io.LimitReader(file, maxAvatarBytes+1))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if len(body) > maxAvatarBytes {
		respond.Error(w, http.StatusRequestEntityTooLarge, "image exceeds 5MB")
		return
	}
	contentType := http.DetectContentType(body)
	key, err := media.AvatarKey(id, contentType)
	if err != nil {
		respond.Error(w, http.StatusUnsupportedMediaType, "image must be jpeg, png, gif or webp")
		return
	}

	url, err := h.uploader.Upload(r.Context(), key, body, contentType)
	if err != nil {
		log.Printf("avatar upload for %s: %v", id, err)
		respond.Error(w, http.StatusBadGateway, "failed to store image")
		return
	}
	updated, err := h.store.UpdateUser(r.Context(), id, models.UserPatch{ProfileImage: &url})
	if err != nil {
		storeError(w, err, "user")
		return
	}
	if current.ProfileImage != "" && current.ProfileImage != url {
		if err := h.uploader.Delete(r.Context(), current.ProfileImage); err != nil {
			log.Printf("remove previous avatar for %s: %v", id, err)
		}
	}
	events.Emit(r.Context(), h.events, events.UserUpdated, updated)
	respond.JSON(w, http.StatusOK, "profile image updated", updated)
}
