package handlers

import (
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/http/respond"
	"github.com/brandconnect/brandconnect-be/internal/middleware"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

const minPasswordLength = 8

// storeError maps storage sentinels to HTTP statuses; anything else is logged as a 500.
func storeError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, what+" already exists")
	case errors.Is(err, storage.ErrInvalidValue):
		respond.Error(w, http.StatusBadRequest, what+" has an invalid value")
	case errors.Is(err, storage.ErrInvalidTransition):
		respond.Error(w, http.StatusConflict, "invalid status transition")
	default:
		log.Printf("%s store error: %v", what, err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// caller returns the authenticated claims or writes a 401.
func caller(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing bearer token")
	}
	return claims, ok
}

func isAdmin(c *auth.Claims) bool {
	return c.Role == models.RoleAdmin
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(strings.TrimSpace(password)) < minPasswordLength || !utf8.ValidString(password) {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// splitFullName splits "Sarah Jane Johnson" into "Sarah" and "Jane Johnson".
func splitFullName(full string) (string, string) {
	full = strings.Join(strings.Fields(full), " ")
	first, last, _ := strings.Cut(full, " ")
	return first, last
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
