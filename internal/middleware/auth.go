package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/http/respond"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

type claimsKey struct{}

// ClaimsFrom returns the access-token claims stored by Authenticate.
func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Authenticate rejects requests without a valid access token.
func Authenticate(tokens *auth.TokenManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := tokens.Parse(token, auth.AccessToken)
		if err != nil {
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// UserLookup loads the current state of an account.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (models.User, error)
}

// RequireActive reloads the caller's account, so a disabled or re-roled user
// loses access before the token expires. It runs after Authenticate and
// before RequireRole, which then sees the stored role.
func RequireActive(users UserLookup, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		user, err := users.GetUser(r.Context(), claims.Subject)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				respond.Error(w, http.StatusUnauthorized, "account no longer exists")
				return
			}
			log.Printf("load caller %s: %v", claims.Subject, err)
			respond.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !user.IsActive {
			respond.Error(w, http.StatusForbidden, "account is disabled")
			return
		}
		current := *claims
		current.Role = user.Role
		current.Email = user.Email
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), &current)))
	})
}

// RequireRole allows only callers whose token carries one of roles.
// It must run after Authenticate.
func RequireRole(next http.Handler, roles ...models.Role) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			respond.Error(w, http.StatusForbidden, "insufficient role")
			return
		}
		next.ServeHTTP(w, r)
	})
}
