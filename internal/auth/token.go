package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brandconnect/brandconnect-be/internal/models"
)

// TokenKind distinguishes short-lived access tokens from refresh tokens.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// ErrInvalidToken is returned for any token that fails signature, expiry or kind checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued for a user.
type Claims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	Kind  TokenKind   `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetimes.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GenerateAccess issues an access token for user.
func (t *TokenManager) GenerateAccess(user models.User) (string, error) {
	return t.generate(user, AccessToken, t.accessTTL)
}

// GenerateRefresh issues a refresh token for user.
func (t *TokenManager) GenerateRefresh(user models.User) (string, error) {
	return t.generate(user, RefreshToken, t.refreshTTL)
}

// RefreshTTL is the lifetime of refresh tokens, used for the cookie max-age.
func (t *TokenManager) RefreshTTL() time.Duration {
	return t.refreshTTL
}

func (t *TokenManager) generate(user models.User, kind TokenKind, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse verifies tokenString and checks that it is of the expected kind.
func (t *TokenManager) Parse(tokenString string, kind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Kind != kind || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
