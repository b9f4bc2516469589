package client

import (
	"sync"
	"time"
)

// TokenStore holds the current access token.
type TokenStore interface {
	Token() string
	SetToken(token string)
	Clear()
}

// MemoryTokenStore keeps the token in process memory.
type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func (s *MemoryTokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *MemoryTokenStore) Clear() {
	s.SetToken("")
}

// User is the public view of an account.
type User struct {
	ID            string         `json:"id"`
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email"`
	Role          string         `json:"role"`
	ProfileImage  string         `json:"profileImage,omitempty"`
	Bio           string         `json:"bio,omitempty"`
	PhoneNumber   string         `json:"phoneNumber,omitempty"`
	EmailVerified bool           `json:"emailVerified"`
	IsActive      bool           `json:"isActive"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
	LastLoginAt   *time.Time     `json:"lastLoginAt,omitempty"`
}

// UserStats counts users in total and per role.
type UserStats struct {
	Total  int64            `json:"total"`
	ByRole map[string]int64 `json:"byRole"`
}

// SignupRequest registers a brand or influencer.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role,omitempty"`
	Country  string `json:"country,omitempty"`
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
	User        User   `json:"user"`
}
