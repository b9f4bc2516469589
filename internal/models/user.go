package models

import (
	"strings"
	"time"
)

// User captures application-facing fields for an account.
type User struct {
	ID            string         `json:"id" bson:"_id"`
	FirstName     string         `json:"firstName" bson:"first_name"`
	LastName      string         `json:"lastName" bson:"last_name"`
	Email         string         `json:"email" bson:"email"`
	PasswordHash  string         `json:"-" bson:"password_hash,omitempty"`
	Role          Role           `json:"role" bson:"role"`
	ProfileImage  string         `json:"profileImage,omitempty" bson:"profile_image,omitempty"`
	Bio           string         `json:"bio,omitempty" bson:"bio,omitempty"`
	PhoneNumber   string         `json:"phoneNumber,omitempty" bson:"phone_number,omitempty"`
	EmailVerified bool           `json:"emailVerified" bson:"email_verified"`
	IsActive      bool           `json:"isActive" bson:"is_active"`
	Metadata      map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updatedAt" bson:"updated_at"`
	LastLoginAt   *time.Time     `json:"lastLoginAt,omitempty" bson:"last_login_at,omitempty"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsAdmin() bool      { return u.Role == RoleAdmin }
func (u User) IsInfluencer() bool { return u.Role == RoleInfluencer }
func (u User) IsBrand() bool      { return u.Role == RoleBrand }

// UserPatch holds the fields an update may change. Nil means unchanged.
type UserPatch struct {
	FirstName     *string
	LastName      *string
	Email         *string
	PasswordHash  *string
	Role          *Role
	ProfileImage  *string
	Bio           *string
	PhoneNumber   *string
	EmailVerified *bool
	IsActive      *bool
	Metadata      map[string]any
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.PasswordHash == nil &&
		p.Role == nil && p.ProfileImage == nil && p.Bio == nil && p.PhoneNumber == nil &&
		p.EmailVerified == nil && p.IsActive == nil && p.Metadata == nil
}

// Apply copies the set fields of p onto u.
func (p UserPatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.ProfileImage != nil {
		u.ProfileImage = *p.ProfileImage
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.Metadata != nil {
		u.Metadata = p.Metadata
	}
}

// UserStats is the per-role account breakdown.
type UserStats struct {
	Total  int64          `json:"total"`
	ByRole map[Role]int64 `json:"byRole"`
}

// NormalizeEmail lower-cases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
