package dto

import "github.com/brandconnect/brandconnect-be/internal/models"

type CreateUserRequest struct {
	FirstName     string         `json:"firstName"`
	LastName      string         `json:"lastName"`
	Email         string         `json:"email"`
	Password      string         `json:"password"`
	Role          models.Role    `json:"role"`
	ProfileImage  string         `json:"profileImage"`
	Bio           string         `json:"bio"`
	PhoneNumber   string         `json:"phoneNumber"`
	EmailVerified bool           `json:"emailVerified"`
	IsActive      *bool          `json:"isActive"`
	Metadata      map[string]any `json:"metadata"`
}

// UpdateUserRequest uses pointers so omitted fields are left untouched.
type UpdateUserRequest struct {
	FirstName     *string        `json:"firstName"`
	LastName      *string        `json:"lastName"`
	Email         *string        `json:"email"`
	Password      *string        `json:"password"`
	Role          *models.Role   `json:"role"`
	ProfileImage  *string        `json:"profileImage"`
	Bio           *string        `json:"bio"`
	PhoneNumber   *string        `json:"phoneNumber"`
	EmailVerified *bool          `json:"emailVerified"`
	IsActive      *bool          `json:"isActive"`
	Metadata      map[string]any `json:"metadata"`
}

type DeleteResponse struct {
	Success bool `json:"success"`
}
