package dto

import "github.com/brandconnect/brandconnect-be/internal/models"

type SignupRequest struct {
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FullName  string      `json:"fullName"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      models.Role `json:"role"`
	Country   string      `json:"country"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type AuthResponse struct {
	AccessToken string      `json:"accessToken"`
	User        models.User `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}
