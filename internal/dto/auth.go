package dto

import (
	"time"

	"FINTRACK_BACK-END/internal/models"
)

// RegisterRequest represents the request payload for user registration.
// Email format and password length are checked by the auth service.
type RegisterRequest struct {
	Email     string  `json:"email" binding:"required" example:"alice@example.com"`
	Password  string  `json:"password" binding:"required" minLength:"6" example:"secret1"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"alice@example.com"`
	Password string `json:"password" binding:"required" example:"secret1"`
}

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// UserResponse represents user data in API responses
type UserResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// NewUserResponse converts a user, leaving out the password hash
func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
