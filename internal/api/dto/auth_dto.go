package dto

import "time"

// RegisterRequest payload for new accounts. Field rules live in the
// validation package; the tag only caps the address length.
type RegisterRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest sets a new password using a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse carries a human readable outcome.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidateTokenResponse describes the caller's token.
type ValidateTokenResponse struct {
	IsValid bool   `json:"isValid"`
	UserID  int64  `json:"userId"`
	Email   string `json:"email"`
	Message string `json:"message"`
}
