package domain

import "time"

// TokenInfo describes a verified access token.
type TokenInfo struct {
	TokenID   string
	UserID    int64
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	UserID    int64
	Email     string
	Token     string
	ExpiresAt time.Time
}
