package domain

import "time"

// PendingUser is a user that has not been stored yet and therefore has no ID.
type PendingUser struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewPendingUser builds an unsaved user record.
func NewPendingUser(email, passwordHash string, now time.Time) PendingUser {
	return PendingUser{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now.UTC(),
	}
}

// User is the stored account. ID is assigned by the user store.
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
}

// SetResetToken attaches a password reset token valid until expiry.
func (u *User) SetResetToken(token string, expiry time.Time) {
	exp := expiry.UTC()
	u.ResetToken = token
	u.ResetTokenExpiry = &exp
}

// ClearResetToken removes any outstanding reset token.
func (u *User) ClearResetToken() {
	u.ResetToken = ""
	u.ResetTokenExpiry = nil
}

// UpdatePassword replaces the password hash and consumes any reset token.
func (u *User) UpdatePassword(passwordHash string) {
	u.PasswordHash = passwordHash
	u.ClearResetToken()
}

// IsResetTokenValid reports whether token matches the stored one and has not expired at now.
func (u *User) IsResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == "" || u.ResetToken != token {
		return false
	}
	return u.ResetTokenExpiry != nil && u.ResetTokenExpiry.After(now)
}

// HasResetToken reports whether a reset token is attached.
func (u *User) HasResetToken() bool {
	return u.ResetToken != ""
}
