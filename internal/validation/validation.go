// Package validation holds the email and password rules applied before
// any account is created or changed.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinPasswordLength is the shortest accepted password, in characters.
	MinPasswordLength = 8
	// MaxPasswordBytes is the longest password bcrypt can hash, in bytes.
	MaxPasswordBytes = 72
)

var emailPattern = regexp.MustCompile(`(?i)^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// Error describes a single failed rule.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrEmailRequired = &Error{Field: "email", Message: "Email is required"}
	ErrEmailInvalid  = &Error{Field: "email", Message: "Invalid email format"}

	ErrPasswordRequired = &Error{Field: "password", Message: "Password is required"}
	ErrPasswordTooShort = &Error{Field: "password", Message: "Password must be at least 8 characters long"}
	ErrPasswordTooLong  = &Error{Field: "password", Message: "Password must be at most 72 bytes long"}
	ErrPasswordNoUpper  = &Error{Field: "password", Message: "Password must contain at least one uppercase letter"}
	ErrPasswordNoLower  = &Error{Field: "password", Message: "Password must contain at least one lowercase letter"}
	ErrPasswordNoDigit  = &Error{Field: "password", Message: "Password must contain at least one digit"}
	ErrPasswordNoSymbol = &Error{Field: "password", Message: "Password must contain at least one special character"}
)

// ValidateEmail returns nil for a syntactically valid address.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// ValidatePassword returns the first failed strength rule, or nil.
// Rules are checked in order: required, length, upper, lower, digit, symbol.
// The upper length bound counts bytes, not characters.
func ValidatePassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return ErrPasswordRequired
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case !unicode.IsLetter(r):
			hasSymbol = true
		}
	}

	switch {
	case !hasUpper:
		return ErrPasswordNoUpper
	case !hasLower:
		return ErrPasswordNoLower
	case !hasDigit:
		return ErrPasswordNoDigit
	case !hasSymbol:
		return ErrPasswordNoSymbol
	}
	return nil
}
