package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/validation"
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// PasswordHasher hashes and verifies passwords with a fixed bcrypt cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher. Costs bcrypt rejects fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Cost returns the bcrypt cost in use.
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash returns a salted bcrypt hash; hashing the same input twice yields different output.
// Input over bcrypt's 72 byte limit yields validation.ErrPasswordTooLong.
func (h *PasswordHasher) Hash(plain string) (string, error) {
	hash, err := HashPassword(plain, h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", validation.ErrPasswordTooLong
	}
	return hash, err
}

// Verify reports whether plain matches hash. Malformed hashes yield false.
func (h *PasswordHasher) Verify(plain, hash string) bool {
	return ComparePassword(hash, plain) == nil
}
