package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/spec-kit/auth-service/internal/domain"
)

// ErrNotFound is returned when no user matches a lookup.
var ErrNotFound = errors.New("user not found")

// UserRepository defines storage access for user accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Add(ctx context.Context, pending domain.PendingUser) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

// MemoryUserRepository keeps users in process memory.
// Records are copied on the way in and out, so callers never share state with the store.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	users   map[int64]*domain.User
	byEmail map[string]int64
	nextID  int64
}

// NewMemoryUserRepository returns an empty store whose first id is 1.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users:   make(map[int64]*domain.User),
		byEmail: make(map[string]int64),
		nextID:  1,
	}
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) GetByResetToken(_ context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Lowest id wins when scanning so lookups stay deterministic.
	var found *domain.User
	for _, user := range r.users {
		if user.ResetToken != token {
			continue
		}
		if found == nil || user.ID < found.ID {
			found = user
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return cloneUser(found), nil
}

func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[email]
	return ok, nil
}

// Add stores the pending user under the next id.
// The email check happens under the same lock as the insert, so two concurrent
// registrations of one address cannot both succeed.
func (r *MemoryUserRepository) Add(_ context.Context, pending domain.PendingUser) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[pending.Email]; taken {
		return nil, domain.ErrEmailAlreadyExists
	}

	user := &domain.User{
		ID:           r.nextID,
		Email:        pending.Email,
		PasswordHash: pending.PasswordHash,
		CreatedAt:    pending.CreatedAt,
	}
	r.nextID++

	r.users[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return cloneUser(user), nil
}

// Update replaces the record with the same id. Unknown ids are ignored.
// Email and creation time are immutable and always kept from the stored record.
func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	if user == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return nil
	}

	updated := cloneUser(user)
	updated.Email = existing.Email
	updated.CreatedAt = existing.CreatedAt
	r.users[user.ID] = updated
	return nil
}

// Count returns the number of stored users.
func (r *MemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	out := *u
	if u.ResetTokenExpiry != nil {
		exp := *u.ResetTokenExpiry
		out.ResetTokenExpiry = &exp
	}
	return &out
}
