package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/auth"
	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/validation"
)

// StoreResolver returns the user store that serves ctx.
type StoreResolver interface {
	Resolve(ctx context.Context) repository.UserRepository
}

// AuthService coordinates registration, login and password reset flows.
type AuthService struct {
	users    StoreResolver
	events   events.Dispatcher
	logger   *zap.Logger
	tokenMgr *auth.TokenManager
	hasher   *auth.PasswordHasher
	resetTTL time.Duration
	now      func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Users  StoreResolver
	Events events.Dispatcher
	Logger *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dispatcher := deps.Events
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	s := &AuthService{
		users:    deps.Users,
		events:   dispatcher,
		logger:   logger,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience, cfg.Auth.AccessTokenTTLMinutes),
		hasher:   auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		resetTTL: cfg.Auth.ResetTTL(),
		now:      time.Now,
	}
	logger.Info("auth service configured",
		zap.Duration("access_token_ttl", s.tokenMgr.TTL()),
		zap.Duration("reset_token_ttl", s.resetTTL),
		zap.Int("bcrypt_cost", s.hasher.Cost()))
	return s
}

// Register creates an account and returns an access token for it.
// Validation failures are returned before the store is touched.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}

	users := s.users.Resolve(ctx)
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := users.Add(ctx, domain.NewPendingUser(email, hash, s.now()))
	if err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("add user: %w", err)
	}

	result, err := s.issue(*user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{Email: user.Email})
	return result, nil
}

// Login checks credentials. Unknown emails and wrong passwords yield the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResult, error) {
	user, err := s.users.Resolve(ctx).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(*user)
}

// ForgotPassword attaches a fresh reset token to the account and announces it.
// Unknown emails succeed silently so callers cannot discover which accounts exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	users := s.users.Resolve(ctx)
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("get user: %w", err)
	}

	replaced := user.HasResetToken()
	token := uuid.NewString()
	expiresAt := s.now().Add(s.resetTTL)
	user.SetResetToken(token, expiresAt)
	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	s.logger.Info("password reset requested",
		zap.Int64("user_id", user.ID),
		zap.Time("expires_at", expiresAt),
		zap.Bool("replaced_token", replaced))
	s.publish(ctx, events.EventPasswordResetRequested, user.ID, events.PasswordResetRequestedPayload{
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	})
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	users := s.users.Resolve(ctx)
	user, err := users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrInvalidResetToken
		}
		return fmt.Errorf("get user: %w", err)
	}
	if !user.IsResetTokenValid(token, s.now()) {
		return domain.ErrInvalidResetToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.UpdatePassword(hash)
	if err := users.Update(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password reset completed", zap.Int64("user_id", user.ID))
	s.publish(ctx, events.EventPasswordResetCompleted, user.ID, events.PasswordResetCompletedPayload{Email: user.Email})
	return nil
}

// VerifyToken checks an access token and describes it.
func (s *AuthService) VerifyToken(_ context.Context, token string) (*domain.TokenInfo, error) {
	info, err := s.tokenMgr.Inspect(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return info, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user domain.User) (*domain.AuthResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &domain.AuthResult{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// publish never fails the calling operation; delivery problems are logged.
func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID int64, payload interface{}) {
	err := s.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		s.logger.Warn("event handlers failed",
			zap.String("event_type", string(eventType)),
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
}
