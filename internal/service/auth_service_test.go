package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/auth-service/internal/config"
	"github.com/spec-kit/auth-service/internal/domain"
	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/repository"
	"github.com/spec-kit/auth-service/internal/validation"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "Passw0rd!"
)

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:               "test-secret",
			JWTIssuer:               "AuthServer",
			JWTAudience:             "AuthServer",
			AccessTokenTTLMinutes:   60,
			PasswordResetTTLMinutes: 60,
			BcryptCost:              bcrypt.MinCost,
		},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) all() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

type fixture struct {
	svc        *AuthService
	provider   *repository.Provider
	dispatcher events.Dispatcher
	rec        *recorder
}

func newFixture(t *testing.T, lifetime repository.Lifetime) *fixture {
	t.Helper()
	provider := repository.NewProvider(lifetime)
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	dispatcher.Subscribe(events.EventUserRegistered, rec.handle)
	dispatcher.Subscribe(events.EventPasswordResetRequested, rec.handle)
	dispatcher.Subscribe(events.EventPasswordResetCompleted, rec.handle)

	svc := NewAuthService(testConfig(), AuthDependencies{Users: provider, Events: dispatcher})
	return &fixture{svc: svc, provider: provider, dispatcher: dispatcher, rec: rec}
}

func (f *fixture) store(t *testing.T) repository.UserRepository {
	t.Helper()
	return f.provider.Resolve(context.Background())
}

func TestRegister(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	before := time.Now()

	res, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)

	assert.Equal(t, int64(1), res.UserID)
	assert.Equal(t, testEmail, res.Email)
	assert.NotEmpty(t, res.Token)
	assert.WithinDuration(t, before.Add(time.Hour), res.ExpiresAt, 5*time.Second)
	assert.True(t, f.svc.TokenManager().ValidateToken(res.Token))

	stored, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(testPassword)))
	assert.False(t, stored.HasResetToken())

	published := f.rec.all()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventUserRegistered, published[0].Type)
	assert.Equal(t, int64(1), published[0].UserID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, testEmail, "Other1pass!")
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	assert.Equal(t, 1, f.provider.Count())
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "empty email", email: "", password: testPassword, want: validation.ErrEmailRequired},
		{name: "malformed email", email: "alice", password: testPassword, want: validation.ErrEmailInvalid},
		{name: "empty password", email: testEmail, password: "", want: validation.ErrPasswordRequired},
		{name: "short password", email: testEmail, password: "Pa1!", want: validation.ErrPasswordTooShort},
		{name: "no uppercase", email: testEmail, password: "passw0rd!", want: validation.ErrPasswordNoUpper},
		{name: "no digit", email: testEmail, password: "Password!", want: validation.ErrPasswordNoDigit},
		{name: "no symbol", email: testEmail, password: "Passw0rdx", want: validation.ErrPasswordNoSymbol},
		{name: "ascii over 72 bytes", email: testEmail, password: "Aa1!" + strings.Repeat("x", 76), want: validation.ErrPasswordTooLong},
		{name: "multibyte over 72 bytes", email: testEmail, password: "Aa1!" + strings.Repeat("é", 68), want: validation.ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, repository.LifetimeSingleton)

			res, err := f.svc.Register(context.Background(), tt.email, tt.password)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, f.provider.Count())
			assert.Empty(t, f.rec.all())
		})
	}
}

func TestRegisterSucceedsWhenHandlerFails(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	f.dispatcher.Subscribe(events.EventUserRegistered, func(context.Context, events.Event) error {
		return errors.New("downstream unavailable")
	})

	res, err := f.svc.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, 1, f.provider.Count())
}

func TestLogin(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		res, err := f.svc.Login(ctx, testEmail, testPassword)
		require.NoError(t, err)
		assert.Equal(t, int64(1), res.UserID)

		id, err := f.svc.TokenManager().UserIDFromToken(res.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
	})

	t.Run("wrong password", func(t *testing.T) {
		res, err := f.svc.Login(ctx, testEmail, "WrongPass1!")
		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		res, err := f.svc.Login(ctx, "bob@example.com", testPassword)
		assert.Nil(t, res)
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestLoginErrorsAreIndistinguishable(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)

	_, wrongPassword := f.svc.Login(ctx, testEmail, "WrongPass1!")
	_, unknownEmail := f.svc.Login(ctx, "nobody@example.com", testPassword)
	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)

	err := f.svc.ForgotPassword(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	assert.Zero(t, f.provider.Count())
	assert.Empty(t, f.rec.all())
}

func TestForgotPasswordIssuesResetToken(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)

	before := time.Now()
	require.NoError(t, f.svc.ForgotPassword(ctx, testEmail))

	stored, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	require.True(t, stored.HasResetToken())
	require.NotNil(t, stored.ResetTokenExpiry)
	assert.WithinDuration(t, before.Add(time.Hour), *stored.ResetTokenExpiry, 5*time.Second)

	published := f.rec.all()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventPasswordResetRequested, published[1].Type)
	payload, ok := published[1].Payload.(events.PasswordResetRequestedPayload)
	require.True(t, ok)
	assert.Equal(t, testEmail, payload.Email)
	assert.Equal(t, stored.ResetToken, payload.Token)
}

func TestForgotPasswordReplacesPreviousToken(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, testEmail))
	first, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)

	require.NoError(t, f.svc.ForgotPassword(ctx, testEmail))
	second, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)

	assert.NotEqual(t, first.ResetToken, second.ResetToken)
	err = f.svc.ResetPassword(ctx, first.ResetToken, "N3wPassw0rd!")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, testEmail))

	stored, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	token := stored.ResetToken

	const newPassword = "N3wPassw0rd!"
	require.NoError(t, f.svc.ResetPassword(ctx, token, newPassword))

	_, err = f.svc.Login(ctx, testEmail, newPassword)
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, testEmail, testPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	stored, err = f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	assert.False(t, stored.HasResetToken())
	assert.Nil(t, stored.ResetTokenExpiry)

	err = f.svc.ResetPassword(ctx, token, "An0therPass!")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)

	published := f.rec.all()
	require.Len(t, published, 3)
	assert.Equal(t, events.EventPasswordResetCompleted, published[2].Type)
}

func TestResetPasswordExpiredToken(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, testEmail))

	stored, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(61 * time.Minute) }

	err = f.svc.ResetPassword(ctx, stored.ResetToken, "N3wPassw0rd!")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)

	_, err = f.svc.Login(ctx, testEmail, testPassword)
	assert.NoError(t, err)
}

func TestResetPasswordRejectsWeakPasswordFirst(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, testEmail))

	stored, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, stored.ResetToken, "weak")
	assert.ErrorIs(t, err, validation.ErrPasswordTooShort)

	err = f.svc.ResetPassword(ctx, "not-a-token", "weak")
	assert.ErrorIs(t, err, validation.ErrPasswordTooShort)

	after, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	assert.Equal(t, stored.ResetToken, after.ResetToken)
	assert.Equal(t, stored.PasswordHash, after.PasswordHash)
}

func TestResetPasswordRejectsOverlongPassword(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.svc.ForgotPassword(ctx, testEmail))

	stored, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)

	err = f.svc.ResetPassword(ctx, stored.ResetToken, "Aa1!"+strings.Repeat("é", 68))
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, validation.ErrPasswordTooLong, verr)

	after, err := f.store(t).GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	assert.True(t, after.IsResetTokenValid(stored.ResetToken, time.Now()))
}

func TestResetPasswordUnknownToken(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)

	err := f.svc.ResetPassword(context.Background(), "does-not-exist", "N3wPassw0rd!")
	assert.ErrorIs(t, err, domain.ErrInvalidResetToken)
}

func TestVerifyToken(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)

	info, err := f.svc.VerifyToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, info.UserID)
	assert.Equal(t, testEmail, info.Email)
	assert.NotEmpty(t, info.TokenID)

	_, err = f.svc.VerifyToken(ctx, "garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	other := NewAuthService(config.Config{Auth: config.AuthConfig{JWTSecret: "other", JWTIssuer: "AuthServer", JWTAudience: "AuthServer"}}, AuthDependencies{})
	_, err = other.VerifyToken(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestScopedStoreIsPerScope(t *testing.T) {
	f := newFixture(t, repository.LifetimeScoped)

	first := f.provider.WithScope(context.Background())
	_, err := f.svc.Register(first, testEmail, testPassword)
	require.NoError(t, err)

	_, err = f.svc.Login(first, testEmail, testPassword)
	assert.NoError(t, err)

	second := f.provider.WithScope(context.Background())
	_, err = f.svc.Login(second, testEmail, testPassword)
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestConcurrentRegisterSameEmail(t *testing.T) {
	f := newFixture(t, repository.LifetimeSingleton)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Register(ctx, testEmail, testPassword)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrEmailAlreadyExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
	assert.Equal(t, 1, f.provider.Count())
}

func TestServiceLogsWithoutSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := testConfig()
	cfg.Auth.AccessTokenTTLMinutes = 15
	provider := repository.NewProvider(repository.LifetimeSingleton)
	svc := NewAuthService(cfg, AuthDependencies{Users: provider, Logger: zap.New(core)})

	configured := logs.FilterMessage("auth service configured").All()
	require.Len(t, configured, 1)
	fields := configured[0].ContextMap()
	assert.Equal(t, 15*time.Minute, fields["access_token_ttl"])
	assert.Equal(t, time.Hour, fields["reset_token_ttl"])
	assert.EqualValues(t, bcrypt.MinCost, fields["bcrypt_cost"])

	ctx := context.Background()
	_, err := svc.Register(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, testEmail))
	require.NoError(t, svc.ForgotPassword(ctx, testEmail))

	requested := logs.FilterMessage("password reset requested").All()
	require.Len(t, requested, 2)
	assert.Equal(t, false, requested[0].ContextMap()["replaced_token"])
	assert.Equal(t, true, requested[1].ContextMap()["replaced_token"])

	stored, err := provider.Resolve(ctx).GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	for _, entry := range logs.All() {
		for _, v := range entry.ContextMap() {
			assert.NotEqual(t, stored.ResetToken, v)
			assert.NotEqual(t, testPassword, v)
		}
	}
}
